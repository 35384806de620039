package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type localeContextKey struct{}

// LocaleKey carries the detected reply locale through the request context.
var LocaleKey = localeContextKey{}

// CountryLookup resolves an ISO country code for an IP address.
type CountryLookup func(ip string) (string, error)

// Countries whose traffic defaults to an Arabic reply locale.
var arabicCountries = map[string]struct{}{
	"SA": {}, "AE": {}, "EG": {}, "KW": {}, "QA": {}, "BH": {}, "OM": {},
	"JO": {}, "LB": {}, "IQ": {}, "SY": {}, "YE": {}, "PS": {}, "LY": {},
	"TN": {}, "DZ": {}, "MA": {}, "SD": {}, "MR": {},
}

// Locale detects the reply language for each request. Precedence: explicit
// X-Locale header, then Accept-Language, then the caller's GeoIP country,
// then the configured default.
func Locale(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, defaultLocale, lookup)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the detected locale, defaulting to Arabic.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "ar"
}

func detectLocale(r *http.Request, fallback string, lookup CountryLookup) string {
	if v := normalizeLocale(r.Header.Get("X-Locale")); v != "" {
		return v
	}
	if v := parseAcceptLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	if lookup != nil {
		if ip := clientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil {
				if _, ok := arabicCountries[strings.ToUpper(country)]; ok {
					return "ar"
				}
				if country != "" {
					return "en"
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "ar"
}

func parseAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		token := strings.TrimSpace(strings.Split(part, ";")[0])
		if token == "" {
			continue
		}
		return normalizeLocale(token)
	}
	return ""
}

// normalizeLocale reduces a locale tag to its primary language subtag.
func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		return ""
	}
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		locale = locale[:idx]
	}
	return locale
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	return r.RemoteAddr
}
