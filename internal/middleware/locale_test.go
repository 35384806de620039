package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func localeFor(t *testing.T, req *http.Request, fallback string, lookup CountryLookup) string {
	t.Helper()
	var got string
	handler := Locale(fallback, lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestLocaleDetection(t *testing.T) {
	saLookup := func(ip string) (string, error) { return "SA", nil }
	usLookup := func(ip string) (string, error) { return "US", nil }
	failingLookup := func(ip string) (string, error) { return "", errors.New("no database") }

	tests := []struct {
		name     string
		headers  map[string]string
		fallback string
		lookup   CountryLookup
		want     string
	}{
		{
			name:    "explicit X-Locale wins",
			headers: map[string]string{"X-Locale": "en", "Accept-Language": "ar"},
			lookup:  saLookup,
			want:    "en",
		},
		{
			name:    "X-Locale region stripped",
			headers: map[string]string{"X-Locale": "ar-SA"},
			want:    "ar",
		},
		{
			name:    "accept language parsed",
			headers: map[string]string{"Accept-Language": "fr-FR;q=0.9, en;q=0.8"},
			want:    "fr",
		},
		{
			name:   "arabic country maps to arabic",
			lookup: saLookup,
			want:   "ar",
		},
		{
			name:   "other country maps to english",
			lookup: usLookup,
			want:   "en",
		},
		{
			name:     "lookup failure uses fallback",
			lookup:   failingLookup,
			fallback: "ar",
			want:     "ar",
		},
		{
			name: "default is arabic",
			want: "ar",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.9:443"
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := localeFor(t, req, tc.fallback, tc.lookup); got != tc.want {
				t.Fatalf("locale = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLocaleFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := LocaleFromContext(req.Context()); got != "ar" {
		t.Fatalf("LocaleFromContext without middleware = %q, want ar", got)
	}
}
