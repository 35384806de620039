// Package httpapi assembles the HTTP surface of the service.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mediaplan/internal/http/handlers"
	"mediaplan/internal/middleware"
)

// Options carries the cross-cutting configuration the router needs.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	RateLimit      int
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(opts.RateLimit, time.Minute))
	}

	r.Get("/health", app.Health)

	r.Post("/start", app.Start)
	r.Post("/start_sync", app.StartSync)
	r.Post("/result", app.Result)

	r.Post("/session", app.SessionCreate)
	r.Post("/chat", app.Chat)

	return r
}
