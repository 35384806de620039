// Package handlers exposes the plan broker, session manager, and chat relay
// over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mediaplan/internal/chat"
	"mediaplan/internal/domain"
	"mediaplan/internal/infra"
	"mediaplan/internal/planner"
	"mediaplan/internal/session"
)

type App struct {
	Logger   infra.Logger
	Broker   *planner.Broker
	Sessions *session.Manager
	Relay    *chat.Relay
}

func NewApp(logger infra.Logger, broker *planner.Broker, sessions *session.Manager, relay *chat.Relay) *App {
	return &App{Logger: logger, Broker: broker, Sessions: sessions, Relay: relay}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"status": "error", "message": message})
}

// fail maps domain errors onto HTTP status codes.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		a.jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.jsonError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, planner.ErrQueueUnavailable):
		a.jsonError(w, http.StatusServiceUnavailable, "job queue is full, retry shortly")
	case errors.Is(err, domain.ErrGenerationFailure):
		a.jsonError(w, http.StatusBadGateway, "generation backend unavailable")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
