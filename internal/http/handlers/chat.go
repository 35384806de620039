package handlers

import (
	"errors"
	"io"
	"net/http"

	"mediaplan/internal/domain"
	"mediaplan/internal/middleware"
	"mediaplan/internal/session"
)

// Chat relays one chat turn and streams the reply as chunked plain text.
// Authentication happens before any byte is written so auth failures still
// get a proper status code.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	token, err := session.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var turn domain.ChatTurn
	if !a.decode(w, r, &turn) {
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	stream, err := a.Relay.Stream(r.Context(), token, &turn, locale)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer func() {
		_ = stream.Close()
	}()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// The status line is already sent; abort the chunked body so
			// the client's read fails instead of seeing a reply that looks
			// complete. Recoverer re-panics ErrAbortHandler untouched.
			a.Logger.Warn().Err(err).Msg("chat stream aborted")
			panic(http.ErrAbortHandler)
		}
		if _, err := io.WriteString(w, fragment); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
