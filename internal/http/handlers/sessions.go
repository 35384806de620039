package handlers

import (
	"net/http"
	"time"
)

type sessionRequest struct {
	UserID int64 `json:"user_id"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// SessionCreate issues a stateless chat session token for the user.
func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !a.decode(w, r, &req) {
		return
	}
	sess, token, err := a.Sessions.Create(req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info().
		Str("session_id", sess.ID).
		Int64("user_id", sess.UserID).
		Msg("chat session issued")
	a.json(w, http.StatusOK, sessionResponse{
		SessionID: sess.ID,
		Token:     token,
		ExpiresAt: sess.ExpiresAt.Format(time.RFC3339),
	})
}
