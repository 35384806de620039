package domain

import "time"

// SessionTTL is the fixed validity window of a chat session token.
const SessionTTL = 2 * time.Hour

// Session is an ephemeral authentication grant. It is never stored server
// side; the signed token held by the caller is the only record.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
