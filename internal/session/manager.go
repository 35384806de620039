// Package session issues and verifies stateless chat session tokens. Tokens
// are self-contained HMAC-SHA256 JWTs; no session row is stored anywhere, so
// any API replica can verify a token issued by any other.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaplan/internal/domain"
)

const (
	issuer   = "mediaplan-api"
	audience = "mediaplan-clients"

	minSecretBytes = 32
)

// Claims is the JWT payload carried by a session token.
type Claims struct {
	SessionID string `json:"sid"`
	UserID    int64  `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Issuer    string `json:"iss"`
	Audience  string `json:"aud"`
}

// Manager signs and verifies session tokens with a single shared secret.
type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret []byte) (*Manager, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("session secret must be at least %d bytes, got %d", minSecretBytes, len(secret))
	}
	return &Manager{secret: secret, now: time.Now}, nil
}

// Create issues a fresh session for the user and returns it together with
// its signed token.
func (m *Manager) Create(userID int64) (*domain.Session, string, error) {
	if userID <= 0 {
		return nil, "", fmt.Errorf("%w: user_id must be > 0", domain.ErrInvalidRequest)
	}
	now := m.now().UTC()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(domain.SessionTTL),
	}
	token, err := m.sign(Claims{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		IssuedAt:  sess.IssuedAt.Unix(),
		ExpiresAt: sess.ExpiresAt.Unix(),
		Issuer:    issuer,
		Audience:  audience,
	})
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Verify checks a token's signature and expiry and returns its claims. All
// rejections wrap domain.ErrUnauthorized.
func (m *Manager) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed token", domain.ErrUnauthorized)
	}
	expected := m.hmacSign(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, fmt.Errorf("%w: bad signature", domain.ErrUnauthorized)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable payload", domain.ErrUnauthorized)
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: undecodable claims", domain.ErrUnauthorized)
	}
	if claims.ExpiresAt != 0 && m.now().Unix() > claims.ExpiresAt {
		return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: token carries no user", domain.ErrUnauthorized)
	}
	return &claims, nil
}

func (m *Manager) sign(claims Claims) (string, error) {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	data := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(payloadJSON)
	return data + "." + m.hmacSign(data), nil
}

func (m *Manager) hmacSign(data string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization", domain.ErrUnauthorized)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: invalid authorization", domain.ErrUnauthorized)
	}
	return strings.TrimSpace(parts[1]), nil
}
