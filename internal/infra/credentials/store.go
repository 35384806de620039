// Package credentials persists third-party API keys in Postgres so deploys
// can rotate the generation backend credential without restarting with new
// environment variables.
package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"mediaplan/internal/infra"
)

// ProviderOpenAI names the generation backend credential slot.
const ProviderOpenAI = "openai"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the integration_tokens table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS integration_tokens (
    provider   TEXT PRIMARY KEY,
    token      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := s.pool.Exec(ctx, query)
	return err
}

// OpenAIAPIKey returns the stored backend key, or empty when none is set.
func (s *Store) OpenAIAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderOpenAI)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	query := `SELECT token FROM integration_tokens WHERE provider = $1;`
	row := s.pool.QueryRow(ctx, query, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetOpenAIAPIKey stores or replaces the backend key.
func (s *Store) SetOpenAIAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("openai api key is required")
	}
	return s.upsert(ctx, ProviderOpenAI, key)
}

func (s *Store) upsert(ctx context.Context, provider, token string) error {
	query := `
INSERT INTO integration_tokens (provider, token, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (provider) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW();
`
	_, err := s.pool.Exec(ctx, query, provider, token)
	return err
}
