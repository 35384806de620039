package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediaplan/internal/domain"
)

// OutcomeRepositoryPG implements domain.OutcomeRepository on PostgreSQL.
// The table is append-only; retries insert new rows rather than updating.
type OutcomeRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewOutcomeRepository creates a new outcome repository backed by PostgreSQL.
func NewOutcomeRepository(pool *pgxpool.Pool) *OutcomeRepositoryPG {
	return &OutcomeRepositoryPG{pool: pool}
}

// EnsureSchema creates the results table when missing, mirroring the
// startup-time table bootstrap of the CMS plugin this service serves.
func (r *OutcomeRepositoryPG) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS media_plan_results (
    id             BIGSERIAL PRIMARY KEY,
    request_id     BIGINT NOT NULL,
    user_id        BIGINT NOT NULL,
    generated_text TEXT NOT NULL,
    edited_text    TEXT NOT NULL DEFAULT '',
    error_kind     TEXT NOT NULL DEFAULT '',
    error_message  TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_media_plan_results_request
    ON media_plan_results (request_id, created_at DESC, id DESC);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure results schema: %w", err)
	}
	return nil
}

// Save inserts a new outcome row and fills in the generated id and timestamp.
func (r *OutcomeRepositoryPG) Save(ctx context.Context, outcome *domain.Outcome) error {
	query := `
INSERT INTO media_plan_results (request_id, user_id, generated_text, edited_text, error_kind, error_message)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at;
`
	row := r.pool.QueryRow(ctx, query,
		outcome.RequestID,
		outcome.UserID,
		outcome.GeneratedText,
		outcome.EditedText,
		outcome.ErrorKind,
		outcome.ErrorMessage,
	)
	if err := row.Scan(&outcome.ID, &outcome.CreatedAt); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// FetchLatest returns the authoritative outcome for a request: newest by
// created_at, tie-broken by insertion order.
func (r *OutcomeRepositoryPG) FetchLatest(ctx context.Context, requestID int64) (*domain.Outcome, error) {
	query := `
SELECT id, request_id, user_id, generated_text, edited_text, error_kind, error_message, created_at
FROM media_plan_results
WHERE request_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	row := r.pool.QueryRow(ctx, query, requestID)
	var outcome domain.Outcome
	if err := row.Scan(
		&outcome.ID,
		&outcome.RequestID,
		&outcome.UserID,
		&outcome.GeneratedText,
		&outcome.EditedText,
		&outcome.ErrorKind,
		&outcome.ErrorMessage,
		&outcome.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetch latest outcome: %w", err)
	}
	return &outcome, nil
}

// UpdateEditedText records a human revision on the latest outcome of a
// request. The revision takes precedence over the generated text on reads.
func (r *OutcomeRepositoryPG) UpdateEditedText(ctx context.Context, requestID int64, edited string) error {
	query := `
UPDATE media_plan_results
SET edited_text = $2
WHERE id = (
    SELECT id FROM media_plan_results
    WHERE request_id = $1
    ORDER BY created_at DESC, id DESC
    LIMIT 1
);
`
	tag, err := r.pool.Exec(ctx, query, requestID, edited)
	if err != nil {
		return fmt.Errorf("update edited text: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.OutcomeRepository = (*OutcomeRepositoryPG)(nil)
