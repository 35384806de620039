package domain

import "context"

// OutcomeRepository persists generation outcomes. Save is a single atomic
// insert; FetchLatest returns ErrNotFound when no outcome exists yet.
type OutcomeRepository interface {
	Save(ctx context.Context, outcome *Outcome) error
	FetchLatest(ctx context.Context, requestID int64) (*Outcome, error)
}
