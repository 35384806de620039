package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"mediaplan/internal/domain"
)

type stubBackend struct {
	text string
	err  error

	mu    sync.Mutex
	calls int
	block chan struct{}
}

func (b *stubBackend) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if b.err != nil {
		return "", b.err
	}
	return b.text, nil
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	rows    []*domain.Outcome
	saveErr error
}

func (r *memRepo) Save(ctx context.Context, outcome *domain.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nextID++
	outcome.ID = r.nextID
	stored := *outcome
	r.rows = append(r.rows, &stored)
	return nil
}

func (r *memRepo) FetchLatest(ctx context.Context, requestID int64) (*domain.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Outcome
	for _, row := range r.rows {
		if row.RequestID != requestID {
			continue
		}
		if latest == nil || row.ID > latest.ID {
			latest = row
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *memRepo) count(requestID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.RequestID == requestID {
			n++
		}
	}
	return n
}

func testRequest(requestID int64) *domain.PlanRequest {
	return &domain.PlanRequest{
		RequestID:        requestID,
		UserID:           7,
		OrganizationName: "Acme Retail",
		CampaignName:     "Summer Launch",
		Platforms:        "instagram,tiktok",
	}
}

func TestExecuteStoresGeneratedText(t *testing.T) {
	repo := &memRepo{}
	runner := NewRunner(&stubBackend{text: "generated plan"}, repo, zerolog.Nop())

	outcome, err := runner.Execute(context.Background(), testRequest(11))
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if outcome.GeneratedText != "generated plan" {
		t.Fatalf("GeneratedText = %q", outcome.GeneratedText)
	}
	if outcome.Failed() {
		t.Fatal("successful outcome reported as failed")
	}
	if n := repo.count(11); n != 1 {
		t.Fatalf("stored %d outcomes, want 1", n)
	}
}

func TestExecuteRecordsGenerationFailureAsOutcome(t *testing.T) {
	repo := &memRepo{}
	runner := NewRunner(&stubBackend{err: errors.New("backend down")}, repo, zerolog.Nop())

	outcome, err := runner.Execute(context.Background(), testRequest(12))
	if !errors.Is(err, domain.ErrGenerationFailure) {
		t.Fatalf("err = %v, want ErrGenerationFailure", err)
	}
	if outcome == nil {
		t.Fatal("failure outcome was not returned")
	}
	if !strings.HasPrefix(outcome.GeneratedText, domain.ErrorMarker) {
		t.Fatalf("GeneratedText = %q, want %q prefix", outcome.GeneratedText, domain.ErrorMarker)
	}
	if outcome.ErrorKind != "generation" {
		t.Fatalf("ErrorKind = %q", outcome.ErrorKind)
	}
	if !strings.Contains(outcome.ErrorMessage, "backend down") {
		t.Fatalf("ErrorMessage = %q", outcome.ErrorMessage)
	}
	if n := repo.count(12); n != 1 {
		t.Fatalf("stored %d outcomes, want 1", n)
	}

	stored, err := repo.FetchLatest(context.Background(), 12)
	if err != nil {
		t.Fatalf("FetchLatest returned error: %v", err)
	}
	if !stored.Failed() {
		t.Fatal("stored failure outcome is not marked failed")
	}
}

func TestExecuteReportsPersistenceFailure(t *testing.T) {
	repo := &memRepo{saveErr: errors.New("db gone")}
	runner := NewRunner(&stubBackend{text: "plan"}, repo, zerolog.Nop())

	outcome, err := runner.Execute(context.Background(), testRequest(13))
	if !errors.Is(err, domain.ErrPersistenceFailure) {
		t.Fatalf("err = %v, want ErrPersistenceFailure", err)
	}
	if outcome != nil {
		t.Fatal("no outcome should be returned when nothing was stored")
	}
}

func TestExecuteDoubleFailureLeavesNothingStored(t *testing.T) {
	repo := &memRepo{saveErr: errors.New("db gone")}
	runner := NewRunner(&stubBackend{err: errors.New("backend down")}, repo, zerolog.Nop())

	outcome, err := runner.Execute(context.Background(), testRequest(14))
	if !errors.Is(err, domain.ErrPersistenceFailure) {
		t.Fatalf("err = %v, want ErrPersistenceFailure", err)
	}
	if outcome != nil {
		t.Fatal("double failure must not return an outcome")
	}
	if _, err := repo.FetchLatest(context.Background(), 14); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FetchLatest = %v, want ErrNotFound", err)
	}
}
