package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mediaplan/internal/domain"
)

type recordingScheduler struct {
	mu       sync.Mutex
	enqueued []*domain.PlanRequest
	err      error
}

func (s *recordingScheduler) Enqueue(req *domain.PlanRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, req)
	return nil
}

func (s *recordingScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.enqueued)
}

func newTestBroker(repo *memRepo, backend *stubBackend, sched Scheduler) *Broker {
	runner := NewRunner(backend, repo, zerolog.Nop())
	return NewBroker(repo, runner, sched, zerolog.Nop())
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	broker := newTestBroker(&memRepo{}, &stubBackend{}, &recordingScheduler{})

	tests := []struct {
		name string
		req  *domain.PlanRequest
	}{
		{"zero request id", &domain.PlanRequest{RequestID: 0, UserID: 1}},
		{"negative request id", &domain.PlanRequest{RequestID: -4, UserID: 1}},
		{"zero user id", &domain.PlanRequest{RequestID: 5, UserID: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := broker.Submit(context.Background(), tc.req); !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("Submit = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestSubmitEnqueuesFreshRequest(t *testing.T) {
	sched := &recordingScheduler{}
	broker := newTestBroker(&memRepo{}, &stubBackend{}, sched)

	sub, err := broker.Submit(context.Background(), testRequest(21))
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if sub.Status != StatusProcessing {
		t.Fatalf("Status = %q, want processing", sub.Status)
	}
	if sched.count() != 1 {
		t.Fatalf("enqueued %d jobs, want 1", sched.count())
	}
}

func TestSubmitReturnsExistingOutcomeWithoutRerun(t *testing.T) {
	repo := &memRepo{}
	if err := repo.Save(context.Background(), &domain.Outcome{RequestID: 22, UserID: 7, GeneratedText: "stored plan"}); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	sched := &recordingScheduler{}
	broker := newTestBroker(repo, &stubBackend{}, sched)

	sub, err := broker.Submit(context.Background(), testRequest(22))
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if sub.Status != StatusDone || sub.Result != "stored plan" {
		t.Fatalf("Submission = %+v, want done with stored plan", sub)
	}
	if sched.count() != 0 {
		t.Fatal("duplicate submission was enqueued")
	}
}

func TestSubmitTreatsStoredFailureAsDone(t *testing.T) {
	repo := &memRepo{}
	seed := &domain.Outcome{
		RequestID:     23,
		UserID:        7,
		GeneratedText: domain.ErrorMarker + "generation: backend down",
		ErrorKind:     "generation",
		ErrorMessage:  "backend down",
	}
	if err := repo.Save(context.Background(), seed); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	sched := &recordingScheduler{}
	broker := newTestBroker(repo, &stubBackend{}, sched)

	sub, err := broker.Submit(context.Background(), testRequest(23))
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if sub.Status != StatusDone {
		t.Fatalf("Status = %q, want done", sub.Status)
	}
	if !strings.HasPrefix(sub.Result, domain.ErrorMarker) {
		t.Fatalf("Result = %q, want error marker prefix", sub.Result)
	}
	if sched.count() != 0 {
		t.Fatal("failed request was re-enqueued on resubmit")
	}
}

func TestSubmitTwiceBeforeFirstCompletes(t *testing.T) {
	repo := &memRepo{}
	block := make(chan struct{})
	backend := &stubBackend{text: "raced plan", block: block}
	runner := NewRunner(backend, repo, zerolog.Nop())
	queue := NewQueue(runner, 2, 4, zerolog.Nop())
	broker := NewBroker(repo, runner, queue, zerolog.Nop())
	ctx := context.Background()

	first, err := broker.Submit(ctx, testRequest(27))
	if err != nil {
		t.Fatalf("first Submit returned error: %v", err)
	}
	if first.Status != StatusProcessing {
		t.Fatalf("first Status = %q, want processing", first.Status)
	}

	// The first run is in flight and nothing is stored yet, so the gate
	// lets the duplicate through.
	waitForCalls(t, backend, 1)
	second, err := broker.Submit(ctx, testRequest(27))
	if err != nil {
		t.Fatalf("second Submit returned error: %v", err)
	}
	if second.Status != StatusProcessing {
		t.Fatalf("second Status = %q, want processing", second.Status)
	}

	close(block)
	queue.Close()

	if n := repo.count(27); n != 2 {
		t.Fatalf("stored %d outcomes, want 2", n)
	}
	latest, err := repo.FetchLatest(ctx, 27)
	if err != nil {
		t.Fatalf("FetchLatest returned error: %v", err)
	}
	sub, err := broker.Result(ctx, 27)
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if sub.Status != StatusDone {
		t.Fatalf("Status = %q, want done", sub.Status)
	}
	if sub.Result != latest.ResultText() {
		t.Fatalf("Result = %q, want the latest stored text %q", sub.Result, latest.ResultText())
	}
}

func TestSubmitSurfacesQueueRejection(t *testing.T) {
	sched := &recordingScheduler{err: ErrQueueUnavailable}
	broker := newTestBroker(&memRepo{}, &stubBackend{}, sched)

	if _, err := broker.Submit(context.Background(), testRequest(24)); !errors.Is(err, ErrQueueUnavailable) {
		t.Fatalf("Submit = %v, want ErrQueueUnavailable", err)
	}
}

func TestSubmitSyncRunsInline(t *testing.T) {
	repo := &memRepo{}
	backend := &stubBackend{text: "inline plan"}
	broker := newTestBroker(repo, backend, &recordingScheduler{})

	sub, err := broker.SubmitSync(context.Background(), testRequest(25))
	if err != nil {
		t.Fatalf("SubmitSync returned error: %v", err)
	}
	if sub.Status != StatusDone || sub.Result != "inline plan" {
		t.Fatalf("Submission = %+v", sub)
	}
	if n := repo.count(25); n != 1 {
		t.Fatalf("stored %d outcomes, want 1", n)
	}
}

func TestSubmitSyncReportsFailureAsError(t *testing.T) {
	repo := &memRepo{}
	broker := newTestBroker(repo, &stubBackend{err: errors.New("backend down")}, &recordingScheduler{})

	sub, err := broker.SubmitSync(context.Background(), testRequest(26))
	if err != nil {
		t.Fatalf("SubmitSync returned error: %v", err)
	}
	if sub.Status != StatusError {
		t.Fatalf("Status = %q, want error", sub.Status)
	}
	if !strings.Contains(sub.Message, "backend down") {
		t.Fatalf("Message = %q", sub.Message)
	}

	stored, err := repo.FetchLatest(context.Background(), 26)
	if err != nil {
		t.Fatalf("FetchLatest returned error: %v", err)
	}
	if !strings.HasPrefix(stored.GeneratedText, domain.ErrorMarker) {
		t.Fatalf("stored text = %q, want marker prefix", stored.GeneratedText)
	}
}

func TestResultReportsProcessingWhenMissing(t *testing.T) {
	broker := newTestBroker(&memRepo{}, &stubBackend{}, &recordingScheduler{})

	sub, err := broker.Result(context.Background(), 31)
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if sub.Status != StatusProcessing {
		t.Fatalf("Status = %q, want processing", sub.Status)
	}
}

func TestResultPrefersLatestRowAndHumanEdit(t *testing.T) {
	repo := &memRepo{}
	ctx := context.Background()
	first := &domain.Outcome{RequestID: 32, UserID: 7, GeneratedText: "first draft", CreatedAt: time.Now().Add(-time.Hour)}
	second := &domain.Outcome{RequestID: 32, UserID: 7, GeneratedText: "second draft", EditedText: "final copy", CreatedAt: time.Now()}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	broker := newTestBroker(repo, &stubBackend{}, &recordingScheduler{})

	sub, err := broker.Result(ctx, 32)
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if sub.Status != StatusDone || sub.Result != "final copy" {
		t.Fatalf("Submission = %+v, want done with final copy", sub)
	}
}

func TestResultSurfacesStoredFailure(t *testing.T) {
	repo := &memRepo{}
	seed := &domain.Outcome{
		RequestID:     33,
		UserID:        7,
		GeneratedText: domain.ErrorMarker + "generation: backend down",
		ErrorKind:     "generation",
		ErrorMessage:  "backend down",
	}
	if err := repo.Save(context.Background(), seed); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	broker := newTestBroker(repo, &stubBackend{}, &recordingScheduler{})

	sub, err := broker.Result(context.Background(), 33)
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if sub.Status != StatusError {
		t.Fatalf("Status = %q, want error", sub.Status)
	}
	if sub.Message != "backend down" {
		t.Fatalf("Message = %q", sub.Message)
	}
}

func TestResultHumanEditOverridesStoredFailure(t *testing.T) {
	repo := &memRepo{}
	seed := &domain.Outcome{
		RequestID:     34,
		UserID:        7,
		GeneratedText: domain.ErrorMarker + "generation: backend down",
		EditedText:    "operator supplied plan",
		ErrorKind:     "generation",
		ErrorMessage:  "backend down",
	}
	if err := repo.Save(context.Background(), seed); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	broker := newTestBroker(repo, &stubBackend{}, &recordingScheduler{})

	sub, err := broker.Result(context.Background(), 34)
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if sub.Status != StatusDone || sub.Result != "operator supplied plan" {
		t.Fatalf("Submission = %+v, want done with the edited text", sub)
	}
}

func TestResultRejectsInvalidID(t *testing.T) {
	broker := newTestBroker(&memRepo{}, &stubBackend{}, &recordingScheduler{})
	if _, err := broker.Result(context.Background(), 0); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("Result = %v, want ErrInvalidRequest", err)
	}
}
