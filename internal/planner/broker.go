package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediaplan/internal/domain"
	"mediaplan/internal/infra"
)

// Status describes what a caller should do next with a request.
type Status string

const (
	StatusDone       Status = "done"
	StatusProcessing Status = "processing"
	StatusError      Status = "error"
)

// Submission is the broker's answer to a submit or poll call.
type Submission struct {
	Status  Status `json:"status"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// Scheduler is the fire-and-forget side of the job queue.
type Scheduler interface {
	Enqueue(req *domain.PlanRequest) error
}

// Broker is the front door of the generation pipeline. It gates duplicate
// submissions on the stored outcome, hands fresh work to the scheduler, and
// translates stored outcomes into poll answers.
type Broker struct {
	outcomes domain.OutcomeRepository
	runner   *Runner
	queue    Scheduler
	logger   infra.Logger
}

func NewBroker(outcomes domain.OutcomeRepository, runner *Runner, queue Scheduler, logger infra.Logger) *Broker {
	return &Broker{outcomes: outcomes, runner: runner, queue: queue, logger: logger}
}

// Submit accepts a request for background processing. A request that already
// has a stored outcome is answered immediately with that outcome's text and
// is never re-run; failed outcomes are included, their stored text carries
// the error marker. The duplicate gate is read-then-enqueue, so two
// simultaneous first submissions may both run. The later result wins reads.
func (b *Broker) Submit(ctx context.Context, req *domain.PlanRequest) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := b.outcomes.FetchLatest(ctx, req.RequestID)
	if err == nil {
		return &Submission{Status: StatusDone, Result: existing.ResultText()}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	if err := b.queue.Enqueue(req); err != nil {
		b.logger.Warn().Err(err).
			Int64("request_id", req.RequestID).
			Msg("plan job rejected by queue")
		return nil, err
	}
	b.logger.Info().
		Int64("request_id", req.RequestID).
		Int64("user_id", req.UserID).
		Msg("plan job accepted")
	return &Submission{Status: StatusProcessing, Message: "plan generation started"}, nil
}

// SubmitSync runs the request inline and answers with its final text, or
// status error when this run failed. The duplicate gate is the same as
// Submit's: an already-stored outcome answers done with its text.
func (b *Broker) SubmitSync(ctx context.Context, req *domain.PlanRequest) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := b.outcomes.FetchLatest(ctx, req.RequestID)
	if err == nil {
		return &Submission{Status: StatusDone, Result: existing.ResultText()}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	outcome, err := b.runner.Execute(ctx, req)
	if err != nil && outcome == nil {
		return nil, err
	}
	if outcome.Failed() {
		return &Submission{Status: StatusError, Message: outcome.ErrorMessage}, nil
	}
	return &Submission{Status: StatusDone, Result: outcome.ResultText()}, nil
}

// Result reports the current state of a request. Failed outcomes surface as
// status error with the stored message; a request with no outcome is still
// processing as far as the caller can tell.
func (b *Broker) Result(ctx context.Context, requestID int64) (*Submission, error) {
	if requestID <= 0 {
		return nil, fmt.Errorf("%w: request_id must be > 0", domain.ErrInvalidRequest)
	}
	outcome, err := b.outcomes.FetchLatest(ctx, requestID)
	if errors.Is(err, domain.ErrNotFound) {
		return &Submission{Status: StatusProcessing, Message: "plan not generated yet"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	text := outcome.ResultText()
	if strings.HasPrefix(text, domain.ErrorMarker) {
		message := outcome.ErrorMessage
		if message == "" {
			message = strings.TrimPrefix(text, domain.ErrorMarker)
		}
		return &Submission{Status: StatusError, Message: message}, nil
	}
	return &Submission{Status: StatusDone, Result: text}, nil
}
