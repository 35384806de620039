package planner

import (
	"context"
	"fmt"

	"mediaplan/internal/domain"
	"mediaplan/internal/infra"
	"mediaplan/internal/providers/genai"
)

// Runner executes one generation request to completion. Every attempt
// terminates by writing exactly one outcome row: failures are recorded as
// data so pollers always get a definitive answer instead of starving.
type Runner struct {
	backend  genai.TextGenerator
	outcomes domain.OutcomeRepository
	logger   infra.Logger
}

func NewRunner(backend genai.TextGenerator, outcomes domain.OutcomeRepository, logger infra.Logger) *Runner {
	return &Runner{backend: backend, outcomes: outcomes, logger: logger}
}

// Run is the fire-and-forget entry used by the queue workers.
func (r *Runner) Run(ctx context.Context, req *domain.PlanRequest) {
	if _, err := r.Execute(ctx, req); err != nil {
		r.logger.Error().Err(err).
			Int64("request_id", req.RequestID).
			Int64("user_id", req.UserID).
			Msg("plan job finished with error")
	}
}

// Execute performs the generation attempt and persists its outcome. On
// generation failure the returned outcome is the stored error record and the
// error wraps domain.ErrGenerationFailure; on persistence failure no outcome
// exists and the error wraps domain.ErrPersistenceFailure.
func (r *Runner) Execute(ctx context.Context, req *domain.PlanRequest) (*domain.Outcome, error) {
	outcome := &domain.Outcome{RequestID: req.RequestID, UserID: req.UserID}

	system, user, err := buildPrompts(req)
	var text string
	if err == nil {
		text, err = r.backend.GenerateText(ctx, system, user)
	}
	if err != nil {
		outcome.ErrorKind = "generation"
		outcome.ErrorMessage = err.Error()
		outcome.GeneratedText = domain.ErrorMarker + "generation: " + err.Error()
		if saveErr := r.outcomes.Save(ctx, outcome); saveErr != nil {
			// Double failure: nothing is stored and pollers will see this
			// request as processing until an operator intervenes.
			r.logger.Error().Err(saveErr).
				Int64("request_id", req.RequestID).
				Str("generation_error", err.Error()).
				Msg("failed to record generation failure; request stays in processing")
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, saveErr)
		}
		return outcome, fmt.Errorf("%w: %v", domain.ErrGenerationFailure, err)
	}

	outcome.GeneratedText = text
	if saveErr := r.outcomes.Save(ctx, outcome); saveErr != nil {
		r.logger.Error().Err(saveErr).
			Int64("request_id", req.RequestID).
			Msg("failed to persist generated plan; request stays in processing")
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, saveErr)
	}
	return outcome, nil
}
