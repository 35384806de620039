package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"mediaplan/internal/domain"
	"mediaplan/internal/infra"
)

// ErrQueueUnavailable is returned when a job cannot be accepted, either
// because the buffer is full or because the queue is shutting down.
var ErrQueueUnavailable = errors.New("job queue unavailable")

const jobTimeout = 5 * time.Minute

// Queue runs plan jobs on a fixed pool of in-process workers. Enqueue never
// blocks: callers get an immediate accept or reject so the HTTP surface can
// answer within its own deadline.
type Queue struct {
	jobs    chan *domain.PlanRequest
	runner  *Runner
	logger  infra.Logger
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewQueue(runner *Runner, workers, size int, logger infra.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:    make(chan *domain.PlanRequest, size),
		runner:  runner,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue hands a request to the worker pool. Jobs run on a background
// context so an already-answered HTTP request cannot cancel them.
func (q *Queue) Enqueue(req *domain.PlanRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueUnavailable
	}
	select {
	case q.jobs <- req:
		return nil
	default:
		return ErrQueueUnavailable
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
	q.logger.Info().Msg("job queue drained")
}

func (q *Queue) work() {
	defer q.wg.Done()
	for req := range q.jobs {
		ctx, cancel := context.WithTimeout(q.baseCtx, jobTimeout)
		q.runner.Run(ctx, req)
		cancel()
	}
}
