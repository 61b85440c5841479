package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"lectern/internal/logging"
)

// Executor runs the pipeline for one job. Implemented by pipeline.Orchestrator.
type Executor interface {
	Execute(ctx context.Context, jobID string) error
}

// Runner owns the bounded worker pool that drains submitted jobs. Submit
// never blocks: when every worker slot is busy, job ids wait in a FIFO
// overflow queue. A job id is in flight from Submit until its pipeline run
// finishes, so duplicate submissions are ignored.
type Runner struct {
	exec    Executor
	workers int
	logger  *slog.Logger

	mu       sync.Mutex
	pending  []string
	inflight map[string]struct{}
	active   int
	started  bool
	stopped  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ErrNotStarted is returned by Submit before Start or after Stop.
var ErrNotStarted = errors.New("runner not started")

// ErrDuplicate is returned when the job is already queued or running.
var ErrDuplicate = errors.New("job already submitted")

// New constructs a runner with the given worker count.
func New(exec Executor, workers int, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		exec:     exec,
		workers:  workers,
		logger:   logging.NewComponentLogger(logger, "runner"),
		inflight: make(map[string]struct{}),
	}
}

// Start prepares the runner for submissions. The provided context bounds
// every pipeline run the runner launches.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started && !r.stopped {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.started = true
	r.stopped = false
}

// Stop cancels in-flight work and waits for workers to drain.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.pending = nil
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// Submit schedules a job for execution without blocking. The job runs
// immediately when a worker slot is free, otherwise it waits in arrival
// order. Duplicate ids are rejected until the running attempt finishes.
func (r *Runner) Submit(jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started || r.stopped {
		return ErrNotStarted
	}
	if _, dup := r.inflight[jobID]; dup {
		return ErrDuplicate
	}
	r.inflight[jobID] = struct{}{}

	if r.active < r.workers {
		r.active++
		r.wg.Add(1)
		go r.work(jobID)
		return nil
	}

	r.pending = append(r.pending, jobID)
	return nil
}

// QueueDepth reports how many submitted jobs are waiting for a worker slot.
func (r *Runner) QueueDepth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// ActiveWorkers reports how many jobs are currently executing.
func (r *Runner) ActiveWorkers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Runner) work(jobID string) {
	defer r.wg.Done()

	for {
		r.runOne(jobID)

		r.mu.Lock()
		delete(r.inflight, jobID)
		if r.stopped || len(r.pending) == 0 {
			r.active--
			r.mu.Unlock()
			return
		}
		jobID = r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
	}
}

func (r *Runner) runOne(jobID string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("pipeline run panicked",
				logging.String(logging.FieldJobID, jobID),
				logging.String("panic", panicString(recovered)))
		}
	}()

	if err := r.exec.Execute(r.ctx, jobID); err != nil {
		r.logger.Error("pipeline run failed",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err))
	}
}

func panicString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown panic"
}
