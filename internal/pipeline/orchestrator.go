package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/stage"
)

// Orchestrator drives one job through the fixed stage sequence. It is the
// only writer of a running job's row: the current step is persisted before
// each stage executes, stage deltas are merged write-once, and exactly one
// terminal transition closes the job.
type Orchestrator struct {
	store    *jobs.Store
	handlers []stage.Handler
	logger   *slog.Logger
}

// New constructs an orchestrator over the given stage sequence.
func New(store *jobs.Store, handlers []stage.Handler, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		handlers: handlers,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Execute runs the full pipeline for jobID. The returned error reflects why
// the job failed; the job row itself is always left in a terminal state
// unless the job was already terminal or missing.
func (o *Orchestrator) Execute(ctx context.Context, jobID string) error {
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, o.logger)

	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		logger.Warn("job already terminal, skipping", logging.String("status", string(job.Status)))
		return nil
	}

	started := time.Now()
	logger.Info("pipeline started", logging.String("file", job.Input.FileName))

	for _, handler := range o.handlers {
		if err := ctx.Err(); err != nil {
			return o.fail(ctx, jobID, fmt.Errorf("pipeline canceled: %w", err))
		}

		job, err = o.beginStage(ctx, jobID, handler.Label())
		if err != nil {
			return o.fail(ctx, jobID, err)
		}

		stageCtx := services.WithStage(ctx, handler.Label())
		delta, err := o.runStage(stageCtx, handler, job)
		if err != nil {
			return o.fail(stageCtx, jobID, err)
		}

		if _, err := o.store.Update(ctx, jobID, func(j *jobs.Job) error {
			return j.Context.Merge(delta)
		}); err != nil {
			return o.fail(stageCtx, jobID, fmt.Errorf("merge stage output: %w", err))
		}
	}

	if _, err := o.store.Update(ctx, jobID, func(j *jobs.Job) error {
		j.Status = jobs.StatusDone
		j.CurrentStep = jobs.StepComplete
		j.ErrorMessage = ""
		return nil
	}); err != nil {
		return o.fail(ctx, jobID, fmt.Errorf("finalize job: %w", err))
	}

	logger.Info("pipeline complete", logging.Duration("elapsed", time.Since(started)))
	return nil
}

// beginStage persists the upcoming step before the stage runs, so a crash
// mid-stage still leaves the failing step visible.
func (o *Orchestrator) beginStage(ctx context.Context, jobID, label string) (*jobs.Job, error) {
	return o.store.Update(ctx, jobID, func(j *jobs.Job) error {
		j.Status = jobs.StatusProcessing
		j.CurrentStep = label
		return nil
	})
}

func (o *Orchestrator) runStage(ctx context.Context, handler stage.Handler, job *jobs.Job) (delta jobs.Delta, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = services.Wrap(services.ErrTransient, handler.Label(), "", fmt.Sprintf("stage panicked: %v", recovered), nil)
		}
	}()

	logging.WithContext(ctx, o.logger).Info("stage started")
	delta, err = handler.Run(ctx, stage.Request{
		JobID:   job.ID,
		Input:   job.Input,
		Context: job.Context,
	})
	return delta, err
}

// fail records the terminal error state. The current step stays at the stage
// that failed so operators can see where the pipeline stopped.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error) error {
	logger := logging.WithContext(ctx, o.logger)
	if services.IsPrecondition(cause) {
		logger.Error("stage precondition violated", logging.Error(cause))
	} else {
		logger.Error("pipeline failed", logging.Error(cause))
	}

	if _, err := o.store.Update(context.WithoutCancel(ctx), jobID, func(j *jobs.Job) error {
		j.Status = jobs.StatusError
		j.ErrorMessage = services.Message(cause)
		return nil
	}); err != nil {
		logger.Error("record job failure", logging.Error(err))
	}
	return cause
}
