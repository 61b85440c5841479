package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/runner"
	"lectern/internal/services/llm"
	"lectern/internal/services/whisper"
	"lectern/internal/stage"
	"lectern/internal/stages"
)

// Daemon owns the job store, the task runner, and the HTTP API. It enforces
// single-instance execution with a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *jobs.Store
	runner *runner.Runner
	svc    *api.JobService
	llm    *llm.Client

	lockPath string
	lock     *flock.Flock

	apiServer *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobDBPath    string
	LockFilePath string
	QueueDepth   int
	ActiveJobs   int
	Stats        jobs.Stats
}

// New constructs a daemon with its pipeline wired from the configuration.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	llmClient := llm.NewClient(llm.Config(cfg.GetLLM()))
	whisperSvc := whisper.NewService(whisper.Config{
		Model:       cfg.Whisper.Model,
		CUDAEnabled: cfg.Whisper.CUDAEnabled,
	}, cfg.FFmpegBinary())

	handlers := stages.Pipeline(cfg, stages.Dependencies{
		Transcriber: whisperSvc,
		Summarizer:  llmClient,
		Assessor:    llmClient,
	}, logger)
	orch := pipeline.New(store, handlers, logger)
	run := runner.New(orch, cfg.Pipeline.MaxConcurrentJobs, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "lecternd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		runner:   run,
		svc:      api.NewJobService(store, run),
		llm:      llmClient,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.apiServer = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted jobs, launches the
// runner, and serves the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lectern daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.runner.Start(d.ctx)

	if err := d.recover(d.ctx); err != nil {
		d.shutdown()
		return fmt.Errorf("recover jobs: %w", err)
	}

	if err := d.apiServer.start(d.ctx); err != nil {
		d.shutdown()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("lectern daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.apiServer.Addr()))
	return nil
}

// recover fails jobs interrupted by a previous crash and resubmits the ones
// that never started, oldest first.
func (d *Daemon) recover(ctx context.Context) error {
	interrupted, err := d.store.FailInterrupted(ctx)
	if err != nil {
		return err
	}
	if interrupted > 0 {
		d.logger.Warn("failed interrupted jobs from previous run",
			logging.Int64("count", interrupted))
	}

	queued, err := d.store.ListByStatus(ctx, jobs.StatusQueued)
	if err != nil {
		return err
	}
	for _, job := range queued {
		if err := d.runner.Submit(job.ID); err != nil {
			d.logger.Error("resubmit queued job",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(err))
		}
	}
	if len(queued) > 0 {
		d.logger.Info("resubmitted queued jobs", logging.Int("count", len(queued)))
	}
	return nil
}

// Stop stops the API server and the runner and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.shutdown()
	d.running.Store(false)
	d.logger.Info("lectern daemon stopped")
}

func (d *Daemon) shutdown() {
	if d.apiServer != nil {
		d.apiServer.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.runner.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Service exposes the job service backing the HTTP API.
func (d *Daemon) Service() *api.JobService {
	return d.svc
}

// Addr returns the address the API server is listening on, or the configured
// bind before Start.
func (d *Daemon) Addr() string {
	return d.apiServer.Addr()
}

// CheckLLM verifies that the chat-completion backend is reachable.
func (d *Daemon) CheckLLM(ctx context.Context) error {
	return d.llm.HealthCheck(ctx)
}

const llmHealthTimeout = 10 * time.Second

// Health reports the readiness of the external collaborators the pipeline
// depends on: the audio toolchain binaries and the chat-completion backend.
func (d *Daemon) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, 3)
	if _, err := exec.LookPath(d.cfg.FFmpegBinary()); err != nil {
		checks = append(checks, stage.Unhealthy("ffmpeg", err.Error()))
	} else {
		checks = append(checks, stage.Healthy("ffmpeg"))
	}
	if _, err := exec.LookPath(whisper.UVXCommand); err != nil {
		checks = append(checks, stage.Unhealthy("whisperx", err.Error()))
	} else {
		checks = append(checks, stage.Healthy("whisperx"))
	}

	llmCtx, cancel := context.WithTimeout(ctx, llmHealthTimeout)
	defer cancel()
	if err := d.CheckLLM(llmCtx); err != nil {
		checks = append(checks, stage.Unhealthy("llm", err.Error()))
	} else {
		checks = append(checks, stage.Healthy("llm"))
	}
	return checks
}

// StageLabels returns the pipeline stage labels in execution order.
func (d *Daemon) StageLabels() []string {
	return stage.Labels()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Error("collect job stats", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobDBPath:    d.store.Path(),
		LockFilePath: d.lockPath,
		QueueDepth:   d.runner.QueueDepth(),
		ActiveJobs:   d.runner.ActiveWorkers(),
		Stats:        stats,
	}
}
