package api

import (
	"context"
	"errors"
	"fmt"

	"lectern/internal/jobs"
)

// ErrNotReady is returned when results are requested for a job that has not
// reached a terminal state yet.
var ErrNotReady = errors.New("job results not ready")

// ErrJobRunning is returned when a removal targets a job mid-pipeline.
var ErrJobRunning = errors.New("job is currently processing")

// JobStore abstracts the persistence operations the API layer needs.
type JobStore interface {
	Create(ctx context.Context, input jobs.Input) (*jobs.Job, error)
	Get(ctx context.Context, id string) (*jobs.Job, error)
	List(ctx context.Context) ([]*jobs.Job, error)
	ListByStatus(ctx context.Context, status jobs.Status) ([]*jobs.Job, error)
	Stats(ctx context.Context) (jobs.Stats, error)
	Remove(ctx context.Context, id string) error
	ClearFinished(ctx context.Context) (int64, error)
}

// Scheduler hands accepted jobs to the task runner.
type Scheduler interface {
	Submit(jobID string) error
}

// JobService exposes job operations over the store, returning API DTOs.
type JobService struct {
	store JobStore
	sched Scheduler
}

// NewJobService constructs a JobService around the store and scheduler.
func NewJobService(store JobStore, sched Scheduler) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store, sched: sched}
}

// Submit records a new job and schedules it for execution.
func (s *JobService) Submit(ctx context.Context, input jobs.Input) (SubmitResponse, error) {
	job, err := s.store.Create(ctx, input)
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("create job: %w", err)
	}
	if s.sched != nil {
		if err := s.sched.Submit(job.ID); err != nil {
			return SubmitResponse{}, fmt.Errorf("schedule job %s: %w", job.ID, err)
		}
	}
	return SubmitResponse{JobID: job.ID, Status: string(job.Status)}, nil
}

// Describe fetches the status view for one job.
func (s *JobService) Describe(ctx context.Context, id string) (JobStatus, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return JobStatus{}, err
	}
	return FromJob(job), nil
}

// Results returns the full artifact view once the job is terminal. Before
// that it fails with ErrNotReady.
func (s *JobService) Results(ctx context.Context, id string) (JobResults, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return JobResults{}, err
	}
	if !job.Status.IsTerminal() {
		return JobResults{}, fmt.Errorf("job %s is %s: %w", id, job.Status, ErrNotReady)
	}
	return ResultsFromJob(job), nil
}

// List returns jobs, newest first, optionally restricted to the given
// statuses.
func (s *JobService) List(ctx context.Context, statuses ...jobs.Status) (JobListResponse, error) {
	if len(statuses) == 0 {
		list, err := s.store.List(ctx)
		if err != nil {
			return JobListResponse{}, err
		}
		return JobListResponse{Jobs: FromJobs(list)}, nil
	}

	var views []JobStatus
	for _, status := range statuses {
		list, err := s.store.ListByStatus(ctx, status)
		if err != nil {
			return JobListResponse{}, err
		}
		views = append(views, FromJobs(list)...)
	}
	return JobListResponse{Jobs: views}, nil
}

// Stats returns per-status job counts.
func (s *JobService) Stats(ctx context.Context) (QueueStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return QueueStats{}, err
	}
	return FromStats(stats), nil
}

// Remove deletes a job record. Jobs that are mid-pipeline cannot be removed.
func (s *JobService) Remove(ctx context.Context, id string) error {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == jobs.StatusProcessing {
		return fmt.Errorf("remove job %s: %w", id, ErrJobRunning)
	}
	return s.store.Remove(ctx, id)
}

// Clear removes every finished job and reports how many were deleted.
func (s *JobService) Clear(ctx context.Context) (ClearResponse, error) {
	removed, err := s.store.ClearFinished(ctx)
	if err != nil {
		return ClearResponse{}, err
	}
	return ClearResponse{Removed: removed}, nil
}
