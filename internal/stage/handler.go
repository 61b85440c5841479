package stage

import (
	"context"

	"lectern/internal/jobs"
)

// Request is the read-only view of a job a stage receives: the immutable
// input plus every context field earlier stages produced.
type Request struct {
	JobID   string
	Input   jobs.Input
	Context jobs.Context
}

// Handler describes the contract the pipeline needs from each stage. Run
// returns only the context fields this stage produced; the caller merges
// them into the job.
type Handler interface {
	Label() string
	Run(ctx context.Context, req Request) (jobs.Delta, error)
}
