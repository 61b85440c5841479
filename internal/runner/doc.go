// Package runner schedules pipeline executions over a bounded worker pool.
// Submissions never block; overflow waits in arrival order and each job id
// is single-flight until its run completes.
package runner
