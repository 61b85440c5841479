package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lectern/internal/logging"
)

type blockingExecutor struct {
	mu      sync.Mutex
	order   []string
	release chan struct{}
}

func newBlockingExecutor() *blockingExecutor {
	return &blockingExecutor{release: make(chan struct{})}
}

func (e *blockingExecutor) Execute(ctx context.Context, jobID string) error {
	e.mu.Lock()
	e.order = append(e.order, jobID)
	e.mu.Unlock()
	select {
	case <-e.release:
	case <-ctx.Done():
	}
	return nil
}

func (e *blockingExecutor) executed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]string, len(e.order))
	copy(cp, e.order)
	return cp
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSubmitDoesNotBlockWhenPoolIsFull(t *testing.T) {
	exec := newBlockingExecutor()
	r := New(exec, 1, logging.NewNop())
	r.Start(context.Background())
	defer r.Stop()

	if err := r.Submit("job-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, time.Second, func() bool { return len(exec.executed()) == 1 })

	done := make(chan error, 1)
	go func() { done <- r.Submit("job-2") }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Submit blocked with a full pool")
	}

	if depth := r.QueueDepth(); depth != 1 {
		t.Fatalf("expected 1 pending job, got %d", depth)
	}

	close(exec.release)
	waitFor(t, time.Second, func() bool { return len(exec.executed()) == 2 })
}

func TestOverflowRunsInArrivalOrder(t *testing.T) {
	exec := newBlockingExecutor()
	r := New(exec, 1, logging.NewNop())
	r.Start(context.Background())
	defer r.Stop()

	if err := r.Submit("job-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, time.Second, func() bool { return len(exec.executed()) == 1 })
	for _, id := range []string{"job-2", "job-3", "job-4"} {
		if err := r.Submit(id); err != nil {
			t.Fatalf("Submit %s: %v", id, err)
		}
	}

	close(exec.release)
	waitFor(t, time.Second, func() bool { return len(exec.executed()) == 4 })

	want := []string{"job-1", "job-2", "job-3", "job-4"}
	got := exec.executed()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected FIFO order %v, got %v", want, got)
		}
	}
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	exec := newBlockingExecutor()
	r := New(exec, 1, logging.NewNop())
	r.Start(context.Background())
	defer r.Stop()

	if err := r.Submit("job-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := r.Submit("job-1"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	close(exec.release)
	waitFor(t, time.Second, func() bool { return r.ActiveWorkers() == 0 })

	// After the run completes the id may be submitted again.
	if err := r.Submit("job-1"); err != nil {
		t.Fatalf("resubmit after completion: %v", err)
	}
}

func TestSubmitBeforeStartFails(t *testing.T) {
	r := New(newBlockingExecutor(), 1, logging.NewNop())
	if err := r.Submit("job-1"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestStopCancelsInflightAndRejectsNewWork(t *testing.T) {
	exec := newBlockingExecutor()
	r := New(exec, 1, logging.NewNop())
	r.Start(context.Background())

	if err := r.Submit("job-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, time.Second, func() bool { return len(exec.executed()) == 1 })

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not drain")
	}

	if err := r.Submit("job-2"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted after Stop, got %v", err)
	}
}

type panickyExecutor struct{}

func (panickyExecutor) Execute(context.Context, string) error { panic("boom") }

func TestWorkerSurvivesExecutorPanic(t *testing.T) {
	r := New(panickyExecutor{}, 1, logging.NewNop())
	r.Start(context.Background())
	defer r.Stop()

	if err := r.Submit("job-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, time.Second, func() bool { return r.ActiveWorkers() == 0 })

	// Pool must still accept and run work.
	if err := r.Submit("job-2"); err != nil {
		t.Fatalf("Submit after panic: %v", err)
	}
	waitFor(t, time.Second, func() bool { return r.ActiveWorkers() == 0 })
}
