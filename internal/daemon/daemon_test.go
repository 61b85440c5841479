package daemon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/stage"
	"lectern/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if addr := d.Addr(); addr == "" || addr == "127.0.0.1:0" {
		t.Fatalf("expected bound address, got %q", addr)
	}

	status := d.Status(context.Background())
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.PID <= 0 {
		t.Fatalf("unexpected pid: %d", status.PID)
	}
	if len(d.StageLabels()) != 7 {
		t.Fatalf("expected 7 stage labels, got %d", len(d.StageLabels()))
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("expected stopped status")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)

	first, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to start")
	}
}

func TestDaemonRecoversInterruptedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	interrupted := testsupport.NewJob(t, store, "interrupted.mp3")
	if _, err := store.Update(ctx, interrupted.ID, func(j *jobs.Job) error {
		j.Status = jobs.StatusProcessing
		j.CurrentStep = "Transcription"
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	job, err := store.Get(ctx, interrupted.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusError {
		t.Fatalf("expected interrupted job marked error, got %s", job.Status)
	}
	if job.ErrorMessage != jobs.InterruptedMessage {
		t.Fatalf("unexpected error message: %q", job.ErrorMessage)
	}
}

func TestDaemonResubmitsQueuedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// Queued job whose audio file is gone. The resubmitted run must fail the
	// job rather than leave it queued forever.
	queued := testsupport.NewJob(t, store, "missing.mp3")

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(ctx, queued.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if job.Status.IsTerminal() {
			if job.Status != jobs.StatusError {
				t.Fatalf("expected error status, got %s", job.Status)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("resubmitted job never reached a terminal state")
}

func TestDaemonHealthAllCollaboratorsReady(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`)
	}))
	defer llmSrv.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithLLMBaseURL(llmSrv.URL),
	)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	checks := d.Health(context.Background())
	if len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(checks))
	}
	for _, check := range checks {
		if !check.Ready {
			t.Errorf("%s not ready: %s", check.Name, check.Detail)
		}
	}
}

func TestDaemonHealthReportsLLMFailure(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"ok\":false}"}}]}`)
	}))
	defer llmSrv.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithLLMBaseURL(llmSrv.URL),
	)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	var llmCheck *stage.Health
	for _, check := range d.Health(context.Background()) {
		if check.Name == "llm" {
			c := check
			llmCheck = &c
		}
	}
	if llmCheck == nil {
		t.Fatal("missing llm check")
	}
	if llmCheck.Ready {
		t.Fatal("llm check should be unhealthy")
	}
	if llmCheck.Detail == "" {
		t.Fatal("unhealthy check should carry detail")
	}
}
