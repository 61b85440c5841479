package pipeline_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/services"
	"lectern/internal/stage"
	"lectern/internal/stages"
	"lectern/internal/testsupport"
)

type fakeStage struct {
	label string
	run   func(ctx context.Context, req stage.Request) (jobs.Delta, error)
	calls int
}

func (f *fakeStage) Label() string { return f.label }

func (f *fakeStage) Run(ctx context.Context, req stage.Request) (jobs.Delta, error) {
	f.calls++
	if f.run == nil {
		return jobs.Delta{}, nil
	}
	return f.run(ctx, req)
}

func textDelta(text string) jobs.Delta {
	return jobs.Delta{CleanedText: &text}
}

func TestExecuteRunsAllStagesAndCompletes(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "lecture.mp3")

	first := &fakeStage{label: "Transcription", run: func(_ context.Context, req stage.Request) (jobs.Delta, error) {
		return jobs.Delta{Transcript: &jobs.Transcript{Text: "hello world"}}, nil
	}}
	second := &fakeStage{label: "Normalization", run: func(_ context.Context, req stage.Request) (jobs.Delta, error) {
		if req.Context.Transcript == nil {
			t.Error("second stage should see first stage output")
		}
		return textDelta("hello world"), nil
	}}

	orch := pipeline.New(store, []stage.Handler{first, second}, logging.NewNop())
	if err := orch.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.Status != jobs.StatusDone {
		t.Fatalf("expected done, got %s (%s)", final.Status, final.ErrorMessage)
	}
	if final.CurrentStep != jobs.StepComplete {
		t.Fatalf("expected Complete step, got %s", final.CurrentStep)
	}
	if final.Context.Transcript == nil || final.Context.CleanedText == nil {
		t.Fatalf("context incomplete: %+v", final.Context)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("unexpected call counts: %d %d", first.calls, second.calls)
	}
}

func TestExecuteStageFailureRecordsErrorAndStops(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "lecture.mp3")

	failing := &fakeStage{label: "Transcription", run: func(context.Context, stage.Request) (jobs.Delta, error) {
		return jobs.Delta{}, services.Wrap(services.ErrValidation, "Transcription", "", "no speech recognized in audio", nil)
	}}
	never := &fakeStage{label: "Normalization"}

	orch := pipeline.New(store, []stage.Handler{failing, never}, logging.NewNop())
	if err := orch.Execute(context.Background(), job.ID); err == nil {
		t.Fatal("expected error")
	}

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if final.CurrentStep != "Transcription" {
		t.Fatalf("current step should stay at failing stage, got %s", final.CurrentStep)
	}
	if final.ErrorMessage != "Transcription: no speech recognized in audio" {
		t.Fatalf("unexpected error message: %q", final.ErrorMessage)
	}
	if never.calls != 0 {
		t.Fatal("later stage should not run after failure")
	}
}

func TestExecutePersistsStepBeforeStageRuns(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "lecture.mp3")

	var observedStep string
	inspector := &fakeStage{label: "Keyword Extraction", run: func(ctx context.Context, req stage.Request) (jobs.Delta, error) {
		current, err := store.Get(ctx, req.JobID)
		if err != nil {
			return jobs.Delta{}, err
		}
		observedStep = current.CurrentStep
		return jobs.Delta{Keywords: []string{"graphs"}}, nil
	}}

	orch := pipeline.New(store, []stage.Handler{inspector}, logging.NewNop())
	if err := orch.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if observedStep != "Keyword Extraction" {
		t.Fatalf("step not persisted before stage ran: %q", observedStep)
	}
}

func TestExecuteRejectsContextOverwrite(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "lecture.mp3")

	first := &fakeStage{label: "Normalization", run: func(context.Context, stage.Request) (jobs.Delta, error) {
		return textDelta("first"), nil
	}}
	overwriter := &fakeStage{label: "Summarization", run: func(context.Context, stage.Request) (jobs.Delta, error) {
		return textDelta("second"), nil
	}}

	orch := pipeline.New(store, []stage.Handler{first, overwriter}, logging.NewNop())
	if err := orch.Execute(context.Background(), job.ID); err == nil {
		t.Fatal("expected overwrite to fail the pipeline")
	}

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if final.Context.CleanedText == nil || *final.Context.CleanedText != "first" {
		t.Fatalf("original context value lost: %+v", final.Context)
	}
}

func TestExecuteRecoversStagePanic(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "lecture.mp3")

	panicking := &fakeStage{label: "Transcription", run: func(context.Context, stage.Request) (jobs.Delta, error) {
		panic("boom")
	}}

	orch := pipeline.New(store, []stage.Handler{panicking}, logging.NewNop())
	if err := orch.Execute(context.Background(), job.ID); err == nil {
		t.Fatal("expected panic to surface as error")
	}

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
}

func TestExecuteSkipsTerminalJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "lecture.mp3")

	ctx := context.Background()
	if _, err := store.Update(ctx, job.ID, func(j *jobs.Job) error {
		j.Status = jobs.StatusError
		j.ErrorMessage = "already failed"
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	untouched := &fakeStage{label: "Transcription"}
	orch := pipeline.New(store, []stage.Handler{untouched}, logging.NewNop())
	if err := orch.Execute(ctx, job.ID); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if untouched.calls != 0 {
		t.Fatal("stages should not run for a terminal job")
	}
}

func TestExecuteUnknownJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	orch := pipeline.New(store, nil, logging.NewNop())

	err := orch.Execute(context.Background(), "missing")
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExecuteLifecycleEdgesUnderInjectedFailures(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rng := rand.New(rand.NewSource(1))
	labels := stage.Labels()

	for round := 0; round < 20; round++ {
		job := testsupport.NewJob(t, store, "lecture.mp3")
		// len(labels) means no stage fails this round.
		failAt := rng.Intn(len(labels) + 1)

		var observed []jobs.Status
		handlers := make([]stage.Handler, len(labels))
		for i, label := range labels {
			index := i
			handlers[i] = &fakeStage{label: label, run: func(ctx context.Context, req stage.Request) (jobs.Delta, error) {
				current, err := store.Get(ctx, req.JobID)
				if err != nil {
					return jobs.Delta{}, err
				}
				observed = append(observed, current.Status)
				if index == failAt {
					return jobs.Delta{}, services.Wrap(services.ErrExternalTool, labels[index], "", "injected failure", nil)
				}
				return jobs.Delta{}, nil
			}}
		}

		orch := pipeline.New(store, handlers, logging.NewNop())
		execErr := orch.Execute(context.Background(), job.ID)

		final, err := store.Get(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("round %d: Get: %v", round, err)
		}
		if failAt < len(labels) {
			if execErr == nil || final.Status != jobs.StatusError {
				t.Fatalf("round %d: failure at %q should end in error, got %v / %s", round, labels[failAt], execErr, final.Status)
			}
			if len(observed) != failAt+1 {
				t.Fatalf("round %d: stages kept running after failure at %q: %d ran", round, labels[failAt], len(observed))
			}
		} else {
			if execErr != nil || final.Status != jobs.StatusDone {
				t.Fatalf("round %d: expected done, got %v / %s", round, execErr, final.Status)
			}
		}

		sequence := append([]jobs.Status{jobs.StatusQueued}, observed...)
		sequence = append(sequence, final.Status)
		for i := 1; i < len(sequence); i++ {
			if err := jobs.ValidateTransition(sequence[i-1], sequence[i]); err != nil {
				t.Fatalf("round %d: illegal lifecycle edge %s -> %s: %v", round, sequence[i-1], sequence[i], err)
			}
		}
	}
}

func TestExecuteEmptyTranscriptFailsNormalization(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "lecture.mp3")

	transcriber := &fakeStage{label: "Transcription", run: func(context.Context, stage.Request) (jobs.Delta, error) {
		return jobs.Delta{Transcript: &jobs.Transcript{Text: "   "}}, nil
	}}
	never := &fakeStage{label: "Keyword Extraction"}

	orch := pipeline.New(store, []stage.Handler{
		transcriber,
		stages.NewNormalize(logging.NewNop()),
		never,
	}, logging.NewNop())

	execErr := orch.Execute(context.Background(), job.ID)
	if execErr == nil {
		t.Fatal("expected pipeline failure")
	}
	if !services.IsPrecondition(execErr) {
		t.Fatalf("expected precondition error, got %v", execErr)
	}

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if final.CurrentStep != "Normalization" {
		t.Fatalf("expected failure at Normalization, got %s", final.CurrentStep)
	}
	want := `Normalization: required context field "transcript" is missing or empty`
	if final.ErrorMessage != want {
		t.Fatalf("unexpected error message: %q", final.ErrorMessage)
	}
	if final.Context.Transcript == nil {
		t.Fatal("transcript from the completed stage should be retained")
	}
	if final.Context.CleanedText != nil || final.Context.Keywords != nil {
		t.Fatalf("artifacts past the failure must stay empty: %+v", final.Context)
	}
	if never.calls != 0 {
		t.Fatal("stages after the failure must not run")
	}
}
