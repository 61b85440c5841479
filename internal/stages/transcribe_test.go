package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/services/whisper"
	"lectern/internal/stage"
)

type stubTranscriber struct {
	result whisper.Result
	err    error
	calls  int
}

func (s *stubTranscriber) Transcribe(_ context.Context, _, _ string) (whisper.Result, error) {
	s.calls++
	return s.result, s.err
}

func writeAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lecture.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestTranscribeProducesTranscript(t *testing.T) {
	svc := &stubTranscriber{result: whisper.Result{
		Text:     "Hello class. Today we cover graphs.",
		Language: "en",
		Segments: []whisper.Segment{{Text: " Hello class. ", Start: 0, End: 2}},
	}}
	handler := NewTranscribe(svc, t.TempDir(), logging.NewNop())

	delta, err := handler.Run(context.Background(), stage.Request{
		JobID: "job-1",
		Input: jobsInput(writeAudioFile(t)),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if delta.Transcript == nil || delta.Transcript.Text != "Hello class. Today we cover graphs." {
		t.Fatalf("unexpected delta: %+v", delta)
	}
	if delta.Transcript.Segments[0].Text != "Hello class." {
		t.Fatalf("segment text not trimmed: %q", delta.Transcript.Segments[0].Text)
	}
	if svc.calls != 1 {
		t.Fatalf("expected 1 transcriber call, got %d", svc.calls)
	}
}

func TestTranscribeMissingAudioPath(t *testing.T) {
	handler := NewTranscribe(&stubTranscriber{}, t.TempDir(), logging.NewNop())
	_, err := handler.Run(context.Background(), stage.Request{JobID: "job-1"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	handler := NewTranscribe(&stubTranscriber{}, t.TempDir(), logging.NewNop())
	_, err := handler.Run(context.Background(), stage.Request{
		JobID: "job-1",
		Input: jobsInput("/nonexistent/file.mp3"),
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranscribeToolFailure(t *testing.T) {
	svc := &stubTranscriber{err: errors.New("whisperx exploded")}
	handler := NewTranscribe(svc, t.TempDir(), logging.NewNop())
	_, err := handler.Run(context.Background(), stage.Request{
		JobID: "job-1",
		Input: jobsInput(writeAudioFile(t)),
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranscribeEmptySpeech(t *testing.T) {
	svc := &stubTranscriber{result: whisper.Result{Text: "   "}}
	handler := NewTranscribe(svc, t.TempDir(), logging.NewNop())
	_, err := handler.Run(context.Background(), stage.Request{
		JobID: "job-1",
		Input: jobsInput(writeAudioFile(t)),
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty speech, got %v", err)
	}
}
