package services_test

import (
	"errors"
	"testing"

	"lectern/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "Transcription", "run whisperx", "exit status 1", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if got := services.Message(err); got != "Transcription: run whisperx: exit status 1" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestWrapNilMarkerFallsBackToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", errors.New("boom"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestPrecondition(t *testing.T) {
	err := services.Precondition("Normalization", "transcript")
	if !services.IsPrecondition(err) {
		t.Fatalf("expected precondition classification, got %v", err)
	}
	if got := services.Message(err); got == "" || got == err.Error() {
		t.Fatalf("expected stripped message, got %q", got)
	}
}

func TestMessagePassthrough(t *testing.T) {
	if got := services.Message(errors.New("plain failure")); got != "plain failure" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := services.Message(nil); got != "" {
		t.Fatalf("expected empty message for nil error, got %q", got)
	}
}
