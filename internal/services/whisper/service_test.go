package whisper

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTranscribeRunsExtractThenWhisperX(t *testing.T) {
	workDir := t.TempDir()
	source := filepath.Join(workDir, "lecture.mp3")
	if err := os.WriteFile(source, []byte("fake audio"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	svc := NewService(Config{Model: "base"}, "ffmpeg")
	var commands [][]string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		commands = append(commands, append([]string{name}, args...))
		if name == UVXCommand {
			payload := Payload{
				Language: "en",
				Segments: []Segment{
					{Text: " Hello class. ", Start: 0, End: 2.5},
					{Text: "Today we cover graphs.", Start: 2.5, End: 5},
				},
			}
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(workDir, "lecture.json"), data, 0o644)
		}
		return nil
	})

	result, err := svc.Transcribe(context.Background(), source, workDir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "Hello class. Today we cover graphs." {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Language != "en" {
		t.Fatalf("unexpected language: %q", result.Language)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}

	if len(commands) != 2 {
		t.Fatalf("expected ffmpeg then uvx, got %v", commands)
	}
	if commands[0][0] != "ffmpeg" {
		t.Fatalf("expected ffmpeg first, got %v", commands[0])
	}
	if commands[1][0] != UVXCommand {
		t.Fatalf("expected uvx second, got %v", commands[1])
	}
}

func TestTranscribeRequiresSource(t *testing.T) {
	svc := NewService(Config{}, "")
	if _, err := svc.Transcribe(context.Background(), "", t.TempDir()); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestBuildArgsCPUDefaults(t *testing.T) {
	svc := NewService(Config{}, "")
	joined := strings.Join(svc.buildArgs("/tmp/a.wav", "/tmp/out"), " ")

	for _, want := range []string{"whisperx", "--model base", "--device cpu", "--compute_type float32", "--output_format json"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in args: %v", want, joined)
		}
	}
}

func TestBuildArgsCUDA(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, Model: "large-v3"}, "")
	joined := strings.Join(svc.buildArgs("/tmp/a.wav", "/tmp/out"), " ")

	if !strings.Contains(joined, "--device cuda") || !strings.Contains(joined, "--model large-v3") {
		t.Fatalf("unexpected args: %v", joined)
	}
}
