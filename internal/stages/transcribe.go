package stages

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/services/whisper"
	"lectern/internal/stage"
)

// Transcriber is the speech recognition dependency of the transcription stage.
type Transcriber interface {
	Transcribe(ctx context.Context, source, workDir string) (whisper.Result, error)
}

// Transcribe runs speech recognition on the uploaded audio file.
type Transcribe struct {
	svc      Transcriber
	workRoot string
	logger   *slog.Logger
}

// NewTranscribe constructs the transcription stage. workRoot holds per-job
// scratch directories for WAV extraction and WhisperX output.
func NewTranscribe(svc Transcriber, workRoot string, logger *slog.Logger) *Transcribe {
	return &Transcribe{
		svc:      svc,
		workRoot: workRoot,
		logger:   logging.NewComponentLogger(logger, "transcribe"),
	}
}

func (t *Transcribe) Label() string { return stage.LabelTranscription }

func (t *Transcribe) Run(ctx context.Context, req stage.Request) (jobs.Delta, error) {
	source := strings.TrimSpace(req.Input.AudioPath)
	if source == "" {
		return jobs.Delta{}, services.Wrap(services.ErrValidation, t.Label(), "", "job input has no audio path", nil)
	}
	if _, err := os.Stat(source); err != nil {
		return jobs.Delta{}, services.Wrap(services.ErrValidation, t.Label(), "stat audio file", "uploaded file is missing", err)
	}

	workDir := filepath.Join(t.workRoot, req.JobID)
	result, err := t.svc.Transcribe(ctx, source, workDir)
	if err != nil {
		return jobs.Delta{}, services.Wrap(services.ErrExternalTool, t.Label(), "run whisperx", "speech recognition failed", err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return jobs.Delta{}, services.Wrap(services.ErrValidation, t.Label(), "", "no speech recognized in audio", nil)
	}

	transcript := &jobs.Transcript{
		Text:     strings.TrimSpace(result.Text),
		Language: result.Language,
		Segments: make([]jobs.Segment, 0, len(result.Segments)),
	}
	for _, seg := range result.Segments {
		transcript.Segments = append(transcript.Segments, jobs.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	logging.WithContext(ctx, t.logger).Info("transcription complete",
		logging.Int("segments", len(transcript.Segments)),
		logging.String("language", transcript.Language))

	return jobs.Delta{Transcript: transcript}, nil
}
