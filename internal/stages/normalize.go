package stages

import (
	"context"
	"log/slog"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/stage"
	"lectern/internal/textutil"
)

// Normalize strips filler words from the raw transcript and collapses
// whitespace, producing the cleaned text every later stage works from.
type Normalize struct {
	logger *slog.Logger
}

func NewNormalize(logger *slog.Logger) *Normalize {
	return &Normalize{logger: logging.NewComponentLogger(logger, "normalize")}
}

func (n *Normalize) Label() string { return stage.LabelNormalization }

func (n *Normalize) Run(ctx context.Context, req stage.Request) (jobs.Delta, error) {
	transcript, err := stage.RequireTranscript(n.Label(), req)
	if err != nil {
		return jobs.Delta{}, err
	}

	cleaned := textutil.CleanTranscript(transcript.Text)
	if cleaned == "" {
		return jobs.Delta{}, services.Wrap(services.ErrValidation, n.Label(), "", "transcript contains no content after filler removal", nil)
	}

	logging.WithContext(ctx, n.logger).Info("transcript normalized",
		logging.Int("raw_chars", len(transcript.Text)),
		logging.Int("cleaned_chars", len(cleaned)))

	return jobs.Delta{CleanedText: &cleaned}, nil
}
