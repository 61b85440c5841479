package stages

import (
	"context"
	"log/slog"
	"strings"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/stage"
	"lectern/internal/textutil"
)

// Evaluate computes quality metrics for the finished pipeline: WER against an
// optional reference transcript, and ROUGE between the cleaned text and the
// generated key points.
type Evaluate struct {
	logger *slog.Logger
}

func NewEvaluate(logger *slog.Logger) *Evaluate {
	return &Evaluate{logger: logging.NewComponentLogger(logger, "evaluate")}
}

func (e *Evaluate) Label() string { return stage.LabelEvaluation }

func (e *Evaluate) Run(ctx context.Context, req stage.Request) (jobs.Delta, error) {
	cleaned, err := stage.RequireCleanedText(e.Label(), req)
	if err != nil {
		return jobs.Delta{}, err
	}
	summary, err := stage.RequireSummary(e.Label(), req)
	if err != nil {
		return jobs.Delta{}, err
	}

	metrics := &jobs.Metrics{}

	// WER needs ground truth; without a reference it stays nil rather than
	// reporting a misleading zero.
	if reference := strings.TrimSpace(req.Input.ReferenceTranscript); reference != "" {
		wer := textutil.WordErrorRate(reference, cleaned)
		metrics.WER = &wer
	}

	summaryText := strings.Join(summary.KeyPoints, " ")
	metrics.Rouge1, metrics.RougeL = textutil.RougeScores(cleaned, summaryText)

	fields := []logging.Attr{
		logging.Float64("rouge_1", metrics.Rouge1),
		logging.Float64("rouge_l", metrics.RougeL),
	}
	if metrics.WER != nil {
		fields = append(fields, logging.Float64("wer", *metrics.WER))
	}
	logging.WithContext(ctx, e.logger).Info("evaluation complete", logging.Args(fields...)...)

	return jobs.Delta{Metrics: metrics}, nil
}
