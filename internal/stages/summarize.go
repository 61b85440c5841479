package stages

import (
	"context"
	"log/slog"
	"strings"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/stage"
)

// minSummarizableLength matches the shortest text the summarizer will touch.
const minSummarizableLength = 50

// shortTextOverview is recorded verbatim for texts below the minimum.
const shortTextOverview = "Text too short to summarize."

// conceptMaxWords is the sentence length cutoff for the concepts list.
const conceptMaxWords = 8

// Summarizer is the language model dependency of the summarization stage.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Summarize condenses the cleaned transcript into an overview, key points,
// and short conceptual phrases.
type Summarize struct {
	svc    Summarizer
	logger *slog.Logger
}

func NewSummarize(svc Summarizer, logger *slog.Logger) *Summarize {
	return &Summarize{svc: svc, logger: logging.NewComponentLogger(logger, "summarize")}
}

func (s *Summarize) Label() string { return stage.LabelSummarization }

func (s *Summarize) Run(ctx context.Context, req stage.Request) (jobs.Delta, error) {
	cleaned, err := stage.RequireCleanedText(s.Label(), req)
	if err != nil {
		return jobs.Delta{}, err
	}

	if len(strings.TrimSpace(cleaned)) < minSummarizableLength {
		return jobs.Delta{Summary: &jobs.Summary{
			Overview:  shortTextOverview,
			KeyPoints: []string{},
			Concepts:  []string{},
		}}, nil
	}

	condensed, err := s.svc.Summarize(ctx, cleaned)
	if err != nil {
		return jobs.Delta{}, services.Wrap(services.ErrExternalTool, s.Label(), "generate summary", "language model request failed", err)
	}

	summary := structureSummary(condensed)
	if summary.Overview == "" {
		return jobs.Delta{}, services.Wrap(services.ErrValidation, s.Label(), "", "summary response contained no sentences", nil)
	}

	logging.WithContext(ctx, s.logger).Info("summarization complete",
		logging.Int("key_points", len(summary.KeyPoints)),
		logging.Int("concepts", len(summary.Concepts)))

	return jobs.Delta{Summary: summary}, nil
}

// structureSummary turns the condensed narrative into the structured form:
// the first three sentences become the overview, every sentence becomes a key
// point, and short sentences double as concepts.
func structureSummary(condensed string) *jobs.Summary {
	parts := strings.Split(condensed, ".")
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sentences = append(sentences, part)
	}

	summary := &jobs.Summary{
		KeyPoints: sentences,
		Concepts:  []string{},
	}
	if len(sentences) == 0 {
		summary.Overview = strings.TrimSpace(condensed)
		summary.KeyPoints = []string{}
		return summary
	}

	overviewCount := len(sentences)
	if overviewCount > 3 {
		overviewCount = 3
	}
	summary.Overview = strings.Join(sentences[:overviewCount], ". ") + "."

	for _, sentence := range sentences {
		if len(strings.Fields(sentence)) <= conceptMaxWords {
			summary.Concepts = append(summary.Concepts, sentence)
		}
	}
	return summary
}
