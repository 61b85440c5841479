package stages

import (
	"context"
	"fmt"
	"log/slog"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/stage"
	"lectern/internal/textutil"
)

// Segments splits the cleaned transcript into topically coherent sections by
// comparing term-frequency fingerprints of consecutive sentences.
type Segments struct {
	threshold float64
	logger    *slog.Logger
}

func NewSegments(threshold float64, logger *slog.Logger) *Segments {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.40
	}
	return &Segments{threshold: threshold, logger: logging.NewComponentLogger(logger, "segments")}
}

func (s *Segments) Label() string { return stage.LabelTopicSegmentation }

func (s *Segments) Run(ctx context.Context, req stage.Request) (jobs.Delta, error) {
	cleaned, err := stage.RequireCleanedText(s.Label(), req)
	if err != nil {
		return jobs.Delta{}, err
	}

	sentences := textutil.SplitSentences(cleaned)
	if len(sentences) == 0 {
		return jobs.Delta{Topics: []jobs.Topic{{Title: "Topic 1", Sentences: []string{cleaned}}}}, nil
	}

	var groups [][]string
	current := []string{sentences[0]}
	prev := textutil.NewFingerprint(sentences[0])

	for _, sentence := range sentences[1:] {
		curr := textutil.NewFingerprint(sentence)
		if textutil.CosineSimilarity(prev, curr) < s.threshold {
			// Topic shift detected, close the current segment.
			groups = append(groups, current)
			current = []string{sentence}
		} else {
			current = append(current, sentence)
		}
		prev = curr
	}
	groups = append(groups, current)

	topics := make([]jobs.Topic, 0, len(groups))
	for i, group := range groups {
		topics = append(topics, jobs.Topic{
			Title:     fmt.Sprintf("Topic %d", i+1),
			Sentences: group,
		})
	}

	logging.WithContext(ctx, s.logger).Info("topic segmentation complete",
		logging.Int("sentences", len(sentences)),
		logging.Int("topics", len(topics)))

	return jobs.Delta{Topics: topics}, nil
}
