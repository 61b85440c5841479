package stages

import (
	"context"
	"log/slog"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/stage"
	"lectern/internal/textutil"
)

// Keywords extracts the top keyphrases from the cleaned transcript.
type Keywords struct {
	topN   int
	logger *slog.Logger
}

func NewKeywords(topN int, logger *slog.Logger) *Keywords {
	if topN <= 0 {
		topN = 10
	}
	return &Keywords{topN: topN, logger: logging.NewComponentLogger(logger, "keywords")}
}

func (k *Keywords) Label() string { return stage.LabelKeywordExtraction }

func (k *Keywords) Run(ctx context.Context, req stage.Request) (jobs.Delta, error) {
	cleaned, err := stage.RequireCleanedText(k.Label(), req)
	if err != nil {
		return jobs.Delta{}, err
	}

	keywords := textutil.Keywords(cleaned, k.topN)
	if keywords == nil {
		// Short texts legitimately yield nothing; record the empty result so
		// the field still reads as produced.
		keywords = []string{}
	}

	logging.WithContext(ctx, k.logger).Info("keywords extracted", logging.Int("count", len(keywords)))

	return jobs.Delta{Keywords: keywords}, nil
}
