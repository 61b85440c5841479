package stages

import (
	"log/slog"
	"path/filepath"

	"lectern/internal/config"
	"lectern/internal/stage"
)

// Dependencies bundles the external services the stages need.
type Dependencies struct {
	Transcriber Transcriber
	Summarizer  Summarizer
	Assessor    AssessmentGenerator
}

// Pipeline builds the seven stage handlers in their fixed execution order.
func Pipeline(cfg *config.Config, deps Dependencies, logger *slog.Logger) []stage.Handler {
	workRoot := filepath.Join(cfg.Paths.DataDir, "work")
	return []stage.Handler{
		NewTranscribe(deps.Transcriber, workRoot, logger),
		NewNormalize(logger),
		NewKeywords(cfg.Pipeline.KeywordTopN, logger),
		NewSegments(cfg.Pipeline.TopicSimilarityThreshold, logger),
		NewSummarize(deps.Summarizer, logger),
		NewAssess(deps.Assessor, logger),
		NewEvaluate(logger),
	}
}
