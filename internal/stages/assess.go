package stages

import (
	"context"
	"log/slog"
	"strings"

	"lectern/internal/jobs"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/services/llm"
	"lectern/internal/stage"
)

const (
	maxQuizQuestions = 5
	maxShortAnswers  = 3
	maxFlashcards    = 5
)

var difficultyLabels = []string{"Easy", "Medium", "Hard"}

// AssessmentGenerator is the language model dependency of the assessment stage.
type AssessmentGenerator interface {
	GenerateAssessment(ctx context.Context, text string) (llm.AssessmentPayload, error)
}

// Assess generates quiz questions, short answer prompts, and flashcards from
// the cleaned transcript.
type Assess struct {
	svc    AssessmentGenerator
	logger *slog.Logger
}

func NewAssess(svc AssessmentGenerator, logger *slog.Logger) *Assess {
	return &Assess{svc: svc, logger: logging.NewComponentLogger(logger, "assess")}
}

func (a *Assess) Label() string { return stage.LabelAssessmentGeneration }

func (a *Assess) Run(ctx context.Context, req stage.Request) (jobs.Delta, error) {
	cleaned, err := stage.RequireCleanedText(a.Label(), req)
	if err != nil {
		return jobs.Delta{}, err
	}

	payload, err := a.svc.GenerateAssessment(ctx, cleaned)
	if err != nil {
		return jobs.Delta{}, services.Wrap(services.ErrExternalTool, a.Label(), "generate assessment", "language model request failed", err)
	}

	assessment := buildAssessment(payload)
	if len(assessment.Quiz) == 0 && len(assessment.ShortAnswers) == 0 && len(assessment.Flashcards) == 0 {
		return jobs.Delta{}, services.Wrap(services.ErrValidation, a.Label(), "", "assessment response contained no usable items", nil)
	}

	logging.WithContext(ctx, a.logger).Info("assessment generated",
		logging.Int("quiz", len(assessment.Quiz)),
		logging.Int("short_answers", len(assessment.ShortAnswers)),
		logging.Int("flashcards", len(assessment.Flashcards)))

	return jobs.Delta{Assessment: assessment}, nil
}

// assignDifficulty cycles through Easy/Medium/Hard for variety.
func assignDifficulty(index int) string {
	return difficultyLabels[index%len(difficultyLabels)]
}

func buildAssessment(payload llm.AssessmentPayload) *jobs.Assessment {
	assessment := &jobs.Assessment{
		Quiz:         []jobs.QuizQuestion{},
		ShortAnswers: []jobs.ShortAnswer{},
		Flashcards:   []jobs.Flashcard{},
	}

	for i, mcq := range payload.MCQs {
		if i >= maxQuizQuestions {
			break
		}
		question := strings.TrimSpace(mcq.Question)
		if question == "" {
			continue
		}
		assessment.Quiz = append(assessment.Quiz, jobs.QuizQuestion{
			Question:   question,
			Options:    trimAll(mcq.Options),
			Answer:     strings.TrimSpace(mcq.Answer),
			Difficulty: assignDifficulty(len(assessment.Quiz)),
		})
	}

	for i, sa := range payload.ShortAnswers {
		if i >= maxShortAnswers {
			break
		}
		question := strings.TrimSpace(sa.Question)
		if question == "" {
			continue
		}
		// Short answer difficulty starts one step past the quiz cycle.
		assessment.ShortAnswers = append(assessment.ShortAnswers, jobs.ShortAnswer{
			Question:       question,
			ExpectedAnswer: strings.TrimSpace(sa.ExpectedAnswer),
			Difficulty:     assignDifficulty(len(assessment.ShortAnswers) + 1),
		})
	}

	for i, card := range payload.Flashcards {
		if i >= maxFlashcards {
			break
		}
		front := strings.TrimSpace(card.Question)
		if front == "" {
			continue
		}
		assessment.Flashcards = append(assessment.Flashcards, jobs.Flashcard{
			Front: front,
			Back:  strings.TrimSpace(card.Answer),
		})
	}

	return assessment
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		trimmed = append(trimmed, value)
	}
	return trimmed
}
