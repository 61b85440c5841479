package llm

import (
	"context"
	"fmt"
	"strings"
)

// promptSnippetLimit caps how much transcript is sent for assessment
// generation. Lectures run long; the opening covers the material framing.
const promptSnippetLimit = 1200

// summarySystemPrompt instructs the model to condense a lecture transcript.
const summarySystemPrompt = `You are a lecture summarization assistant.
Condense the provided lecture transcript into a short summary written as
complete sentences separated by periods. Respond with JSON only, in the form:
{"summary": "<condensed summary text>"}`

// assessmentSystemPrompt instructs the model to produce study material.
const assessmentSystemPrompt = `You are a study material generator for lecture
transcripts. From the provided text, produce exactly 5 multiple choice
questions (each with 4 options and the correct answer), 3 short answer
questions with expected answers, and 5 flashcards. Respond with JSON only, in
the form:
{
  "mcqs": [{"question": "...", "options": ["...", "...", "...", "..."], "answer": "..."}],
  "short_answers": [{"question": "...", "expected_answer": "..."}],
  "flashcards": [{"question": "...", "answer": "..."}]
}`

// SummaryPayload is the JSON shape the summary prompt requests.
type SummaryPayload struct {
	Summary string `json:"summary"`
}

// MCQPayload is one multiple-choice question as returned by the model.
type MCQPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// ShortAnswerPayload is one short-answer prompt as returned by the model.
type ShortAnswerPayload struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expected_answer"`
}

// FlashcardPayload is one flashcard as returned by the model.
type FlashcardPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AssessmentPayload is the JSON shape the assessment prompt requests.
type AssessmentPayload struct {
	MCQs         []MCQPayload         `json:"mcqs"`
	ShortAnswers []ShortAnswerPayload `json:"short_answers"`
	Flashcards   []FlashcardPayload   `json:"flashcards"`
}

// Summarize condenses the lecture text into a short narrative summary.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	content, err := c.CompleteJSON(ctx, summarySystemPrompt, text)
	if err != nil {
		return "", err
	}
	var parsed SummaryPayload
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("llm summarize: parse payload: %w", err)
	}
	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		return "", fmt.Errorf("llm summarize: empty summary in payload")
	}
	return summary, nil
}

// GenerateAssessment produces quiz questions, short answers, and flashcards
// from the lecture text. Only the opening snippet is sent to the model.
func (c *Client) GenerateAssessment(ctx context.Context, text string) (AssessmentPayload, error) {
	var parsed AssessmentPayload
	content, err := c.CompleteJSON(ctx, assessmentSystemPrompt, Snippet(text))
	if err != nil {
		return parsed, err
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return parsed, fmt.Errorf("llm assessment: parse payload: %w", err)
	}
	return parsed, nil
}

// Snippet returns the prompt-sized prefix of text. The limit counts runes,
// not bytes, so a multi-byte character is never split mid-sequence.
func Snippet(text string) string {
	if len(text) <= promptSnippetLimit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= promptSnippetLimit {
		return text
	}
	return string(runes[:promptSnippetLimit])
}
