package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// StepQueued is the step label a job carries before any stage runs.
const StepQueued = "Queued"

// StepComplete is the step label recorded when the pipeline finishes.
const StepComplete = "Complete"

// InterruptedMessage is recorded on jobs found mid-flight after a restart.
const InterruptedMessage = "processing interrupted by daemon restart"

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusDone,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	if _, ok := statusSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// IsActive reports whether the job still owes work.
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusProcessing
}

var allowedTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusError},
	StatusProcessing: {StatusDone, StatusError},
}

// ValidateTransition checks that moving from one status to another follows the
// forward-only lifecycle. Terminal states accept no further transitions.
func ValidateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return nil
		}
	}
	return fmt.Errorf("invalid status transition %s -> %s", from, to)
}

// Input captures what the caller submitted. It never changes after creation.
type Input struct {
	FileName            string `json:"file_name"`
	AudioPath           string `json:"audio_path"`
	ContentType         string `json:"content_type,omitempty"`
	SizeBytes           int64  `json:"size_bytes,omitempty"`
	ReferenceTranscript string `json:"reference_transcript,omitempty"`
}

// Segment is a timed slice of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the raw speech recognition result.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Topic is a contiguous run of sentences covering one theme.
type Topic struct {
	Title     string   `json:"title"`
	Sentences []string `json:"sentences"`
}

// Summary condenses the cleaned transcript.
type Summary struct {
	Overview  string   `json:"overview"`
	KeyPoints []string `json:"key_points"`
	Concepts  []string `json:"concepts"`
}

// QuizQuestion is one multiple-choice item.
type QuizQuestion struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
}

// ShortAnswer is one free-response prompt with its expected answer.
type ShortAnswer struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expected_answer"`
	Difficulty     string `json:"difficulty"`
}

// Flashcard is one question/answer study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Assessment bundles the generated study material.
type Assessment struct {
	Quiz         []QuizQuestion `json:"quiz"`
	ShortAnswers []ShortAnswer  `json:"short_answers"`
	Flashcards   []Flashcard    `json:"flashcards"`
}

// Metrics holds the quality scores computed for a finished job. WER is nil
// when the submission carried no reference transcript to score against.
type Metrics struct {
	WER    *float64 `json:"wer"`
	Rouge1 float64  `json:"rouge_1"`
	RougeL float64  `json:"rouge_l"`
}

// Context accumulates stage outputs. Every field is write-once: a stage may
// fill a nil field, and no later stage may overwrite it.
type Context struct {
	Transcript  *Transcript `json:"transcript,omitempty"`
	CleanedText *string     `json:"cleaned_text,omitempty"`
	Keywords    []string    `json:"keywords,omitempty"`
	Topics      []Topic     `json:"topics,omitempty"`
	Summary     *Summary    `json:"summary,omitempty"`
	Assessment  *Assessment `json:"assessment,omitempty"`
	Metrics     *Metrics    `json:"metrics,omitempty"`
}

// Delta is the set of context fields a single stage produced. It shares the
// Context shape; nil fields mean "not produced by this stage".
type Delta = Context

// Merge folds a stage delta into the context, rejecting any attempt to
// overwrite a field that already holds a value.
func (c *Context) Merge(delta Delta) error {
	if delta.Transcript != nil {
		if c.Transcript != nil {
			return fmt.Errorf("context field %q already set", "transcript")
		}
		c.Transcript = delta.Transcript
	}
	if delta.CleanedText != nil {
		if c.CleanedText != nil {
			return fmt.Errorf("context field %q already set", "cleaned_text")
		}
		c.CleanedText = delta.CleanedText
	}
	if delta.Keywords != nil {
		if c.Keywords != nil {
			return fmt.Errorf("context field %q already set", "keywords")
		}
		c.Keywords = delta.Keywords
	}
	if delta.Topics != nil {
		if c.Topics != nil {
			return fmt.Errorf("context field %q already set", "topics")
		}
		c.Topics = delta.Topics
	}
	if delta.Summary != nil {
		if c.Summary != nil {
			return fmt.Errorf("context field %q already set", "summary")
		}
		c.Summary = delta.Summary
	}
	if delta.Assessment != nil {
		if c.Assessment != nil {
			return fmt.Errorf("context field %q already set", "assessment")
		}
		c.Assessment = delta.Assessment
	}
	if delta.Metrics != nil {
		if c.Metrics != nil {
			return fmt.Errorf("context field %q already set", "metrics")
		}
		c.Metrics = delta.Metrics
	}
	return nil
}

// Job is one unit of pipeline work persisted in SQLite.
type Job struct {
	ID           string
	Status       Status
	CurrentStep  string
	ErrorMessage string
	Input        Input
	Context      Context
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep enough copy for callers that mutate job fields. Slices
// and artifact pointers inside Context are shared; stages treat them as
// immutable once merged.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	return &cp
}

// Stats summarizes job counts per lifecycle state.
type Stats struct {
	Total      int
	Queued     int
	Processing int
	Done       int
	Errored    int
}
