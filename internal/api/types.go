package api

import "time"

// SubmitResponse acknowledges an accepted upload.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatus is the polling view of a job.
type JobStatus struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	CurrentStep string    `json:"current_step"`
	Error       string    `json:"error,omitempty"`
	FileName    string    `json:"file_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobListResponse wraps the job listing.
type JobListResponse struct {
	Jobs []JobStatus `json:"jobs"`
}

// SegmentView is one timed transcript segment.
type SegmentView struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptView carries the raw recognition result.
type TranscriptView struct {
	Text     string        `json:"text"`
	Language string        `json:"language,omitempty"`
	Segments []SegmentView `json:"segments,omitempty"`
}

// TopicView is one topically coherent section.
type TopicView struct {
	Title     string   `json:"title"`
	Sentences []string `json:"sentences"`
}

// SummaryView is the structured summary.
type SummaryView struct {
	Overview  string   `json:"overview"`
	KeyPoints []string `json:"key_points"`
	Concepts  []string `json:"important_concepts"`
}

// QuizQuestionView is one multiple-choice item.
type QuizQuestionView struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
}

// ShortAnswerView is one free-response prompt.
type ShortAnswerView struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expected_answer"`
	Difficulty     string `json:"difficulty"`
}

// FlashcardView is one study card.
type FlashcardView struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AssessmentView bundles the generated study material.
type AssessmentView struct {
	Quiz         []QuizQuestionView `json:"quiz"`
	ShortAnswers []ShortAnswerView  `json:"short_answers"`
	Flashcards   []FlashcardView    `json:"flashcards"`
}

// MetricsView reports quality scores. WER is null without a reference
// transcript.
type MetricsView struct {
	WER    *float64 `json:"wer"`
	Rouge1 float64  `json:"rouge1"`
	RougeL float64  `json:"rougeL"`
}

// JobResults is the full artifact view served once a job is terminal.
type JobResults struct {
	JobStatus
	Transcript  *TranscriptView `json:"transcript,omitempty"`
	CleanedText string          `json:"cleaned_text,omitempty"`
	Keywords    []string        `json:"keywords,omitempty"`
	Topics      []TopicView     `json:"topics,omitempty"`
	Summary     *SummaryView    `json:"summary,omitempty"`
	Assessment  *AssessmentView `json:"assessment,omitempty"`
	Metrics     *MetricsView    `json:"metrics,omitempty"`
}

// QueueStats summarizes job counts per lifecycle state.
type QueueStats struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Done       int `json:"done"`
	Errored    int `json:"error"`
}

// CollaboratorHealth reports the readiness of one external dependency the
// pipeline calls out to.
type CollaboratorHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus is the health view of the running daemon.
type DaemonStatus struct {
	Running     bool                 `json:"running"`
	PID         int                  `json:"pid"`
	JobDBPath   string               `json:"job_db_path"`
	QueueDepth  int                  `json:"queue_depth"`
	ActiveJobs  int                  `json:"active_jobs"`
	Stats       QueueStats           `json:"stats"`
	StageLabels []string             `json:"stage_labels"`
	Health      []CollaboratorHealth `json:"health,omitempty"`
}

// ClearResponse reports how many finished jobs were removed.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}
