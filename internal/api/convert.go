package api

import (
	"lectern/internal/jobs"
	"lectern/internal/stage"
)

// FromJob converts a job record to its status view.
func FromJob(job *jobs.Job) JobStatus {
	if job == nil {
		return JobStatus{}
	}
	return JobStatus{
		ID:          job.ID,
		Status:      string(job.Status),
		CurrentStep: job.CurrentStep,
		Error:       job.ErrorMessage,
		FileName:    job.Input.FileName,
		CreatedAt:   job.CreatedAt.UTC(),
		UpdatedAt:   job.UpdatedAt.UTC(),
	}
}

// FromJobs converts a slice of job records into status views.
func FromJobs(list []*jobs.Job) []JobStatus {
	if len(list) == 0 {
		return nil
	}
	out := make([]JobStatus, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// ResultsFromJob converts a terminal job into the full artifact view.
func ResultsFromJob(job *jobs.Job) JobResults {
	if job == nil {
		return JobResults{}
	}
	results := JobResults{JobStatus: FromJob(job)}

	ctx := job.Context
	if ctx.Transcript != nil {
		results.Transcript = transcriptView(ctx.Transcript)
	}
	if ctx.CleanedText != nil {
		results.CleanedText = *ctx.CleanedText
	}
	results.Keywords = ctx.Keywords
	results.Topics = topicViews(ctx.Topics)
	if ctx.Summary != nil {
		results.Summary = &SummaryView{
			Overview:  ctx.Summary.Overview,
			KeyPoints: ctx.Summary.KeyPoints,
			Concepts:  ctx.Summary.Concepts,
		}
	}
	if ctx.Assessment != nil {
		results.Assessment = assessmentView(ctx.Assessment)
	}
	if ctx.Metrics != nil {
		results.Metrics = &MetricsView{
			WER:    ctx.Metrics.WER,
			Rouge1: ctx.Metrics.Rouge1,
			RougeL: ctx.Metrics.RougeL,
		}
	}
	return results
}

// FromStats converts store counters into the API shape.
func FromStats(stats jobs.Stats) QueueStats {
	return QueueStats{
		Total:      stats.Total,
		Queued:     stats.Queued,
		Processing: stats.Processing,
		Done:       stats.Done,
		Errored:    stats.Errored,
	}
}

// FromHealth converts collaborator readiness checks into their API views.
func FromHealth(checks []stage.Health) []CollaboratorHealth {
	if len(checks) == 0 {
		return nil
	}
	views := make([]CollaboratorHealth, 0, len(checks))
	for _, check := range checks {
		views = append(views, CollaboratorHealth{
			Name:   check.Name,
			Ready:  check.Ready,
			Detail: check.Detail,
		})
	}
	return views
}

func transcriptView(transcript *jobs.Transcript) *TranscriptView {
	view := &TranscriptView{
		Text:     transcript.Text,
		Language: transcript.Language,
	}
	if len(transcript.Segments) > 0 {
		view.Segments = make([]SegmentView, 0, len(transcript.Segments))
		for _, segment := range transcript.Segments {
			view.Segments = append(view.Segments, SegmentView{
				Start: segment.Start,
				End:   segment.End,
				Text:  segment.Text,
			})
		}
	}
	return view
}

func topicViews(topics []jobs.Topic) []TopicView {
	if len(topics) == 0 {
		return nil
	}
	out := make([]TopicView, 0, len(topics))
	for _, topic := range topics {
		out = append(out, TopicView{Title: topic.Title, Sentences: topic.Sentences})
	}
	return out
}

func assessmentView(assessment *jobs.Assessment) *AssessmentView {
	view := &AssessmentView{}
	for _, q := range assessment.Quiz {
		view.Quiz = append(view.Quiz, QuizQuestionView{
			Question:   q.Question,
			Options:    q.Options,
			Answer:     q.Answer,
			Difficulty: q.Difficulty,
		})
	}
	for _, s := range assessment.ShortAnswers {
		view.ShortAnswers = append(view.ShortAnswers, ShortAnswerView{
			Question:       s.Question,
			ExpectedAnswer: s.ExpectedAnswer,
			Difficulty:     s.Difficulty,
		})
	}
	for _, f := range assessment.Flashcards {
		view.Flashcards = append(view.Flashcards, FlashcardView{
			Question: f.Front,
			Answer:   f.Back,
		})
	}
	return view
}
