package stage

import (
	"strings"

	"lectern/internal/jobs"
	"lectern/internal/services"
)

// RequireTranscript returns the raw transcript or a precondition error naming
// the missing field.
func RequireTranscript(label string, req Request) (*jobs.Transcript, error) {
	if req.Context.Transcript == nil || strings.TrimSpace(req.Context.Transcript.Text) == "" {
		return nil, services.Precondition(label, "transcript")
	}
	return req.Context.Transcript, nil
}

// RequireCleanedText returns the normalized transcript text or a precondition
// error naming the missing field.
func RequireCleanedText(label string, req Request) (string, error) {
	if req.Context.CleanedText == nil || strings.TrimSpace(*req.Context.CleanedText) == "" {
		return "", services.Precondition(label, "cleaned_text")
	}
	return *req.Context.CleanedText, nil
}

// RequireSummary returns the summary artifact or a precondition error.
func RequireSummary(label string, req Request) (*jobs.Summary, error) {
	if req.Context.Summary == nil {
		return nil, services.Precondition(label, "summary")
	}
	return req.Context.Summary, nil
}
