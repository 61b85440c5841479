package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition marks a stage that ran before its required context
	// field existed. This is a pipeline wiring bug, not an input problem.
	ErrPrecondition = errors.New("precondition error")
	// ErrExternalTool marks failures of external collaborators (ffmpeg,
	// whisperx, the LLM endpoint).
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks collaborator output that arrived but was unusable.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks lookups for unknown resources.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Precondition builds the error a stage returns when a required context field
// is absent. The field name is recorded so the failed job names the gap.
func Precondition(stage, field string) error {
	return Wrap(ErrPrecondition, stage, "", fmt.Sprintf("required context field %q is missing or empty", field), nil)
}

// IsPrecondition reports whether err carries the precondition marker.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// Message extracts the human-readable cause from a stage error, stripping the
// sentinel marker prefix so job records read cleanly.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{ErrPrecondition, ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound, ErrTransient} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(msg, prefix))
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
