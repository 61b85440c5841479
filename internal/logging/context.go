package logging

import (
	"context"
	"log/slog"

	"lectern/internal/services"
)

// ContextFields extracts the structured fields carried on ctx.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]Attr, 0, 3)
	if jobID, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, String(FieldJobID, jobID))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, String(FieldStage, stage))
	}
	if requestID, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, requestID))
	}
	return fields
}

// WithContext returns a child logger annotated with whatever job, stage, and
// request identifiers ctx carries.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
