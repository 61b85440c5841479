// Package logging builds the slog loggers used across the daemon. Console
// output uses a compact key=value handler; JSON output is suitable for log
// aggregation. Helpers carry job and stage identifiers from context into
// every record.
package logging
