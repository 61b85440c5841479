// Package services holds cross-cutting helpers shared by the stage
// collaborators: the sentinel error taxonomy used to classify stage failures,
// and context annotation helpers for structured logging.
package services
