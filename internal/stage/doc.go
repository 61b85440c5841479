// Package stage defines the contract between the pipeline and its stages:
// the Handler interface, the fixed stage order, and precondition helpers for
// reading required context fields.
package stage
