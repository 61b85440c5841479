// Package pipeline executes the stage sequence for a single job: it persists
// the current step before each stage, merges write-once stage outputs, and
// records exactly one terminal transition per job.
package pipeline
