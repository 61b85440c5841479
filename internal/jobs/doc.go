// Package jobs defines the persistent job model: the four-state lifecycle,
// the write-once context that stages fill in, and the SQLite-backed store
// the rest of the daemon shares.
package jobs
