// Package daemon runs the lectern background process: it owns the job store
// and task runner, recovers interrupted work on startup, and serves the HTTP
// API for submissions and queries.
package daemon
