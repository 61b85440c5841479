package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"lectern/internal/config"
)

const jobColumns = "id, status, current_step, error_message, input_json, context_json, created_at, updated_at"

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database inside the configured data
// directory and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "jobs.db"))
}

// OpenPath opens the job database at an explicit path. Transactions take the
// write lock up front: a deferred read-then-write transaction cannot upgrade
// its WAL snapshot once another writer commits, and fails busy without ever
// waiting on the busy timeout.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the backing database file.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new queued job for the given input and returns it.
func (s *Store) Create(ctx context.Context, input Input) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, status, current_step, error_message, input_json, context_json, created_at, updated_at)
         VALUES (?, ?, ?, '', ?, '{}', ?, ?)`,
		id,
		StatusQueued,
		StepQueued,
		string(inputJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.Get(ctx, id)
}

// Get fetches a job by identifier. Unknown ids return ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update applies mutate to the job inside a write transaction. The mutator
// sees the freshest row; status changes are validated against the lifecycle
// before the row is written back. The updated job is returned.
func (s *Store) Update(ctx context.Context, id string, mutate func(*Job) error) (*Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load job for update: %w", err)
	}

	previousStatus := job.Status
	if err := mutate(job); err != nil {
		return nil, err
	}
	if err := ValidateTransition(previousStatus, job.Status); err != nil {
		return nil, err
	}

	job.UpdatedAt = time.Now().UTC()
	inputJSON, err := json.Marshal(job.Input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}
	contextJSON, err := json.Marshal(job.Context)
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, current_step = ?, error_message = ?, input_json = ?, context_json = ?, updated_at = ?
         WHERE id = ?`,
		job.Status,
		job.CurrentStep,
		job.ErrorMessage,
		string(inputJSON),
		string(contextJSON),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return job, nil
}

// List returns every job ordered newest first.
func (s *Store) List(ctx context.Context) ([]*Job, error) {
	return s.query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC`)
}

// ListActive returns jobs that still owe work, oldest first so resubmission
// after a restart preserves arrival order.
func (s *Store) ListActive(ctx context.Context) ([]*Job, error) {
	return s.query(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status IN (?, ?) ORDER BY created_at ASC, id ASC`,
		StatusQueued,
		StatusProcessing,
	)
}

// ListByStatus returns jobs in the given state, newest first.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Job, error) {
	return s.query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at DESC, id DESC`, status)
}

// Stats reports job counts per lifecycle state.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += count
		switch status {
		case StatusQueued:
			stats.Queued = count
		case StatusProcessing:
			stats.Processing = count
		case StatusDone:
			stats.Done = count
		case StatusError:
			stats.Errored = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

// FailInterrupted marks jobs stuck in processing as errored. The daemon calls
// this at startup: an in-flight stage does not survive a restart, so the job
// cannot resume where it left off.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		StatusError,
		InterruptedMessage,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ClearFinished deletes all terminal jobs and reports how many were removed.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE status IN (?, ?)`, StatusDone, StatusError)
	if err != nil {
		return 0, fmt.Errorf("clear finished jobs: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job         Job
		inputJSON   string
		contextJSON string
		createdAt   string
		updatedAt   string
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Status,
		&job.CurrentStep,
		&job.ErrorMessage,
		&inputJSON,
		&contextJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if inputJSON != "" {
		if err := json.Unmarshal([]byte(inputJSON), &job.Input); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
	}
	if contextJSON != "" {
		if err := json.Unmarshal([]byte(contextJSON), &job.Context); err != nil {
			return nil, fmt.Errorf("decode context: %w", err)
		}
	}

	var err error
	if job.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &job, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
