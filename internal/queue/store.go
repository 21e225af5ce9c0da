package queue

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

	"screener/internal/candidates"
	"screener/internal/config"
	"screener/internal/verify"
)

// Store manages job and log persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ LogSink = (*Store)(nil)

// Open initializes or connects to the queue database, applies the schema,
// and recovers jobs that were mid-attempt when the previous process died.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
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
	if _, err := store.RecoverStuckProcessing(context.Background()); err != nil {
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Enqueue appends a new pending job for the candidate and returns it.
// A candidate whose key already has a pending or processing job is
// coalesced: the existing job is returned and no duplicate is created.
func (s *Store) Enqueue(ctx context.Context, cand candidates.Candidate) (*Job, error) {
	payload, err := json.Marshal(cand)
	if err != nil {
		return nil, fmt.Errorf("marshal candidate: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enqueue tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	key := cand.Key()
	row := tx.QueryRowContext(
		ctx,
		`SELECT id FROM jobs WHERE candidate_key = ? AND status IN (?, ?) ORDER BY id LIMIT 1`,
		key,
		StatusPending,
		StatusProcessing,
	)
	var existingID int64
	switch err := row.Scan(&existingID); {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit enqueue tx: %w", err)
		}
		return s.GetByID(ctx, existingID)
	case errors.Is(err, sql.ErrNoRows):
		// No in-flight job for this candidate; insert below.
	default:
		return nil, fmt.Errorf("check in-flight job: %w", err)
	}

	timestamp := time.Now().UTC().Format(timeLayout)
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO jobs (job_id, candidate_key, payload_json, status, attempts, enqueued_at, updated_at)
         VALUES (?, ?, ?, ?, 0, ?, ?)`,
		uuid.NewString(),
		key,
		string(payload),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enqueue tx: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ClaimNext atomically transitions the oldest eligible pending job to
// processing and returns it. Returns nil when nothing is eligible. The
// guarded update gives the caller exclusive ownership of the attempt.
func (s *Store) ClaimNext(ctx context.Context, now time.Time) (*Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	nowStr := now.UTC().Format(timeLayout)
	row := tx.QueryRowContext(
		ctx,
		`SELECT id FROM jobs
         WHERE status = ? AND (not_before IS NULL OR not_before <= ?)
         ORDER BY enqueued_at, id LIMIT 1`,
		StatusPending,
		nowStr,
	)
	var id int64
	switch err := row.Scan(&id); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select eligible job: %w", err)
	}

	res, err := tx.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, not_before = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		StatusProcessing,
		nowStr,
		id,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim rows affected: %w", err)
	}
	if affected == 0 {
		// Another worker won the claim between select and update.
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}

	return s.GetByID(ctx, id)
}

// MarkSucceeded finishes a processing job with its verified result.
func (s *Store) MarkSucceeded(ctx context.Context, id int64, item *verify.Item) error {
	result, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.transition(ctx, id, StatusProcessing,
		`UPDATE jobs SET status = ?, result_json = ?, last_error = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		StatusSucceeded, string(result), nowString(), id, StatusProcessing)
}

// MarkFailed finishes a processing job with a terminal error message. The
// failed attempt counts against the job like any other.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.transition(ctx, id, StatusProcessing,
		`UPDATE jobs SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusFailed, nullableString(message), nowString(), id, StatusProcessing)
}

// Requeue returns a processing job to the pending set at the tail, bumping
// its attempt count and deferring eligibility until notBefore.
func (s *Store) Requeue(ctx context.Context, id int64, message string, notBefore time.Time) error {
	now := time.Now().UTC()
	return s.transition(ctx, id, StatusProcessing,
		`UPDATE jobs SET status = ?, attempts = attempts + 1, last_error = ?, not_before = ?, enqueued_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusPending,
		nullableString(message),
		notBefore.UTC().Format(timeLayout),
		now.Format(timeLayout),
		now.Format(timeLayout),
		id,
		StatusProcessing)
}

func (s *Store) transition(ctx context.Context, id int64, from Status, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d is not %s", id, from)
	}
	return nil
}

// RecoverStuckProcessing returns jobs left processing by a crashed run to
// pending, preserving their attempt counts.
func (s *Store) RecoverStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, not_before = NULL, updated_at = ? WHERE status = ?`,
		StatusPending,
		nowString(),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("recover stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back to pending for reprocessing. With no
// ids, every failed job is retried. Attempts reset: the retry is a fresh
// operator decision, not a continuation of the exhausted attempt budget.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	now := nowString()
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE jobs SET status = ?, attempts = 0, last_error = NULL, not_before = NULL, updated_at = ? WHERE status = ?`,
			StatusPending,
			now,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed jobs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, now, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE jobs SET status = ?, attempts = 0, last_error = NULL, not_before = NULL, updated_at = ?
        WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected jobs: %w", err)
	}
	return res.RowsAffected()
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), in enqueue order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY enqueued_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusProcessing:
			health.Processing += count
		case StatusSucceeded:
			health.Succeeded += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// ClearTerminal removes succeeded and failed jobs. Non-terminal jobs are
// never cleared from this path.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM jobs WHERE status IN (?, ?)`,
		StatusSucceeded,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear terminal jobs: %w", err)
	}
	return res.RowsAffected()
}

const jobColumns = "id, job_id, candidate_key, payload_json, status, attempts, last_error, enqueued_at, updated_at, not_before, result_json"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           int64
		jobID        string
		candidateKey string
		payload      string
		statusStr    string
		attempts     int
		lastError    sql.NullString
		enqueuedRaw  sql.NullString
		updatedRaw   sql.NullString
		notBeforeRaw sql.NullString
		resultRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&candidateKey,
		&payload,
		&statusStr,
		&attempts,
		&lastError,
		&enqueuedRaw,
		&updatedRaw,
		&notBeforeRaw,
		&resultRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		JobID:        jobID,
		CandidateKey: candidateKey,
		Status:       Status(statusStr),
		Attempts:     attempts,
		LastError:    lastError.String,
	}
	if err := json.Unmarshal([]byte(payload), &job.Candidate); err != nil {
		return nil, fmt.Errorf("unmarshal candidate payload: %w", err)
	}
	if resultRaw.Valid && resultRaw.String != "" {
		item := &verify.Item{}
		if err := json.Unmarshal([]byte(resultRaw.String), item); err != nil {
			return nil, fmt.Errorf("unmarshal job result: %w", err)
		}
		job.Result = item
	}
	if enqueued, err := parseTimeString(enqueuedRaw.String); err == nil {
		job.EnqueuedAt = enqueued
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if notBeforeRaw.Valid {
		if notBefore, err := parseTimeString(notBeforeRaw.String); err == nil {
			job.NotBefore = notBefore
		}
	}
	return job, nil
}

// timeLayout keeps a fixed-width fractional second so stored timestamps
// order lexicographically, which the eligibility comparison relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nowString() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
