package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AppendLog records a pipeline log entry. A zero timestamp is filled in
// with the current time and an empty type defaults to info.
func (s *Store) AppendLog(ctx context.Context, entry LogEntry) error {
	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	logType := entry.Type
	if logType == "" {
		logType = LogInfo
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO logs (ts, message, type) VALUES (?, ?, ?)`,
		timestamp.UTC().Format(timeLayout),
		entry.Message,
		string(logType),
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// Logs returns every log entry in append order.
func (s *Store) Logs(ctx context.Context) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, ts, message, type FROM logs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			entry LogEntry
			tsRaw sql.NullString
		)
		if err := rows.Scan(&entry.ID, &tsRaw, &entry.Message, &entry.Type); err != nil {
			return nil, err
		}
		if ts, err := parseTimeString(tsRaw.String); err == nil {
			entry.Timestamp = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClearLogs deletes every log entry.
func (s *Store) ClearLogs(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM logs`); err != nil {
		return fmt.Errorf("clear logs: %w", err)
	}
	return nil
}
