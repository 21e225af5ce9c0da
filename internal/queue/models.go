package queue

import (
	"context"
	"strings"
	"time"

	"screener/internal/candidates"
	"screener/internal/verify"
)

// Status represents the lifecycle of an enrichment job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusSucceeded,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether no further transitions occur from a status.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Job is one enrichment unit persisted in SQLite. The queue owns it
// exclusively; attempts never decrease and status moves only forward except
// processing -> pending on retry or crash recovery.
type Job struct {
	ID           int64
	JobID        string
	CandidateKey string
	Candidate    candidates.Candidate
	Status       Status
	Attempts     int
	LastError    string
	EnqueuedAt   time.Time
	UpdatedAt    time.Time
	NotBefore    time.Time
	Result       *verify.Item
}

// Eligible reports whether the job may be claimed at the given time.
func (j Job) Eligible(now time.Time) bool {
	if j.Status != StatusPending {
		return false
	}
	return j.NotBefore.IsZero() || !now.Before(j.NotBefore)
}

// LogType classifies pipeline log entries.
type LogType string

const (
	LogInfo    LogType = "info"
	LogError   LogType = "error"
	LogSuccess LogType = "success"
)

// LogEntry is one append-only pipeline log record.
type LogEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      LogType   `json:"type"`
}

// LogSink is the durable append/read/clear capability the worker writes to
// and observers poll. The Store satisfies it; alternative media only need
// to preserve append order within a process.
type LogSink interface {
	AppendLog(ctx context.Context, entry LogEntry) error
	Logs(ctx context.Context) ([]LogEntry, error)
	ClearLogs(ctx context.Context) error
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Succeeded  int
	Failed     int
}
