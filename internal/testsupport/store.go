package testsupport

import (
	"context"
	"testing"

	"screener/internal/candidates"
	"screener/internal/config"
	"screener/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue enqueues a candidate for tests using the provided store.
func MustEnqueue(t testing.TB, store *queue.Store, cand candidates.Candidate) *queue.Job {
	t.Helper()

	job, err := store.Enqueue(context.Background(), cand)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return job
}
