package queue_test

import (
	"context"
	"testing"
	"time"

	"screener/internal/candidates"
	"screener/internal/queue"
	"screener/internal/testsupport"
	"screener/internal/verify"
)

func TestEnqueueAndFetch(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Enqueue(ctx, candidates.Candidate{Title: "The Martian", Year: 2015})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", job.Status)
	}
	if job.Attempts != 0 {
		t.Fatalf("expected zero attempts, got %d", job.Attempts)
	}
	if job.JobID == "" {
		t.Fatal("expected generated job id")
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected job to exist")
	}
	if fetched.Candidate.Title != "The Martian" || fetched.Candidate.Year != 2015 {
		t.Fatalf("candidate payload not preserved: %+v", fetched.Candidate)
	}
}

func TestEnqueueCoalescesInFlightCandidate(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cand := candidates.Candidate{ID: "tt3659388", Title: "The Martian"}
	first, err := store.Enqueue(ctx, cand)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	second, err := store.Enqueue(ctx, cand)
	if err != nil {
		t.Fatalf("Enqueue duplicate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected coalesced job, got ids %d and %d", first.ID, second.ID)
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(jobs))
	}
}

func TestEnqueueAfterTerminalCreatesNewJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cand := candidates.Candidate{Title: "Blade Runner", Year: 1982}
	first, err := store.Enqueue(ctx, cand)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := store.MarkFailed(ctx, claimed.ID, "not found"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	failed, err := store.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if failed.Attempts != 1 {
		t.Fatalf("expected failure to count the attempt, got %d", failed.Attempts)
	}

	second, err := store.Enqueue(ctx, cand)
	if err != nil {
		t.Fatalf("Enqueue after failure: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh job after terminal status")
	}
	if second.Attempts != 0 {
		t.Fatalf("expected fresh attempt count, got %d", second.Attempts)
	}
}

func TestClaimNextOrderAndExclusivity(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := store.Enqueue(ctx, candidates.Candidate{Title: "Alien", Year: 1979})
	if err != nil {
		t.Fatalf("Enqueue first: %v", err)
	}
	second, err := store.Enqueue(ctx, candidates.Candidate{Title: "Aliens", Year: 1986})
	if err != nil {
		t.Fatalf("Enqueue second: %v", err)
	}

	claimed, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("expected oldest job first, got %+v", claimed)
	}
	if claimed.Status != queue.StatusProcessing {
		t.Fatalf("expected processing status, got %s", claimed.Status)
	}

	next, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext second: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected second job, got %+v", next)
	}

	empty, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext empty: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected no eligible job, got %+v", empty)
	}
}

func TestMarkSucceededStoresResult(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, candidates.Candidate{Title: "Arrival", Year: 2016}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	item := &verify.Item{ContentID: 329865, Title: "Arrival", Year: 2016, MediaType: verify.MediaMovie}
	if err := store.MarkSucceeded(ctx, claimed.ID, item); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}

	job, err := store.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Status != queue.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", job.Status)
	}
	if job.Result == nil || job.Result.ContentID != 329865 {
		t.Fatalf("expected result payload, got %+v", job.Result)
	}
	if job.LastError != "" {
		t.Fatalf("expected cleared error, got %q", job.LastError)
	}
}

func TestTransitionsGuardedByStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Enqueue(ctx, candidates.Candidate{Title: "Dune", Year: 2021})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := store.MarkSucceeded(ctx, job.ID, &verify.Item{Title: "Dune"}); err == nil {
		t.Fatal("expected error marking pending job succeeded")
	}
	if err := store.MarkFailed(ctx, job.ID, "boom"); err == nil {
		t.Fatal("expected error marking pending job failed")
	}
	if err := store.Requeue(ctx, job.ID, "boom", time.Now()); err == nil {
		t.Fatal("expected error requeueing pending job")
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("expected job untouched, got %s", fetched.Status)
	}
}

func TestRequeueDefersEligibility(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, candidates.Candidate{Title: "Moon", Year: 2009}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	notBefore := time.Now().Add(time.Minute)
	if err := store.Requeue(ctx, claimed.ID, "provider unavailable", notBefore); err != nil {
		t.Fatalf("Requeue: %v", err)
	}

	job, err := store.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("expected pending after requeue, got %s", job.Status)
	}
	if job.Attempts != 1 {
		t.Fatalf("expected one attempt recorded, got %d", job.Attempts)
	}
	if job.LastError != "provider unavailable" {
		t.Fatalf("expected retained error, got %q", job.LastError)
	}

	if job.Eligible(time.Now()) {
		t.Fatal("job must not be eligible before its backoff window")
	}
	if !job.Eligible(notBefore.Add(time.Second)) {
		t.Fatal("job must become eligible after its backoff window")
	}

	tooSoon, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext before backoff: %v", err)
	}
	if tooSoon != nil {
		t.Fatalf("expected job deferred, got %+v", tooSoon)
	}

	later, err := store.ClaimNext(ctx, notBefore.Add(time.Second))
	if err != nil {
		t.Fatalf("ClaimNext after backoff: %v", err)
	}
	if later == nil || later.ID != claimed.ID {
		t.Fatalf("expected deferred job to become claimable, got %+v", later)
	}
	if later.Attempts != 1 {
		t.Fatalf("attempts must survive requeue, got %d", later.Attempts)
	}
}

func TestReopenRecoversProcessingJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	if _, err := store.Enqueue(ctx, candidates.Candidate{Title: "Solaris", Year: 1972}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := store.Requeue(ctx, claimed.ID, "timeout", time.Now()); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	reclaimed, err := store.ClaimNext(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ClaimNext reclaim: %v", err)
	}
	if reclaimed == nil || reclaimed.Status != queue.StatusProcessing {
		t.Fatalf("expected processing job before simulated crash, got %+v", reclaimed)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	job, err := reopened.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID after reopen: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("expected processing job recovered to pending, got %s", job.Status)
	}
	if job.Attempts != 1 {
		t.Fatalf("recovery must preserve attempts, got %d", job.Attempts)
	}
}

func TestRetryFailedResetsAttempts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, candidates.Candidate{Title: "Gattaca", Year: 1997}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := store.MarkFailed(ctx, claimed.ID, "no results"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one retried job, got %d", count)
	}

	job, err := store.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", job.Status)
	}
	if job.Attempts != 0 {
		t.Fatalf("expected reset attempts, got %d", job.Attempts)
	}
	if job.LastError != "" {
		t.Fatalf("expected cleared error, got %q", job.LastError)
	}
}

func TestStatsAndClearTerminal(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, candidates.Candidate{Title: "Primer", Year: 2004}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := store.Enqueue(ctx, candidates.Candidate{Title: "Coherence", Year: 2013}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := store.ClaimNext(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := store.MarkFailed(ctx, claimed.ID, "ambiguous"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}

	removed, err := store.ClearTerminal(ctx)
	if err != nil {
		t.Fatalf("ClearTerminal: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one cleared job, got %d", removed)
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Status != queue.StatusPending {
		t.Fatalf("pending job must survive clear, got %+v", jobs)
	}
}

func TestLogsAppendReadClear(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	entries := []queue.LogEntry{
		{Message: "verifying The Martian", Type: queue.LogInfo},
		{Message: "lookup timed out, retrying", Type: queue.LogInfo},
		{Message: "verified The Martian", Type: queue.LogSuccess},
	}
	for _, entry := range entries {
		if err := store.AppendLog(ctx, entry); err != nil {
			t.Fatalf("AppendLog: %v", err)
		}
	}

	got, err := store.Logs(ctx)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(got))
	}
	for i, entry := range got {
		if entry.Message != entries[i].Message {
			t.Fatalf("entry %d out of order: %q", i, entry.Message)
		}
		if entry.Timestamp.IsZero() {
			t.Fatalf("entry %d missing timestamp", i)
		}
	}
	if got[2].Type != queue.LogSuccess {
		t.Fatalf("expected success type, got %s", got[2].Type)
	}

	if err := store.ClearLogs(ctx); err != nil {
		t.Fatalf("ClearLogs: %v", err)
	}
	remaining, err := store.Logs(ctx)
	if err != nil {
		t.Fatalf("Logs after clear: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(remaining))
	}
}
