package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"screener/internal/candidates"
	"screener/internal/config"
	"screener/internal/logging"
	"screener/internal/queue"
	"screener/internal/verify"
)

// Verifier resolves a candidate to an authoritative metadata record.
// *verify.Verifier satisfies it; tests substitute fakes.
type Verifier interface {
	Verify(ctx context.Context, cand candidates.Candidate) (*verify.Item, error)
}

// Manager coordinates background enrichment of queued candidates.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	verifier      Verifier
	logger        *slog.Logger
	pollInterval  time.Duration
	lookupTimeout time.Duration
	backoffBase   time.Duration
	backoffCap    time.Duration
	maxAttempts   int
	workers       int

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a worker manager over the queue store.
func NewManager(cfg *config.Config, store *queue.Store, verifier Verifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Queue.Workers
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		verifier:      verifier,
		logger:        logging.NewComponentLogger(logger, "worker"),
		pollInterval:  time.Duration(cfg.Queue.PollIntervalSeconds) * time.Second,
		lookupTimeout: time.Duration(cfg.Queue.LookupTimeoutSeconds) * time.Second,
		backoffBase:   time.Duration(cfg.Queue.BackoffBaseSeconds) * time.Second,
		backoffCap:    time.Duration(cfg.Queue.BackoffCapSeconds) * time.Second,
		maxAttempts:   cfg.Queue.MaxAttempts,
		workers:       workers,
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers)
	m.mu.Unlock()

	for i := 0; i < m.workers; i++ {
		go m.run(runCtx)
	}
	return nil
}

// Stop terminates background processing and waits for in-flight jobs to
// release. A job mid-attempt at shutdown stays processing on disk and is
// recovered to pending the next time the store opens.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// LastError returns the most recent loop-level failure, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.ClaimNext(ctx, time.Now())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Losing the store is not survivable; surface the error and
			// stop rather than spinning against a dead database.
			m.setLastError(err)
			m.logger.Error("queue store unavailable, stopping worker", logging.Error(err))
			return
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.pollInterval):
			}
			continue
		}

		if err := m.process(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("job bookkeeping failed, stopping worker",
				logging.Error(err),
				logging.Int64("job", job.ID),
			)
			return
		}
	}
}

// DrainOnce processes eligible jobs until the queue has nothing claimable,
// then returns. Jobs deferred into the future by backoff are left pending.
func (m *Manager) DrainOnce(ctx context.Context) error {
	for {
		job, err := m.store.ClaimNext(ctx, time.Now())
		if err != nil {
			return err
		}
		if job == nil {
			return nil
		}
		if err := m.process(ctx, job); err != nil {
			return err
		}
	}
}

// process runs one verification attempt and records its outcome. The
// returned error is non-nil only for store-level failures; verification
// failures are absorbed into the job's status.
func (m *Manager) process(ctx context.Context, job *queue.Job) error {
	title := job.Candidate.DisplayTitle()
	m.logger.Info("verifying candidate",
		logging.Int64("job", job.ID),
		logging.String("title", title),
		logging.Int("attempts", job.Attempts),
	)

	lookupCtx := ctx
	if m.lookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, m.lookupTimeout)
		defer cancel()
	}

	item, err := m.verifier.Verify(lookupCtx, job.Candidate)
	if err == nil {
		if err := m.store.MarkSucceeded(ctx, job.ID, item); err != nil {
			return err
		}
		return m.store.AppendLog(ctx, queue.LogEntry{
			Message: fmt.Sprintf("verified %s", item.Title),
			Type:    queue.LogSuccess,
		})
	}

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// Shutdown mid-attempt. Leave the job processing; store recovery
		// returns it to pending with its attempt count intact.
		return context.Canceled
	}

	if verify.IsPermanent(err) {
		return m.fail(ctx, job, title, err)
	}

	nextAttempts := job.Attempts + 1
	if nextAttempts >= m.maxAttempts {
		return m.fail(ctx, job, title, fmt.Errorf("retries exhausted after %d attempts: %w", nextAttempts, err))
	}

	delay := m.backoffDelay(job.Attempts)
	if requeueErr := m.store.Requeue(ctx, job.ID, err.Error(), time.Now().Add(delay)); requeueErr != nil {
		return requeueErr
	}
	m.logger.Warn("verification failed, will retry",
		logging.Int64("job", job.ID),
		logging.String("title", title),
		logging.Error(err),
		logging.Duration("backoff", delay),
	)
	return m.store.AppendLog(ctx, queue.LogEntry{
		Message: fmt.Sprintf("retrying %s after transient failure: %v", title, err),
		Type:    queue.LogInfo,
	})
}

func (m *Manager) fail(ctx context.Context, job *queue.Job, title string, cause error) error {
	if err := m.store.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
		return err
	}
	m.logger.Warn("verification failed permanently",
		logging.Int64("job", job.ID),
		logging.String("title", title),
		logging.Error(cause),
	)
	return m.store.AppendLog(ctx, queue.LogEntry{
		Message: fmt.Sprintf("failed to verify %s: %v", title, cause),
		Type:    queue.LogError,
	})
}

// backoffDelay returns base * 2^attempts capped at the configured ceiling.
func (m *Manager) backoffDelay(attempts int) time.Duration {
	delay := m.backoffBase
	if delay <= 0 {
		return 0
	}
	for i := 0; i < attempts; i++ {
		delay *= 2
		if m.backoffCap > 0 && delay >= m.backoffCap {
			return m.backoffCap
		}
	}
	if m.backoffCap > 0 && delay > m.backoffCap {
		return m.backoffCap
	}
	return delay
}
