// Package pipeline is the observer-facing facade over the enrichment queue
// and similarity scorer. Every method is safe to call while the worker runs:
// the store serializes access and the scorer is stateless.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"screener/internal/candidates"
	"screener/internal/config"
	"screener/internal/logging"
	"screener/internal/queue"
	"screener/internal/similarity"
	"screener/internal/verify"
)

// Snapshot is a point-in-time view of the queue for display.
type Snapshot struct {
	Jobs   []*queue.Job
	Logs   []queue.LogEntry
	Health queue.HealthSummary
}

// Pipeline exposes enqueue, snapshot, log, and scoring operations.
type Pipeline struct {
	store  *queue.Store
	scorer *similarity.Scorer
	logger *slog.Logger
}

// New builds a pipeline facade over the store using configured weights.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		scorer: similarity.NewScorer(similarity.WeightsFromConfig(cfg)),
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Enqueue submits a candidate for verification. Duplicate in-flight
// candidates coalesce to the existing job.
func (p *Pipeline) Enqueue(ctx context.Context, cand candidates.Candidate) (*queue.Job, error) {
	job, err := p.store.Enqueue(ctx, cand)
	if err != nil {
		return nil, fmt.Errorf("enqueue candidate: %w", err)
	}
	p.logger.Info("candidate enqueued",
		logging.Int64("job", job.ID),
		logging.String("title", cand.DisplayTitle()),
	)
	return job, nil
}

// GetSnapshot reads the complete queue state and log history.
func (p *Pipeline) GetSnapshot(ctx context.Context) (Snapshot, error) {
	jobs, err := p.store.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot jobs: %w", err)
	}
	logs, err := p.store.Logs(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot logs: %w", err)
	}
	health, err := p.store.Health(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot health: %w", err)
	}
	return Snapshot{Jobs: jobs, Logs: logs, Health: health}, nil
}

// ClearLogs deletes the pipeline log history.
func (p *Pipeline) ClearLogs(ctx context.Context) error {
	return p.store.ClearLogs(ctx)
}

// Score ranks candidate items against a reference item.
func (p *Pipeline) Score(reference *verify.Item, cands []*verify.Item, useKeywords bool) []similarity.Result {
	return p.scorer.Score(reference, cands, useKeywords)
}

// Rank scores every successfully verified item in the queue against the
// reference, most similar first.
func (p *Pipeline) Rank(ctx context.Context, reference *verify.Item, useKeywords bool) ([]similarity.Result, error) {
	jobs, err := p.store.List(ctx, queue.StatusSucceeded)
	if err != nil {
		return nil, fmt.Errorf("rank: list succeeded jobs: %w", err)
	}
	items := make([]*verify.Item, 0, len(jobs))
	for _, job := range jobs {
		if job.Result != nil {
			items = append(items, job.Result)
		}
	}
	return p.scorer.Score(reference, items, useKeywords), nil
}
