// Command screenerd runs the enrichment worker as a long-lived daemon with
// single-instance locking and signal-driven shutdown.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"screener/internal/config"
	"screener/internal/daemon"
	"screener/internal/logging"
	"screener/internal/queue"
	"screener/internal/tmdb"
	"screener/internal/verify"
	"screener/internal/worker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		log.Fatalf("open queue store: %v", err)
	}

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		log.Fatalf("init metadata provider: %v", err)
	}
	verifier := verify.New(client, logger, cfg.Scoring.MatchThreshold)
	mgr := worker.NewManager(cfg, store, verifier, logger)

	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}

	<-ctx.Done()
	logger.Info("screenerd shutting down")
	d.Stop()
}
