package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"screener/internal/config"
	"screener/internal/daemon"
	"screener/internal/logging"
	"screener/internal/queue"
	"screener/internal/tmdb"
	"screener/internal/verify"
	"screener/internal/worker"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the enrichment queue in the foreground",
		Long: `Run starts the enrichment worker in the foreground. By default it keeps
polling until interrupted; with --once it drains the currently eligible
jobs and exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}

				client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
				if err != nil {
					return fmt.Errorf("init metadata provider: %w", err)
				}
				verifier := verify.New(client, logger, cfg.Scoring.MatchThreshold)
				mgr := worker.NewManager(cfg, store, verifier, logger)

				if once {
					if err := mgr.DrainOnce(cmd.Context()); err != nil {
						return err
					}
					health, err := store.Health(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Drained queue: %d succeeded, %d failed, %d still pending\n",
						health.Succeeded, health.Failed, health.Pending)
					return nil
				}

				d, err := daemon.New(cfg, store, logger, mgr)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := d.Start(runCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Worker running; press Ctrl-C to stop")
				<-runCtx.Done()
				d.Stop()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Drain eligible jobs and exit")
	return cmd
}
