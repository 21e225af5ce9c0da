package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"screener/internal/config"
	"screener/internal/queue"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [job-id...]",
		Short: "Return failed jobs to the queue",
		Long: `Retry moves failed jobs back to pending with a fresh attempt budget.
Without arguments every failed job is retried; otherwise only the listed
job ids are.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid job id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				count, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d job(s)\n", count)
				return nil
			})
		},
	}
}
