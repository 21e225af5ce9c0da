package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screener/internal/config"
	"screener/internal/pipeline"
	"screener/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue contents and health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter []queue.Status
			if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
				for _, raw := range strings.Split(trimmed, ",") {
					status, ok := queue.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q (expected one of %s)", raw, statusNames())
					}
					filter = append(filter, status)
				}
			}

			return ctx.withPipeline(func(cfg *config.Config, p *pipeline.Pipeline) error {
				snap, err := p.GetSnapshot(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queue: %d total, %d pending, %d processing, %d succeeded, %d failed\n\n",
					snap.Health.Total,
					snap.Health.Pending,
					snap.Health.Processing,
					snap.Health.Succeeded,
					snap.Health.Failed,
				)

				rows := make([][]string, 0, len(snap.Jobs))
				for _, job := range snap.Jobs {
					if len(filter) > 0 && !containsStatus(filter, job.Status) {
						continue
					}
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						job.Candidate.DisplayTitle(),
						string(job.Status),
						strconv.Itoa(job.Attempts),
						formatTimestamp(job.UpdatedAt),
						truncate(job.LastError, 60),
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Job", "Candidate", "Status", "Attempts", "Updated", "Last Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Comma separated status filter (pending,processing,succeeded,failed)")
	return cmd
}

func containsStatus(statuses []queue.Status, status queue.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func statusNames() string {
	all := queue.AllStatuses()
	names := make([]string, len(all))
	for i, status := range all {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}
