package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"screener/internal/config"
	"screener/internal/pipeline"
	"screener/internal/queue"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Pipeline log utilities",
	}

	logsCmd.AddCommand(newLogsShowCommand(ctx))
	logsCmd.AddCommand(newLogsClearCommand(ctx))

	return logsCmd
}

func newLogsShowCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show pipeline log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(cfg *config.Config, p *pipeline.Pipeline) error {
				snap, err := p.GetSnapshot(cmd.Context())
				if err != nil {
					return err
				}
				entries := snap.Logs
				if limit > 0 && len(entries) > limit {
					entries = entries[len(entries)-limit:]
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No log entries")
					return nil
				}
				colorize := shouldColorize(out)
				for _, entry := range entries {
					line := fmt.Sprintf("%s  %-7s  %s",
						entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
						entry.Type,
						entry.Message,
					)
					if colorize {
						line = colorizeLogLine(entry.Type, line)
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the most recent N entries")
	return cmd
}

func newLogsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all pipeline log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(cfg *config.Config, p *pipeline.Pipeline) error {
				if err := p.ClearLogs(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pipeline logs cleared")
				return nil
			})
		},
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func colorizeLogLine(logType queue.LogType, line string) string {
	switch logType {
	case queue.LogSuccess:
		return ansiGreen + line + ansiReset
	case queue.LogError:
		return ansiRed + line + ansiReset
	case queue.LogInfo:
		return ansiYellow + line + ansiReset
	default:
		return line
	}
}
