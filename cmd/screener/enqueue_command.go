package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"screener/internal/candidates"
	"screener/internal/config"
	"screener/internal/pipeline"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue [file]",
		Short: "Queue recommendation candidates for verification",
		Long: `Enqueue reads a JSON array of recommendation candidates from the given
file (or stdin when no file is supplied) and queues each one for metadata
verification. Candidates already in flight are coalesced to their existing
job rather than duplicated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reader io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				path, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				file, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open candidates file: %w", err)
				}
				defer file.Close()
				reader = file
			}

			cands, err := candidates.Decode(reader)
			if err != nil {
				return fmt.Errorf("decode candidates: %w", err)
			}
			if len(cands) == 0 {
				return fmt.Errorf("no candidates to enqueue")
			}

			return ctx.withPipeline(func(cfg *config.Config, p *pipeline.Pipeline) error {
				rows := make([][]string, 0, len(cands))
				for _, cand := range cands {
					job, err := p.Enqueue(cmd.Context(), cand)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						cand.DisplayTitle(),
						string(job.Status),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Job", "Candidate", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	return cmd
}
