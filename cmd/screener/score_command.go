package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"screener/internal/config"
	"screener/internal/pipeline"
	"screener/internal/verify"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	var useKeywords bool
	var limit int

	cmd := &cobra.Command{
		Use:   "score <reference.json>",
		Short: "Rank verified items by similarity to a reference",
		Long: `Score loads a reference item from a JSON file and ranks every
successfully verified item in the queue against it. The reference file uses
the verified item shape; title and synopsis are the minimum useful fields.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read reference: %w", err)
			}
			reference := &verify.Item{}
			if err := json.Unmarshal(data, reference); err != nil {
				return fmt.Errorf("parse reference: %w", err)
			}
			if reference.Title == "" && reference.Synopsis == "" {
				return fmt.Errorf("reference needs at least a title or synopsis")
			}

			return ctx.withPipeline(func(cfg *config.Config, p *pipeline.Pipeline) error {
				results, err := p.Rank(cmd.Context(), reference, useKeywords)
				if err != nil {
					return err
				}
				if limit > 0 && len(results) > limit {
					results = results[:limit]
				}

				out := cmd.OutOrStdout()
				if len(results) == 0 {
					fmt.Fprintln(out, "No verified items to rank")
					return nil
				}
				rows := make([][]string, 0, len(results))
				for i, result := range results {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						result.Title,
						formatScore(result.Combined),
						formatScore(result.Plot),
						formatScore(result.Keyword),
						formatScore(result.TitleSim),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Rank", "Title", "Combined", "Plot", "Keyword", "Title Sim"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&useKeywords, "keywords", false, "Include keyword overlap in scoring")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the top N results")
	return cmd
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
