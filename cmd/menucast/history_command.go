package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"menucast/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var slug string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent batch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.StateDir)
			if err != nil {
				return err
			}
			defer store.Close()
			out := cmd.OutOrStdout()

			if slug != "" {
				items, err := store.SlugHistory(commandCtx(cmd), slug, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, items)
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{item.Slug, yesNo(item.OK), strconv.FormatFloat(item.DurationSec, 'f', 2, 64), item.Detail})
				}
				fmt.Fprintln(out, renderTable([]column{left("Slug"), left("OK"), right("Seconds"), wrapped("Detail", 60)}, rows))
				return nil
			}

			runs, err := store.RecentRuns(commandCtx(cmd), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No batch runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					strconv.Itoa(run.Attempted),
					strconv.Itoa(run.Succeeded),
					strconv.Itoa(run.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{left("Run"), left("Started"), right("Attempted"), right("OK"), right("Failed")},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of entries to show")
	cmd.Flags().StringVar(&slug, "slug", "", "Show the outcomes of one item instead of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
