package main

import (
	"github.com/spf13/cobra"

	"menucast/internal/artifacts"
	"menucast/internal/history"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize catalog progress and the latest batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			_, statuses, err := loadStatuses(ctx)
			if err != nil {
				return err
			}
			p := newStatusPrinter(cmd.OutOrStdout())

			counts := artifacts.Counts(statuses)
			missing := counts[artifacts.StatusMissingImage]
			p.section("Catalog")
			p.line("Items", statusInfo, "%d", len(statuses))
			p.line("Processed", statusOK, "%d", counts[artifacts.StatusProcessed])
			p.line("New", statusInfo, "%d", counts[artifacts.StatusNew])
			if missing > 0 {
				p.line("Missing photos", statusWarn, "%d", missing)
			} else {
				p.line("Missing photos", statusOK, "none")
			}

			store, err := history.Open(cfg.Paths.StateDir)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.RecentRuns(commandCtx(cmd), 1)
			if err != nil {
				return err
			}
			p.section("Last batch")
			if len(runs) == 0 {
				p.line("Batch", statusInfo, "none recorded")
				return nil
			}
			run := runs[0]
			kind := statusOK
			if run.Failed > 0 {
				kind = statusWarn
			}
			p.line("Finished", statusInfo, "%s", run.FinishedAt.Local().Format("2006-01-02 15:04:05 MST"))
			p.line("Result", kind, "%d ok, %d failed of %d", run.Succeeded, run.Failed, run.Attempted)
			if run.ReportPath != "" {
				p.line("Report", statusInfo, "%s", run.ReportPath)
			}
			return nil
		},
	}
}
