package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"menucast/internal/batch"
	"menucast/internal/logging"
	"menucast/internal/pipeline"
	"menucast/internal/preflight"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags pipelineFlags
	var limit int
	var slugs string
	var reprocess bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process a batch of menu items",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := commandCtx(cmd)
			app, err := ctx.newApp(runCtx, flags.upload)
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.openHistory(); err != nil {
				return err
			}

			proc := app.batchProcessor()
			targets, err := proc.Targets(splitList(slugs), limit, reprocess)
			if err != nil {
				return noCandidates(cmd, err, "No candidates found.")
			}
			if err := app.cfg.RequireAPIKey(); err != nil {
				return err
			}

			metricsCtx, stopMetrics := context.WithCancel(runCtx)
			defer stopMetrics()
			app.serveMetrics(metricsCtx)

			result, err := proc.Process(runCtx, targets, flags.options())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			printBatch(cmd, result)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum items to process (default: batch.size)")
	cmd.Flags().StringVar(&slugs, "slugs", "", "Comma-separated slugs to process instead of discovery")
	cmd.Flags().BoolVar(&reprocess, "reprocess", false, "Include already processed items")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the batch report as JSON")
	return cmd
}

func newDailyCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var upload bool

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Process new items, then generate and send the QA report",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := commandCtx(cmd)
			app, err := ctx.newApp(runCtx, upload)
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.openHistory(); err != nil {
				return err
			}

			proc := app.batchProcessor()
			targets, err := proc.Targets(nil, limit, false)
			if err != nil {
				return noCandidates(cmd, err, "[daily] No candidates with images to process today.")
			}
			results := preflight.RunAll(runCtx, app.cfg, app.client)
			if preflight.Failed(results) {
				printPreflight(cmd, results)
				return errors.New("preflight failed")
			}

			metricsCtx, stopMetrics := context.WithCancel(runCtx)
			defer stopMetrics()
			app.serveMetrics(metricsCtx)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[daily] processing %d items\n", len(targets))
			result, err := proc.Process(runCtx, targets, pipeline.Options{Upload: upload})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "[daily] Done: %d ok / %d failed\n", len(result.Succeeded), len(result.Failed))

			report, err := app.qaReporter(true).Generate(runCtx)
			if err != nil {
				logging.WarnWithContext(app.logger, "qa report failed", "qa_report_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "no QA report for today"),
				)
				return nil
			}
			fmt.Fprintf(out, "[daily] QA: %d ok / %d with issues (%s)\n",
				report.Summary.Counts.OK, report.Summary.Counts.WithIssues, report.JSONPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum items to process (default: batch.size)")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload platform bundles after processing")
	return cmd
}

// noCandidates converts batch.ErrNoCandidates into the dedicated exit code.
func noCandidates(cmd *cobra.Command, err error, message string) error {
	if errors.Is(err, batch.ErrNoCandidates) {
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return &exitError{code: exitNoCandidates, err: err}
	}
	return err
}

func printBatch(cmd *cobra.Command, result batch.Result) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(result.Attempted))
	for _, slug := range result.Attempted {
		status := "ok"
		detail := ""
		if reason, failed := result.Failed[slug]; failed {
			status = "failed"
			detail = reason
		}
		rows = append(rows, []string{slug, status, strconv.FormatFloat(result.DurationsSec[slug], 'f', 2, 64), detail})
	}
	fmt.Fprintln(out, renderTable([]column{left("Slug"), left("Result"), right("Seconds"), wrapped("Detail", 60)}, rows))
	fmt.Fprintln(out, batch.Subject(result))
	fmt.Fprintf(out, "Report: %s\n", result.ReportPath)
}
