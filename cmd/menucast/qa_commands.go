package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"menucast/internal/qa"
)

func newQACommand(ctx *commandContext) *cobra.Command {
	qaCmd := &cobra.Command{
		Use:   "qa",
		Short: "Quality checks over generated artifacts",
	}
	qaCmd.AddCommand(newQAReportCommand(ctx))
	qaCmd.AddCommand(newQACheckCommand(ctx))
	return qaCmd
}

func newQAReportCommand(ctx *commandContext) *cobra.Command {
	var notify bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the daily QA report",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := commandCtx(cmd)
			app, err := ctx.newApp(runCtx, false)
			if err != nil {
				return err
			}
			defer app.close()

			report, err := app.qaReporter(notify).Generate(runCtx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"ok": true, "summary": report.Summary})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, qa.FormatText(report.Summary))
			fmt.Fprintf(out, "Report: %s\n", report.JSONPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", true, "Send the summary to the configured email/webhook/queue sinks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func newQACheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <slug>...",
		Short: "Validate artifacts for specific items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.newApp(commandCtx(cmd), false)
			if err != nil {
				return err
			}
			defer app.close()

			validator := qa.NewValidator(app.cfg, app.store)
			rows := make([][]string, 0, len(args))
			for _, slug := range args {
				res := validator.Validate(slug)
				rows = append(rows, []string{slug, strconv.Itoa(res.Score), strings.Join(res.Issues, "; ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{left("Slug"), right("Score"), wrapped("Issues", 72)}, rows))
			return nil
		},
	}
}
