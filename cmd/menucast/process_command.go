package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"menucast/internal/pipeline"
	"menucast/internal/stage"
)

type pipelineFlags struct {
	platforms   string
	skipImage   bool
	skipContent bool
	skipAudio   bool
	skipVideo   bool
	upload      bool
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.platforms, "platforms", "", "Comma-separated platforms to render (default: all)")
	cmd.Flags().BoolVar(&f.skipImage, "skip-image", false, "Skip image enhancement")
	cmd.Flags().BoolVar(&f.skipContent, "skip-content", false, "Skip copy generation")
	cmd.Flags().BoolVar(&f.skipAudio, "skip-audio", false, "Skip voice and music")
	cmd.Flags().BoolVar(&f.skipVideo, "skip-video", false, "Skip video rendering and bundling")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "Upload platform bundles after rendering")
}

func (f *pipelineFlags) options() pipeline.Options {
	return pipeline.Options{
		Platforms:   splitList(f.platforms),
		SkipImage:   f.skipImage,
		SkipContent: f.skipContent,
		SkipAudio:   f.skipAudio,
		SkipVideo:   f.skipVideo,
		Upload:      f.upload,
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags pipelineFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "process <slug>",
		Short: "Run one menu item through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := commandCtx(cmd)
			app, err := ctx.newApp(runCtx, flags.upload)
			if err != nil {
				return err
			}
			defer app.close()
			if !flags.skipImage || !flags.skipContent || !flags.skipAudio || !flags.skipVideo {
				if err := app.cfg.RequireAPIKey(); err != nil {
					return err
				}
			}

			result, err := app.pipeline.Run(runCtx, args[0], flags.options())
			if err != nil {
				return err
			}
			app.metrics.RecordItem(runCtx, !result.Failed())
			if asJSON {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printStatuses(cmd, result)
			}
			if result.Failed() {
				return &exitError{code: exitFailure, err: fmt.Errorf("%s failed: %s", result.Slug, result.Statuses)}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status mapping as JSON")
	return cmd
}

func printStatuses(cmd *cobra.Command, result pipeline.Result) {
	p := newStatusPrinter(cmd.OutOrStdout())
	p.section(result.Slug)
	for _, entry := range result.Statuses.Ordered() {
		p.line(entry.Stage, stageKind(entry.Status), "%s", entry.Status)
	}
	for _, outcome := range result.Uploads {
		kind := statusOK
		if !outcome.OK {
			kind = statusWarn
		}
		p.line(outcome.Action, kind, "%s", outcome.Message())
	}
}

func stageKind(status string) statusKind {
	switch {
	case status == stage.StatusOK:
		return statusOK
	case stage.IsError(status):
		return statusError
	case status == stage.StatusMissingImage:
		return statusWarn
	default:
		return statusInfo
	}
}
