package main

import (
	"errors"

	"github.com/spf13/cobra"

	"menucast/internal/artifacts"
	"menucast/internal/preflight"
	"menucast/internal/services/minimax"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, disk space, and backend credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := artifacts.New(cfg.Paths.BuildDir).EnsureLayout(); err != nil {
				return err
			}
			var backend preflight.Pinger
			if !offline {
				backend = minimax.NewClient(minimax.ConfigFrom(cfg))
			}
			results := preflight.RunAll(commandCtx(cmd), cfg, backend)
			printPreflight(cmd, results)
			if preflight.Failed(results) {
				return errors.New("preflight failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the backend reachability check")
	return cmd
}

func printPreflight(cmd *cobra.Command, results []preflight.Result) {
	p := newStatusPrinter(cmd.OutOrStdout())
	p.section("Preflight")
	for _, r := range results {
		p.line(r.Name, passKind(r.Passed), "%s", r.Detail)
	}
}
