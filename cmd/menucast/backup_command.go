package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"menucast/internal/backup"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Archive the build tree and menu, uploading to S3 when configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			archiver, err := backup.NewFromConfig(commandCtx(cmd), cfg, logger)
			if err != nil {
				return err
			}
			res, err := archiver.Run(commandCtx(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created backup: %s (%d files)\n", res.Path, res.Files)
			switch {
			case res.Upload == nil:
			case res.Upload.OK:
				fmt.Fprintf(out, "Uploaded to s3://%s/%s\n", cfg.Backup.Bucket, res.Key)
			default:
				fmt.Fprintf(out, "S3 upload failed: %s\n", res.Upload.Message())
			}
			return nil
		},
	}
}
