package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"menucast/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to every configured sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service, err := notifications.NewService(commandCtx(cmd), cfg)
			if err != nil {
				return err
			}
			if service == notifications.Noop() {
				fmt.Fprintln(cmd.OutOrStdout(), "No notification sinks configured")
				return nil
			}
			payload := notifications.Payload{
				"subject": "menucast test notification",
				"body":    "If you can read this, notifications are configured.",
				"text":    "menucast test notification",
			}
			if err := service.Publish(commandCtx(cmd), notifications.EventTest, payload); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
