package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"menucast/internal/artifacts"
	"menucast/internal/menu"
)

func newMenuCommand(ctx *commandContext) *cobra.Command {
	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Inspect the menu catalog",
	}
	menuCmd.AddCommand(newMenuListCommand(ctx))
	menuCmd.AddCommand(newMenuAuditCommand(ctx))
	menuCmd.AddCommand(newMenuExportCommand(ctx))
	return menuCmd
}

func loadStatuses(ctx *commandContext) (*artifacts.Store, []artifacts.ItemStatus, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	catalog, err := menu.Load(cfg.Paths.MenuDir)
	if err != nil {
		return nil, nil, err
	}
	store := artifacts.New(cfg.Paths.BuildDir)
	statuses, err := store.Statuses(catalog, cfg.Paths.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, statuses, nil
}

func newMenuListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List menu items with their processing status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, statuses, err := loadStatuses(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, statuses)
			}
			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				rows = append(rows, []string{
					st.Item.Slug,
					st.Item.Name,
					st.Item.Course,
					st.Item.Section,
					string(st.Status),
					fmt.Sprintf("%d", len(st.Images)),
				})
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "Menu is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]column{left("Slug"), wrapped("Name", 32), left("Course"), left("Section"), left("Status"), right("Images")},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newMenuAuditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report items without photos and photos without items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := menu.Load(cfg.Paths.MenuDir)
			if err != nil {
				return err
			}
			report, err := menu.Audit(catalog, cfg.Paths.DataDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if report.Clean() {
				fmt.Fprintln(out, "All menu items have photos and every photo matches an item")
				return nil
			}
			if len(report.MissingImages) > 0 {
				fmt.Fprintf(out, "Missing photos (%d): %s\n", len(report.MissingImages), strings.Join(report.MissingImages, ", "))
			}
			if len(report.OrphanImages) > 0 {
				fmt.Fprintf(out, "Unmatched photos (%d): %s\n", len(report.OrphanImages), strings.Join(report.OrphanImages, ", "))
			}
			return nil
		},
	}
}

func newMenuExportCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write per-item JSON documents and refresh manifest.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, statuses, err := loadStatuses(ctx)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outDir)
			if target == "" {
				target = filepath.Join(cfg.Paths.MenuDir, "items")
			}
			written, err := artifacts.ExportItems(statuses, target)
			if err != nil {
				return err
			}
			manifest, err := store.WriteManifest(statuses, cfg.Paths.DataDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d items to %s\n", len(written), target)
			fmt.Fprintf(out, "Manifest: %s\n", manifest)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default: <menu_dir>/items)")
	return cmd
}
