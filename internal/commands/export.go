package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"holdings/internal/cli"
	"holdings/internal/core"
)

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the balance sheet to the configured spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			view := a.balance.BalanceSheet(ctx, core.Query{OwnerFilter: core.AllOwners})
			if view.Degraded {
				return fmt.Errorf("balance sheet unavailable: %s", view.Reason)
			}

			exporter, err := cli.NewExporter(ctx, a.cfg, a.logger)
			if err != nil {
				return fmt.Errorf("create exporter: %w", err)
			}
			ref, err := exporter.ExportBalanceSheet(ctx, view.BalanceSheet)
			if err != nil {
				return fmt.Errorf("export balance sheet: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s\n", view.Shown(), ref)
			return nil
		},
	}
}
