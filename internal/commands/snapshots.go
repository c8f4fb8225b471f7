package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"holdings/internal/core"
	"holdings/internal/report"
)

func newSnapshotsCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
		style  string
	)

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Show the net equity history recorded by the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("invalid limit %d: must be positive", limit)
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.backend.Snapshots == nil {
				return errors.New("snapshots are not configured: set SQLITE_DB_PATH")
			}
			snaps, err := a.backend.Snapshots.ListSnapshots(ctx, limit)
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}

			if asJSON {
				if snaps == nil {
					snaps = []core.Snapshot{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snaps)
			}

			out, err := report.RenderSnapshots(snaps, report.Options{Currency: a.cfg.DisplayCurrency, Style: style})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 30, "number of snapshots to show, newest first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print snapshots as JSON")
	cmd.Flags().StringVar(&style, "style", "", "glamour style (dark, light, notty); detected when empty")

	return cmd
}
