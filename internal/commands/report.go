package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"holdings/internal/core"
	"holdings/internal/report"
	"holdings/internal/services"
)

func newReportCommand() *cobra.Command {
	var (
		asJSON bool
		search string
		owner  string
		style  string
		width  int
		ids    []string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the balance sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if owner == "" {
				owner = core.AllOwners
			}
			q := core.Query{SearchText: search, OwnerFilter: owner}
			var view services.BalanceView
			if len(ids) > 0 {
				view, err = a.balance.Selection(ctx, ids, q)
				if err != nil {
					return fmt.Errorf("report holdings %v: %w", ids, err)
				}
			} else {
				view = a.balance.BalanceSheet(ctx, q)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(view); err != nil {
					return fmt.Errorf("encode balance sheet: %w", err)
				}
			} else {
				out, err := report.Render(view, report.Options{Currency: a.cfg.DisplayCurrency, Style: style, Width: width})
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			}

			if view.Degraded {
				return fmt.Errorf("balance sheet unavailable: %s", view.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the balance sheet as JSON")
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by category, subcategory or owner")
	cmd.Flags().StringVar(&owner, "owner", core.AllOwners, "show one owner only")
	cmd.Flags().StringVar(&style, "style", "", "glamour style (dark, light, notty); detected when empty")
	cmd.Flags().IntVar(&width, "width", 0, "wrap output at this many columns")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "report only these holding ids, fetched one by one")

	return cmd
}
