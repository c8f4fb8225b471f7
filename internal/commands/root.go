// Package commands implements the holdingsctl command line.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "holdingsctl",
		Short: "Inspect and export the family balance sheet",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newNormalizeCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newSnapshotsCommand())
	rootCmd.AddCommand(newAuthCommand())

	return rootCmd
}
