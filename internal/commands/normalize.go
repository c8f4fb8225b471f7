package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"holdings/internal/core"
	"holdings/internal/log"
	"holdings/internal/services"
)

// normalizeOutput is what normalize prints.
type normalizeOutput struct {
	Rows    []core.CanonicalRow `json:"rows"`
	Skipped []string            `json:"skipped,omitempty"`
	Unknown []string            `json:"unknownCategories,omitempty"`
}

func newNormalizeCommand() *cobra.Command {
	var (
		policy    string
		trustType bool
		trustStat bool
		loans     bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <file|->",
		Short: "Turn a raw holdings JSON array into canonical rows",
		Long: "Reads raw holding records, the same shape the upstream API returns, and prints\n" +
			"the enriched canonical rows with their allocations. Use - to read stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(cmd, args[0])
			if err != nil {
				return err
			}

			p := core.InvalidRecordPolicy(policy)
			if !p.Valid() {
				return fmt.Errorf("invalid policy %q: must be abort or skip", policy)
			}
			logger := log.New(log.Config{Level: slog.LevelWarn, Component: log.ComponentCLI, Output: cmd.ErrOrStderr()})
			svc := services.NewBalanceService(nil, services.BalanceOptions{
				Policy: p,
				Enricher: core.Enricher{
					TrustRecordType:       trustType,
					TrustRecordStatus:     trustStat,
					DeriveLoanLiabilities: loans,
				},
			}, logger)

			batch, err := svc.Build(cmd.Context(), records)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(normalizeOutput{
				Rows:    batch.Rows,
				Skipped: batch.Skipped,
				Unknown: batch.Unknown,
			})
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(core.PolicyAbort), "what to do with invalid records: abort or skip")
	cmd.Flags().BoolVar(&trustType, "trust-type", true, "honour the type field of each record")
	cmd.Flags().BoolVar(&trustStat, "trust-status", false, "honour the status field of each record")
	cmd.Flags().BoolVar(&loans, "derive-loans", false, "emit a liability row for vehicle loans")

	return cmd
}

func readRecords(cmd *cobra.Command, path string) ([]core.RawRecord, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read holdings: %w", err)
	}

	var records []core.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}
	return records, nil
}
