package sheets

import (
	"context"

	"holdings/internal/core"
)

// Ports for outbound adapters.
type (
	// BalanceSheetExporter writes a balance sheet to an external spreadsheet
	// and returns a reference to the written range.
	BalanceSheetExporter interface {
		ExportBalanceSheet(ctx context.Context, sheet core.BalanceSheet) (ref string, err error)
	}
)
