package sheets

import (
	"testing"

	"github.com/shopspring/decimal"

	"holdings/internal/core"
)

func TestTable(t *testing.T) {
	acquired := core.NewDate(2019, 3, 1)
	sheet := core.BalanceSheet{
		Assets: []core.CanonicalRow{{
			ID: "1", Category: "Real Estate", Subcategory: "Marina Flat", Owner: "Zanulda",
			Acquisition:  &acquired,
			CostBasis:    decimal.NewNullDecimal(decimal.RequireFromString("1500000")),
			CurrentValue: decimal.NewNullDecimal(decimal.RequireFromString("1725000.55")),
			Status:       core.StatusVerified, Type: core.EntryAsset,
			Allocation: decimal.NewFromInt(1),
		}},
		Liabilities: []core.CanonicalRow{{
			ID: "1:loan", Category: "Vehicle Loan", Owner: "Aamir",
			CurrentValue: decimal.NewNullDecimal(decimal.NewFromInt(40000)),
			Status:       core.StatusStale, Type: core.EntryLiability,
		}},
		TotalAssets:      decimal.RequireFromString("1725000.55"),
		TotalLiabilities: decimal.NewFromInt(-40000),
		NetEquity:        decimal.RequireFromString("1685000.55"),
	}

	got := Table(sheet)
	if len(got) != 7 {
		t.Fatalf("got %d lines, want 7", len(got))
	}
	if got[0][0] != "Type" || len(got[0]) != len(Header) {
		t.Fatalf("bad header: %v", got[0])
	}

	asset := got[1]
	if asset[4] != "2019-03-01" || asset[6] != "1725000.55" || asset[10] != "VERIFIED" {
		t.Fatalf("bad asset line: %v", asset)
	}
	if asset[7] != "" {
		t.Fatalf("absent gain should be blank, got %v", asset[7])
	}

	loan := got[2]
	if loan[6] != "-40000" || loan[10] != "STALE" || loan[4] != "" {
		t.Fatalf("bad liability line: %v", loan)
	}

	if len(got[3]) != 0 {
		t.Fatalf("expected a blank separator line, got %v", got[3])
	}
	if got[6][0] != "Net Equity" || got[6][6] != "1685000.55" {
		t.Fatalf("bad total line: %v", got[6])
	}
}
