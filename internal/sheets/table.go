package sheets

import (
	"holdings/internal/core"
)

// Header is the first line of every exported table.
var Header = []any{
	"Type", "Category", "Subcategory", "Owner", "Acquisition", "Cost Basis",
	"Current Value", "Unrealized Gain", "Allocation", "IRR", "Status", "Last Updated",
}

// Table lays sheet out as spreadsheet values: the header, one line per
// asset then per liability, and the three totals. Amounts are written as
// plain decimal strings so no precision is lost on the way.
func Table(sheet core.BalanceSheet) [][]any {
	out := make([][]any, 0, sheet.Shown()+5)
	out = append(out, Header)
	for _, r := range sheet.Rows() {
		out = append(out, line(r))
	}
	out = append(out,
		[]any{},
		total("Total Assets", sheet.TotalAssets.String()),
		total("Total Liabilities", sheet.TotalLiabilities.String()),
		total("Net Equity", sheet.NetEquity.String()),
	)
	return out
}

func line(r core.CanonicalRow) []any {
	return []any{
		string(r.Type),
		r.Category,
		r.Subcategory,
		r.Owner,
		date(r.Acquisition),
		amount(r.CostBasis.Valid, r.CostBasis.Decimal.String()),
		amount(r.CurrentValue.Valid, r.SignedValue().String()),
		amount(r.UnrealizedGain.Valid, r.UnrealizedGain.Decimal.String()),
		r.Allocation.String(),
		r.IRR.String(),
		r.Status.Badge(),
		date(r.LastUpdated),
	}
}

func total(label, value string) []any {
	row := make([]any, len(Header))
	for i := range row {
		row[i] = ""
	}
	row[0] = label
	row[6] = value
	return row
}

func amount(valid bool, s string) string {
	if !valid {
		return ""
	}
	return s
}

func date(d *core.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
