package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AllOwners is the owner filter value that matches every owner.
const AllOwners = "All"

// Query is the search context of one balance sheet view.
type Query struct {
	SearchText  string
	OwnerFilter string
}

// Matches reports whether row passes both the search text and the owner
// filter. Search is a case-insensitive substring test over category,
// subcategory and owner; an empty owner filter behaves like "All".
func (q Query) Matches(row CanonicalRow) bool {
	return q.matchesSearch(row) && q.matchesOwner(row)
}

func (q Query) matchesSearch(row CanonicalRow) bool {
	if q.SearchText == "" {
		return true
	}
	needle := strings.ToLower(q.SearchText)
	if strings.Contains(strings.ToLower(row.Category), needle) {
		return true
	}
	if row.Subcategory != "" && strings.Contains(strings.ToLower(row.Subcategory), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(row.Owner), needle)
}

func (q Query) matchesOwner(row CanonicalRow) bool {
	return q.OwnerFilter == "" || q.OwnerFilter == AllOwners || row.Owner == q.OwnerFilter
}

// Partition splits rows by entry type, preserving order.
func Partition(rows []CanonicalRow) (assets, liabilities []CanonicalRow) {
	for _, r := range rows {
		if r.Type == EntryLiability {
			liabilities = append(liabilities, r)
		} else {
			assets = append(assets, r)
		}
	}
	return assets, liabilities
}

// Owners returns "All" followed by the distinct owners in first-seen order.
func Owners(rows []CanonicalRow) []string {
	seen := map[string]struct{}{}
	out := []string{AllOwners}
	for _, r := range rows {
		if _, ok := seen[r.Owner]; ok {
			continue
		}
		seen[r.Owner] = struct{}{}
		out = append(out, r.Owner)
	}
	return out
}

// Filter keeps the rows matching q in their original order.
func Filter(rows []CanonicalRow, q Query) []CanonicalRow {
	out := make([]CanonicalRow, 0, len(rows))
	for _, r := range rows {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Subtotal sums signed current values. Rows without a value count as zero.
func Subtotal(rows []CanonicalRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.SignedValue())
	}
	return total
}

// Aggregate builds the balance sheet for q. Counts are over the unfiltered
// partitions; totals are over the filtered ones.
func Aggregate(rows []CanonicalRow, q Query) BalanceSheet {
	assets, liabilities := Partition(rows)
	sheet := BalanceSheet{
		Query:          q,
		Owners:         Owners(rows),
		Assets:         Filter(assets, q),
		Liabilities:    Filter(liabilities, q),
		AssetCount:     len(assets),
		LiabilityCount: len(liabilities),
	}
	sheet.TotalAssets = Subtotal(sheet.Assets)
	sheet.TotalLiabilities = Subtotal(sheet.Liabilities)
	sheet.NetEquity = sheet.TotalAssets.Add(sheet.TotalLiabilities)
	return sheet
}
