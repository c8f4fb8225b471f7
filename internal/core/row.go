package core

import "github.com/shopspring/decimal"

const (
	// CategoryLabelUnknown labels rows whose raw category is not recognised.
	CategoryLabelUnknown = "Unknown"

	// OwnerUnknown is emitted by Normalize until Enricher runs.
	OwnerUnknown = "Unknown"

	// Placeholder stands in for an absent sub-label or date.
	Placeholder = "—"
)

// CanonicalRow is the category agnostic representation of one holding used
// for display and aggregation. Rows are rebuilt on every fetch.
type CanonicalRow struct {
	ID             string              `json:"id"`
	Category       string              `json:"category"`
	Subcategory    string              `json:"subcategory,omitempty"`
	Owner          string              `json:"owner"`
	Acquisition    *Date               `json:"acquisition,omitempty"`
	CostBasis      decimal.NullDecimal `json:"costBasis"`
	CurrentValue   decimal.NullDecimal `json:"currentValue"`
	UnrealizedGain decimal.NullDecimal `json:"unrealizedGain"`
	// Allocation is the row's share of its balance sheet side, filled by
	// Allocate. Zero straight out of Normalize.
	Allocation decimal.Decimal `json:"allocation"`
	// IRR is reserved and always zero.
	IRR         decimal.Decimal `json:"irr"`
	LastUpdated *Date           `json:"lastUpdated,omitempty"`
	Status      Status          `json:"status"`
	Type        EntryType       `json:"type"`
}

// Value returns the current value, zero when absent.
func (r CanonicalRow) Value() decimal.Decimal {
	if !r.CurrentValue.Valid {
		return decimal.Zero
	}
	return r.CurrentValue.Decimal
}

// SignedValue is the row's contribution to net equity: liabilities always
// count negatively whatever sign their stored magnitude carries.
func (r CanonicalRow) SignedValue() decimal.Decimal {
	v := r.Value()
	if r.Type == EntryLiability {
		v = v.Abs()
	}
	return v.Mul(r.Type.Sign())
}

// HasSubcategory reports whether a real sub-label is present.
func (r CanonicalRow) HasSubcategory() bool {
	return r.Subcategory != "" && r.Subcategory != Placeholder
}

func nullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
