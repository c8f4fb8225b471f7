package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// LoanSuffix is appended to a vehicle id for its derived loan row.
	LoanSuffix = ":loan"

	CategoryLabelVehicleLoan = "Vehicle Loan"

	ownerSeparator = " & "
)

// Enricher fills the fields Normalize leaves as placeholders. It needs the
// whole record set, which a single-record mapping never sees.
type Enricher struct {
	// TrustRecordType honours a record's own "liability" type.
	TrustRecordType bool
	// TrustRecordStatus copies a record's own status when it is valid.
	TrustRecordStatus bool
	// DeriveLoanLiabilities adds a liability row per vehicle loan.
	DeriveLoanLiabilities bool
}

// Enrich returns a new slice; rows is not modified. Rows and records are
// matched by id, rows without a record keep their placeholders.
func (e Enricher) Enrich(records []RawRecord, rows []CanonicalRow) []CanonicalRow {
	byID := make(map[string]RawRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	out := make([]CanonicalRow, 0, len(rows))
	var loans []CanonicalRow
	for _, row := range rows {
		rec, ok := byID[row.ID]
		if !ok {
			out = append(out, row)
			continue
		}
		row.Owner = ResolveOwner(rec)
		if e.TrustRecordType && rec.Type == EntryLiability {
			row = asLiability(row)
		}
		if e.TrustRecordStatus && rec.Status.Valid() {
			row.Status = rec.Status
		}
		out = append(out, row)

		if e.DeriveLoanLiabilities {
			if loan, ok := loanRow(rec, row); ok {
				loans = append(loans, loan)
			}
		}
	}
	out = append(out, loans...)
	return Allocate(out)
}

// ResolveOwner walks the record's ownership list. Joint holdings get their
// owners joined with " & "; a record with no owners stays "Unknown".
func ResolveOwner(r RawRecord) string {
	names := r.OwnerNames()
	if len(names) == 0 {
		return OwnerUnknown
	}
	return strings.Join(names, ownerSeparator)
}

// asLiability moves a row to the liability side, storing the magnitude.
// The gain is recomputed so it stays CurrentValue - CostBasis.
func asLiability(row CanonicalRow) CanonicalRow {
	row.Type = EntryLiability
	if row.CurrentValue.Valid {
		row.CurrentValue.Decimal = row.CurrentValue.Decimal.Abs()
		if row.CostBasis.Valid {
			row.UnrealizedGain = nullDecimal(row.CurrentValue.Decimal.Sub(row.CostBasis.Decimal))
		}
	}
	return row
}

func loanRow(rec RawRecord, asset CanonicalRow) (CanonicalRow, bool) {
	v, ok := rec.Payload.(Vehicle)
	if !ok || !v.OutstandingLoan.Valid || !v.OutstandingLoan.Decimal.IsPositive() {
		return CanonicalRow{}, false
	}
	sub := v.VehicleName
	if sub == "" {
		sub = asset.Subcategory
	}
	return CanonicalRow{
		ID:           rec.ID + LoanSuffix,
		Category:     CategoryLabelVehicleLoan,
		Subcategory:  sub,
		Owner:        asset.Owner,
		Acquisition:  asset.Acquisition,
		CurrentValue: nullDecimal(v.OutstandingLoan.Decimal),
		Allocation:   decimal.Zero,
		IRR:          decimal.Zero,
		LastUpdated:  asset.LastUpdated,
		Status:       asset.Status,
		Type:         EntryLiability,
	}, true
}

// Allocate sets each row's share of its own side of the balance sheet.
// Shares are fractions, not percentages.
func Allocate(rows []CanonicalRow) []CanonicalRow {
	assets, liabilities := decimal.Zero, decimal.Zero
	for _, r := range rows {
		if r.Type == EntryLiability {
			liabilities = liabilities.Add(r.Value().Abs())
		} else {
			assets = assets.Add(r.Value())
		}
	}

	out := make([]CanonicalRow, len(rows))
	for i, r := range rows {
		total, v := assets, r.Value()
		if r.Type == EntryLiability {
			total, v = liabilities, v.Abs()
		}
		r.Allocation = decimal.Zero
		if !total.IsZero() {
			r.Allocation = v.DivRound(total, 6)
		}
		out[i] = r
	}
	return out
}
