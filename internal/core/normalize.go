package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidRecord marks a record whose payload does not match its category
// tag. It indicates upstream corruption and is never defaulted away.
var ErrInvalidRecord = errors.New("invalid record")

// InvalidRecordError identifies the record that failed normalization.
type InvalidRecordError struct {
	ID       string
	Category Category
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %q: missing %s payload", e.ID, e.Category)
}

func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// Normalize projects one raw record onto a canonical row.
//
// A known category whose payload is missing fails with *InvalidRecordError.
// An unrecognised category never fails: it yields a degraded row labelled
// "Unknown" with no numeric fields.
//
// Owner, Allocation, IRR, Status and Type are placeholders here
// ("Unknown", 0, 0, verified, asset); Enricher fills what can be known.
func Normalize(r RawRecord) (CanonicalRow, error) {
	row := CanonicalRow{
		ID:          r.ID,
		Category:    r.Category.Label(),
		Subcategory: Placeholder,
		Owner:       OwnerUnknown,
		Allocation:  decimal.Zero,
		IRR:         decimal.Zero,
		Status:      StatusVerified,
		Type:        EntryAsset,
	}
	if !r.Category.Known() {
		return row, nil
	}
	if r.Payload == nil || r.Payload.category() != r.Category {
		return CanonicalRow{}, &InvalidRecordError{ID: r.ID, Category: r.Category}
	}

	switch p := r.Payload.(type) {
	case Vehicle:
		fill(&row, p.Model, p.PurchaseDate, p.PurchasePrice, p.CurrentValue, p.UpdatedAt)
	case RealEstate:
		fill(&row, p.PropertyName, p.PurchaseDate, p.PurchasePrice, p.CurrentValue, p.UpdatedAt)
	case BankAccount:
		// Cash has no cost basis: the whole balance counts as gain.
		fill(&row, p.AccountName, p.OpeningDate, decimal.Zero, p.CurrentBalance, p.UpdatedAt)
	case Investment:
		fill(&row, p.InvestmentName, p.InvestmentDate, p.InitialInvestment, p.CurrentValue, p.LastUpdated)
	case Business:
		fill(&row, p.BusinessName, p.EstablishmentDate, p.InitialInvestment, p.CurrentValuation, p.UpdatedAt)
	case Other:
		fill(&row, p.AssetName, p.PurchaseDate, p.PurchasePrice, p.CurrentValuation, p.UpdatedAt)
	}
	return row, nil
}

func fill(row *CanonicalRow, sub string, acquired Date, cost, current decimal.Decimal, updated Date) {
	if sub != "" {
		row.Subcategory = sub
	}
	row.Acquisition = acquired.Ptr()
	row.CostBasis = nullDecimal(cost)
	row.CurrentValue = nullDecimal(current)
	row.UnrealizedGain = nullDecimal(current.Sub(cost))
	row.LastUpdated = updated.Ptr()
}

// InvalidRecordPolicy decides what one bad record does to a batch.
type InvalidRecordPolicy string

const (
	// PolicyAbort fails the whole batch on the first invalid record.
	PolicyAbort InvalidRecordPolicy = "abort"
	// PolicySkip drops invalid records and normalizes the rest.
	PolicySkip InvalidRecordPolicy = "skip"
)

func (p InvalidRecordPolicy) Valid() bool {
	return p == PolicyAbort || p == PolicySkip
}

// NormalizeAll normalizes records in order. Under PolicySkip the invalid
// records are returned in skipped and err is nil; under PolicyAbort (and
// any unrecognised policy) the first invalid record aborts with err.
func NormalizeAll(records []RawRecord, policy InvalidRecordPolicy) (rows []CanonicalRow, skipped []*InvalidRecordError, err error) {
	rows = make([]CanonicalRow, 0, len(records))
	for _, rec := range records {
		row, nerr := Normalize(rec)
		if nerr != nil {
			var invalid *InvalidRecordError
			if policy == PolicySkip && errors.As(nerr, &invalid) {
				skipped = append(skipped, invalid)
				continue
			}
			return nil, skipped, nerr
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

// UnknownCategories lists the ids of records with an unrecognised category,
// so callers can report them without failing.
func UnknownCategories(records []RawRecord) []string {
	var ids []string
	for _, rec := range records {
		if !rec.Category.Known() {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}
