package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownedRecords = `[
 {"id":"v1","category":"VEHICLE","type":"asset","status":"stale",
  "ownerships":[{"user":{"name":"Aamir"}},{"user":{"name":" Zanulda "}}],
  "vehicle":{"vehicleName":"Family car","model":"X5","purchasePrice":200000,"currentValue":150000,"outstandingLoan":40000,"updatedAt":"2024-01-01"}},
 {"id":"m1","category":"OTHER","type":"liability","status":"bogus",
  "owners":[{"user":{"name":"Taher"}}],
  "otherAsset":{"assetName":"Credit line","purchasePrice":0,"currentValuation":-10000}},
 {"id":"b1","category":"BANK_ACCOUNT",
  "bankAccount":{"accountName":"Savings","currentBalance":50000}}
]`

func enrichFixture(t *testing.T, e Enricher) []CanonicalRow {
	t.Helper()
	records := decodeRecords(t, ownedRecords)
	rows, _, err := NormalizeAll(records, PolicyAbort)
	require.NoError(t, err)
	return e.Enrich(records, rows)
}

func TestResolveOwner(t *testing.T) {
	tests := []struct {
		name   string
		owners []string
		want   string
	}{
		{"none", nil, OwnerUnknown},
		{"blank names", []string{"", "  "}, OwnerUnknown},
		{"single", []string{"Aamir"}, "Aamir"},
		{"joint", []string{"Aamir", "Zanulda"}, "Aamir & Zanulda"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RawRecord{ID: "x"}
			for _, n := range tt.owners {
				rec.Ownerships = append(rec.Ownerships, Ownership{User: OwnershipUser{Name: n}})
			}
			assert.Equal(t, tt.want, ResolveOwner(rec))
		})
	}
}

func TestEnrichDefaults(t *testing.T) {
	rows := enrichFixture(t, Enricher{})
	require.Len(t, rows, 3)

	assert.Equal(t, "Aamir & Zanulda", rows[0].Owner)
	assert.Equal(t, "Taher", rows[1].Owner)
	assert.Equal(t, OwnerUnknown, rows[2].Owner)
	for _, r := range rows {
		assert.Equal(t, EntryAsset, r.Type, r.ID)
		assert.Equal(t, StatusVerified, r.Status, r.ID)
	}
}

func TestEnrichTrustsRecordTypeAndStatus(t *testing.T) {
	rows := enrichFixture(t, Enricher{TrustRecordType: true, TrustRecordStatus: true})
	require.Len(t, rows, 3)

	assert.Equal(t, StatusStale, rows[0].Status)
	// An unrecognised status keeps the default.
	assert.Equal(t, StatusVerified, rows[1].Status)

	assert.Equal(t, EntryLiability, rows[1].Type)
	assertDecimal(t, "10000", rows[1].CurrentValue.Decimal)
	assertDecimal(t, "-10000", rows[1].SignedValue())
	assert.Equal(t, EntryAsset, rows[2].Type)
}

func TestEnrichLiabilityKeepsGainConsistent(t *testing.T) {
	records := decodeRecords(t, `[
 {"id":"l1","category":"OTHER","type":"liability",
  "otherAsset":{"assetName":"Mortgage","purchasePrice":700000,"currentValuation":-600000}}
]`)
	rows, _, err := NormalizeAll(records, PolicyAbort)
	require.NoError(t, err)

	out := Enricher{TrustRecordType: true}.Enrich(records, rows)
	require.Len(t, out, 1)
	row := out[0]
	assert.Equal(t, EntryLiability, row.Type)
	assertDecimal(t, "600000", row.CurrentValue.Decimal)
	assertDecimal(t, "700000", row.CostBasis.Decimal)
	require.True(t, row.UnrealizedGain.Valid)
	assertDecimal(t, "-100000", row.UnrealizedGain.Decimal)
	assert.True(t, row.CurrentValue.Decimal.Sub(row.CostBasis.Decimal).Equal(row.UnrealizedGain.Decimal))
}

func TestEnrichDerivesVehicleLoans(t *testing.T) {
	rows := enrichFixture(t, Enricher{TrustRecordType: true, DeriveLoanLiabilities: true})
	require.Len(t, rows, 4)

	loan := rows[3]
	assert.Equal(t, "v1"+LoanSuffix, loan.ID)
	assert.Equal(t, CategoryLabelVehicleLoan, loan.Category)
	assert.Equal(t, "Family car", loan.Subcategory)
	assert.Equal(t, "Aamir & Zanulda", loan.Owner)
	assert.Equal(t, EntryLiability, loan.Type)
	assertDecimal(t, "40000", loan.Value())

	sheet := Aggregate(rows, Query{OwnerFilter: AllOwners})
	assertDecimal(t, "200000", sheet.TotalAssets)
	assertDecimal(t, "-50000", sheet.TotalLiabilities)
	assertDecimal(t, "150000", sheet.NetEquity)
}

func TestEnrichDoesNotModifyInput(t *testing.T) {
	records := decodeRecords(t, ownedRecords)
	rows, _, err := NormalizeAll(records, PolicyAbort)
	require.NoError(t, err)

	_ = Enricher{TrustRecordType: true, TrustRecordStatus: true}.Enrich(records, rows)
	for _, r := range rows {
		assert.Equal(t, OwnerUnknown, r.Owner)
		assert.Equal(t, EntryAsset, r.Type)
		assert.True(t, r.Allocation.IsZero())
	}
}

func TestAllocateSharesPerSide(t *testing.T) {
	rows := Allocate([]CanonicalRow{
		row("a", "Bank Account", "A", "x", "150", EntryAsset),
		row("b", "Bank Account", "B", "x", "50", EntryAsset),
		row("c", "Vehicle Loan", "C", "x", "-30", EntryLiability),
		row("d", "Unknown", Placeholder, "x", "", EntryAsset),
	})
	assertDecimal(t, "0.75", rows[0].Allocation)
	assertDecimal(t, "0.25", rows[1].Allocation)
	assertDecimal(t, "1", rows[2].Allocation)
	assertDecimal(t, "0", rows[3].Allocation)
}

func TestAllocateEmptySide(t *testing.T) {
	rows := Allocate([]CanonicalRow{row("a", "Other", "A", "x", "0", EntryAsset)})
	assert.True(t, rows[0].Allocation.IsZero())
}
