package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), false},
		{"2024-05-01T14:00:00+04:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), false},
		{"2024-05-01T10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), false},
		{"01/05/2024", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDate, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got.Time), tt.in)
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsEmpty())
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsEmpty())
	assert.Error(t, json.Unmarshal([]byte(`12`), &d))

	require.NoError(t, json.Unmarshal([]byte(`"2019-03-01"`), &d))
	assert.Equal(t, NewDate(2019, 3, 1), d)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2019-03-01"`, string(b))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(b))
	assert.Nil(t, Date{}.Ptr())
}

func TestRawRecordAcceptsOwnersAlias(t *testing.T) {
	records := decodeRecords(t, `[{"id":"1","category":"OTHER","owners":[{"user":{"name":"Aamir"}}],"otherAsset":{"assetName":"Gold"}}]`)
	assert.Equal(t, []string{"Aamir"}, records[0].OwnerNames())
}

func TestRawRecordRejectsAmbiguousPayload(t *testing.T) {
	records := decodeRecords(t, `[{"id":"1","category":"VEHICLE","vehicle":{"model":"X5"},"otherAsset":{"assetName":"Gold"}}]`)
	assert.Nil(t, records[0].Payload)
	_, err := Normalize(records[0])
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestRawRecordRoundTrip(t *testing.T) {
	in := RawRecord{
		ID:         "re-1",
		Category:   CategoryRealEstate,
		Type:       EntryAsset,
		Ownerships: []Ownership{{User: OwnershipUser{Name: "Zanulda"}}},
		Payload: RealEstate{
			PropertyName:  "Marina Flat",
			PurchaseDate:  NewDate(2019, 3, 1),
			PurchasePrice: dec("1500000"),
			CurrentValue:  dec("1725000.55"),
		},
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out RawRecord
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Category, out.Category)
	assert.Equal(t, in.OwnerNames(), out.OwnerNames())

	re, ok := out.Payload.(RealEstate)
	require.True(t, ok)
	assert.Equal(t, "Marina Flat", re.PropertyName)
	assert.True(t, re.CurrentValue.Equal(dec("1725000.55")))
	assert.Equal(t, NewDate(2019, 3, 1), re.PurchaseDate)
}

func TestRawRecordValidate(t *testing.T) {
	valid := RawRecord{ID: "1", Category: CategoryBankAccount, Payload: BankAccount{AccountName: "Savings"}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*RawRecord)
		want   error
	}{
		{"empty id", func(r *RawRecord) { r.ID = " " }, ErrEmptyID},
		{"unknown category", func(r *RawRecord) { r.Category = "CRYPTO" }, ErrUnknownCategory},
		{"missing payload", func(r *RawRecord) { r.Payload = nil }, ErrInvalidRecord},
		{"wrong payload", func(r *RawRecord) { r.Payload = Vehicle{} }, ErrInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	bad := valid
	bad.Type = "equity"
	assert.Error(t, bad.Validate())
	bad = valid
	bad.Status = "fresh"
	assert.Error(t, bad.Validate())
}

func TestCategoryLabels(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.Known())
		assert.NotEqual(t, CategoryLabelUnknown, c.Label(), c)
	}
	assert.Equal(t, CategoryLabelUnknown, Category("CRYPTO").Label())
	assert.Equal(t, "STALE", StatusStale.Badge())
}

func TestSignedValueFollowsEntryType(t *testing.T) {
	assertDecimal(t, "1", EntryAsset.Sign())
	assertDecimal(t, "-1", EntryLiability.Sign())

	tests := []struct {
		name  string
		typ   EntryType
		value string
		want  string
	}{
		{"asset", EntryAsset, "150000", "150000"},
		{"negative asset", EntryAsset, "-20", "-20"},
		{"liability magnitude", EntryLiability, "40000", "-40000"},
		{"liability stored negative", EntryLiability, "-40000", "-40000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := CanonicalRow{Type: tt.typ, CurrentValue: nullDecimal(dec(tt.value))}
			assertDecimal(t, tt.want, row.SignedValue())
		})
	}
	assert.True(t, CanonicalRow{Type: EntryLiability}.SignedValue().IsZero())
}
