package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSheet is the aggregated view handed to the presentation layer.
// TotalLiabilities is zero or negative; NetEquity is the plain sum of both
// totals.
type BalanceSheet struct {
	Query            Query           `json:"query"`
	Owners           []string        `json:"owners"`
	Assets           []CanonicalRow  `json:"assets"`
	Liabilities      []CanonicalRow  `json:"liabilities"`
	AssetCount       int             `json:"assetCount"`
	LiabilityCount   int             `json:"liabilityCount"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	NetEquity        decimal.Decimal `json:"netEquity"`
}

// Shown is the number of rows surviving the filters.
func (b BalanceSheet) Shown() int {
	return len(b.Assets) + len(b.Liabilities)
}

// Total is the number of rows before filtering.
func (b BalanceSheet) Total() int {
	return b.AssetCount + b.LiabilityCount
}

// Rows returns assets followed by liabilities.
func (b BalanceSheet) Rows() []CanonicalRow {
	out := make([]CanonicalRow, 0, b.Shown())
	out = append(out, b.Assets...)
	return append(out, b.Liabilities...)
}

// Snapshot is a point-in-time record of the unfiltered totals.
type Snapshot struct {
	ID               int64           `json:"id"`
	TakenAt          time.Time       `json:"takenAt"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	NetEquity        decimal.Decimal `json:"netEquity"`
	Holdings         int             `json:"holdings"`
}

// NewSnapshot captures the totals of sheet at t.
func NewSnapshot(sheet BalanceSheet, t time.Time) Snapshot {
	return Snapshot{
		TakenAt:          t.UTC(),
		TotalAssets:      sheet.TotalAssets,
		TotalLiabilities: sheet.TotalLiabilities,
		NetEquity:        sheet.NetEquity,
		Holdings:         sheet.Shown(),
	}
}
