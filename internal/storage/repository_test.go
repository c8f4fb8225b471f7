package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"holdings/internal/core"
	"holdings/internal/source"
)

var _ source.Source = (*SQLiteRepository)(nil)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "holdings.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func vehicle(id, value string) core.RawRecord {
	return core.RawRecord{
		ID:         id,
		Category:   core.CategoryVehicle,
		Ownerships: []core.Ownership{{User: core.OwnershipUser{Name: "Aamir"}}},
		Payload: core.Vehicle{
			Model:         "X5",
			PurchasePrice: decimal.RequireFromString("200000"),
			CurrentValue:  decimal.RequireFromString(value),
			PurchaseDate:  core.NewDate(2021, 6, 1),
		},
	}
}

func TestSQLiteRepository_Holdings(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, id := range []string{"b", "a", "c"} {
		if _, err := repo.CreateHolding(ctx, vehicle(id, "180000.123456789")); err != nil {
			t.Fatalf("CreateHolding(%s): %v", id, err)
		}
	}

	_, err := repo.CreateHolding(ctx, vehicle("a", "1"))
	if !errors.Is(err, ErrDuplicateHolding) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := repo.CreateHolding(ctx, core.RawRecord{ID: "x", Category: core.CategoryOther}); !errors.Is(err, core.ErrInvalidRecord) {
		t.Fatalf("invalid err = %v", err)
	}

	records, err := repo.ListHoldings(ctx)
	if err != nil {
		t.Fatalf("ListHoldings: %v", err)
	}
	if len(records) != 3 || records[0].ID != "b" || records[1].ID != "a" || records[2].ID != "c" {
		t.Fatalf("records not in insertion order: %+v", records)
	}

	got, err := repo.GetHolding(ctx, "a")
	if err != nil {
		t.Fatalf("GetHolding: %v", err)
	}
	v, ok := got.Payload.(core.Vehicle)
	if !ok {
		t.Fatalf("payload type %T", got.Payload)
	}
	if v.CurrentValue.String() != "180000.123456789" {
		t.Fatalf("value = %s", v.CurrentValue)
	}
	if v.PurchaseDate != core.NewDate(2021, 6, 1) {
		t.Fatalf("purchase date = %v", v.PurchaseDate)
	}
	if got.OwnerNames()[0] != "Aamir" {
		t.Fatalf("owners = %v", got.OwnerNames())
	}

	if _, err := repo.GetHolding(ctx, "missing"); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestSQLiteRepository_ImportHoldings(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.CreateHolding(ctx, vehicle("a", "1")); err != nil {
		t.Fatal(err)
	}
	n, err := repo.ImportHoldings(ctx, []core.RawRecord{vehicle("a", "2"), vehicle("b", "3")})
	if err != nil {
		t.Fatalf("ImportHoldings: %v", err)
	}
	if n != 1 {
		t.Fatalf("inserted = %d, want 1", n)
	}
	count, err := repo.CountHoldings(ctx)
	if err != nil || count != 2 {
		t.Fatalf("CountHoldings = %d, %v", count, err)
	}
}

func TestSQLiteRepository_Snapshots(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, net := range []string{"100", "250.5", "-40"} {
		s := core.Snapshot{
			TakenAt:          base.Add(time.Duration(i) * time.Hour).Add(time.Duration(i) * 500 * time.Millisecond),
			TotalAssets:      decimal.RequireFromString("1000"),
			TotalLiabilities: decimal.RequireFromString("-900"),
			NetEquity:        decimal.RequireFromString(net),
			Holdings:         i + 1,
		}
		saved, err := repo.SaveSnapshot(ctx, s)
		if err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
		if saved.ID == 0 {
			t.Fatal("snapshot id not assigned")
		}
	}

	list, err := repo.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if !list[0].NetEquity.Equal(decimal.RequireFromString("-40")) || list[0].Holdings != 3 {
		t.Fatalf("newest snapshot = %+v", list[0])
	}
	if !list[1].NetEquity.Equal(decimal.RequireFromString("250.5")) {
		t.Fatalf("second snapshot = %+v", list[1])
	}
	if !list[1].TakenAt.Equal(base.Add(time.Hour + 500*time.Millisecond)) {
		t.Fatalf("taken_at = %v", list[1].TakenAt)
	}
}
