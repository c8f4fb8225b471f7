package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"holdings/internal/core"
	"holdings/internal/source"
)

var _ source.Source = (*Store)(nil)

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	seed := `[
	 {"id":"1","category":"VEHICLE","vehicle":{"model":"X5","purchasePrice":200000,"currentValue":180000}},
	 {"id":"2","category":"BANK_ACCOUNT","bankAccount":{"accountName":"Savings","currentBalance":50000}}
	]`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir: %v", err)
	}
	got, err := s.ListHoldings(context.Background())
	if err != nil {
		t.Fatalf("ListHoldings: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if _, ok := got[0].Payload.(core.Vehicle); !ok {
		t.Fatalf("payload not decoded: %T", got[0].Payload)
	}
}

func TestNewFromDirMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("missing seed should be empty store: %v", err)
	}
	if got, _ := s.ListHoldings(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty store, got %d", len(got))
	}

	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromDir(dir); err == nil {
		t.Fatal("expected error for malformed seed")
	}
}

func TestStoreGetAndCreate(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	rec := core.RawRecord{ID: "b1", Category: core.CategoryBankAccount, Payload: core.BankAccount{AccountName: "Current"}}
	id, err := s.CreateHolding(ctx, rec)
	if err != nil || id != "b1" {
		t.Fatalf("CreateHolding = %q, %v", id, err)
	}
	if _, err := s.CreateHolding(ctx, rec); !errors.Is(err, source.ErrDuplicate) {
		t.Fatalf("duplicate id error = %v", err)
	}
	if _, err := s.CreateHolding(ctx, core.RawRecord{ID: "x", Category: core.CategoryVehicle}); !errors.Is(err, core.ErrInvalidRecord) {
		t.Fatalf("missing payload error = %v", err)
	}

	got, err := s.GetHolding(ctx, "b1")
	if err != nil || got.ID != "b1" {
		t.Fatalf("GetHolding = %+v, %v", got, err)
	}
	if _, err := s.GetHolding(ctx, "nope"); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("GetHolding(nope) err = %v", err)
	}
}

func TestListHoldingsReturnsCopy(t *testing.T) {
	s := New([]core.RawRecord{{ID: "1"}})
	got, _ := s.ListHoldings(context.Background())
	got[0].ID = "changed"
	again, _ := s.ListHoldings(context.Background())
	if again[0].ID != "1" {
		t.Fatal("ListHoldings leaked internal slice")
	}
}
