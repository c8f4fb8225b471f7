package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"holdings/internal/core"
)

func TestExporterKeepsTables(t *testing.T) {
	e := New()
	if e.Last() != nil {
		t.Fatal("expected no export yet")
	}

	sheet := core.BalanceSheet{TotalAssets: decimal.NewFromInt(1), NetEquity: decimal.NewFromInt(1)}
	ref, err := e.ExportBalanceSheet(context.Background(), sheet)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ref != "mem:1!A1:L5" {
		t.Fatalf("ref = %q", ref)
	}
	if _, err := e.ExportBalanceSheet(context.Background(), sheet); err != nil {
		t.Fatalf("export: %v", err)
	}
	if e.Count() != 2 {
		t.Fatalf("count = %d", e.Count())
	}
	if last := e.Last(); len(last) != 5 || last[4][6] != "1" {
		t.Fatalf("last = %v", last)
	}
}
