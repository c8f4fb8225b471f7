package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"holdings/internal/core"
	"holdings/internal/services"
)

func sampleView() services.BalanceView {
	acquired := core.NewDate(2019, 3, 1)
	rows := []core.CanonicalRow{
		{
			ID: "1", Category: "Real Estate", Subcategory: "Marina | Flat", Owner: "Zanulda",
			Acquisition:    &acquired,
			CostBasis:      decimal.NewNullDecimal(decimal.NewFromInt(1000000)),
			CurrentValue:   decimal.NewNullDecimal(decimal.NewFromInt(1250000)),
			UnrealizedGain: decimal.NewNullDecimal(decimal.NewFromInt(250000)),
			Status:         core.StatusVerified, Type: core.EntryAsset,
		},
		{
			ID: "2", Category: "Vehicle Loan", Subcategory: core.Placeholder, Owner: "Aamir",
			CurrentValue: decimal.NewNullDecimal(decimal.NewFromInt(40000)),
			Status:       core.StatusStale, Type: core.EntryLiability,
		},
	}
	return services.BalanceView{
		BalanceSheet: core.Aggregate(rows, core.Query{SearchText: "", OwnerFilter: core.AllOwners}),
		Unknown:      []string{"9"},
	}
}

func TestCells(t *testing.T) {
	view := sampleView()
	asset := Cells(view.Assets[0], "USD")
	if len(asset) != len(Columns) {
		t.Fatalf("got %d cells, want %d", len(asset), len(Columns))
	}
	want := map[int]string{3: "1 Mar 2019", 5: "$1,250,000", 6: "$250,000", 9: "VERIFIED", 10: core.Placeholder}
	for i, w := range want {
		if asset[i] != w {
			t.Fatalf("cell %s = %q, want %q", Columns[i], asset[i], w)
		}
	}

	loan := Cells(view.Liabilities[0], "USD")
	if loan[5] != "($40,000)" || loan[4] != core.Placeholder || loan[1] != core.Placeholder {
		t.Fatalf("liability cells = %v", loan)
	}
	if loan[8] != "0.0%" {
		t.Fatalf("IRR = %q", loan[8])
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleView(), "USD")
	for _, want := range []string{
		"## Assets (1 of 1)",
		"## Liabilities (1 of 1)",
		`Marina \| Flat`,
		"**Total Assets:** $1,250,000",
		"**Total Liabilities:** ($40,000)",
		"## Net Equity: $1,210,000",
		"unknown category: 9",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Filtered by") {
		t.Fatal("unfiltered view should not mention a filter")
	}
}

func TestMarkdownFilteredAndDegraded(t *testing.T) {
	view := services.BalanceView{
		BalanceSheet: core.Aggregate(nil, core.Query{SearchText: "car", OwnerFilter: "Aamir"}),
		Degraded:     true,
		Reason:       "Holdings could not be fetched",
	}
	md := Markdown(view, "USD")
	for _, want := range []string{
		"**Unavailable:** Holdings could not be fetched",
		`_Filtered by search "car" and owner Aamir_`,
		"No assets match.",
		"No liabilities match.",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRender(t *testing.T) {
	out, err := Render(sampleView(), Options{Currency: "USD", Style: "notty", Width: 200})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Net Equity") || !strings.Contains(out, "Total Assets") {
		t.Fatalf("rendered output missing content:\n%s", out)
	}
}

func TestSnapshotsMarkdown(t *testing.T) {
	taken := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	snaps := []core.Snapshot{
		{TakenAt: taken, Holdings: 3, TotalAssets: decimal.NewFromInt(250000),
			TotalLiabilities: decimal.NewFromInt(-40000), NetEquity: decimal.NewFromInt(210000)},
		{TakenAt: taken.Add(-24 * time.Hour), Holdings: 2, TotalAssets: decimal.NewFromInt(230000),
			NetEquity: decimal.NewFromInt(230000)},
	}
	md := SnapshotsMarkdown(snaps, "USD")
	for _, want := range []string{
		"| 2 Mar 2026 09:30 | 3 | $250,000 | ($40,000) | $210,000 | -$20,000 |",
		"| 1 Mar 2026 09:30 | 2 | $230,000 | ($0) | $230,000 | " + core.Placeholder + " |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	if md := SnapshotsMarkdown(nil, "USD"); !strings.Contains(md, "No snapshots recorded yet.") {
		t.Fatalf("empty history: %s", md)
	}
}

// TestMarkdownStructure parses the report as GitHub-flavoured markdown so a
// stray pipe in a cell cannot shift the columns unnoticed.
func TestMarkdownStructure(t *testing.T) {
	md := []byte(Markdown(sampleView(), "AED"))
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(md))

	var tables, rows, headings int
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *east.Table:
			tables++
		case *east.TableRow:
			rows++
			if n.ChildCount() != len(Columns) {
				t.Errorf("row has %d cells, want %d", n.ChildCount(), len(Columns))
			}
		case *ast.Heading:
			if n.Level == 2 {
				headings++
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	if tables != 2 {
		t.Errorf("tables = %d, want 2", tables)
	}
	if rows != 2 {
		t.Errorf("body rows = %d, want 2", rows)
	}
	if headings != 3 {
		t.Errorf("section headings = %d, want 3", headings)
	}
}
