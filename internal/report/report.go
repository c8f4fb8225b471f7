// Package report renders a balance sheet as markdown for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"holdings/internal/core"
	"holdings/internal/services"
)

// Columns are the headings of the asset and liability tables.
var Columns = []string{
	"Category", "Subcategory", "Owner", "Acquisition", "Cost Basis", "Current Value",
	"Unrealized Gain", "Allocation", "IRR", "Status", "Last Updated",
}

// Options control terminal rendering.
type Options struct {
	// Currency is the ISO code amounts are shown in.
	Currency string
	// Style is a glamour standard style name such as "dark" or "notty".
	// Empty picks one from the terminal.
	Style string
	// Width wraps the output; zero keeps glamour's default.
	Width int
}

// Cells formats one row for display, in Columns order. Liability amounts
// are parenthesized and absent values show the placeholder.
func Cells(r core.CanonicalRow, currency string) []string {
	return []string{
		r.Category,
		Subcategory(r),
		r.Owner,
		core.FormatDate(r.Acquisition),
		Amount(r.CostBasis, r.Type, currency),
		Amount(r.CurrentValue, r.Type, currency),
		Gain(r.UnrealizedGain, currency),
		core.FormatShare(r.Allocation),
		core.FormatPercent(r.IRR),
		r.Status.Badge(),
		core.FormatDate(r.LastUpdated),
	}
}

// Subcategory returns the sub-label or the placeholder.
func Subcategory(r core.CanonicalRow) string {
	if !r.HasSubcategory() {
		return core.Placeholder
	}
	return r.Subcategory
}

// Amount formats a value column.
func Amount(v decimal.NullDecimal, typ core.EntryType, currency string) string {
	if !v.Valid {
		return core.Placeholder
	}
	if typ == core.EntryLiability {
		return core.FormatParenthesized(v.Decimal, currency)
	}
	return core.FormatCurrency(v.Decimal, currency)
}

// Gain formats an unrealized gain, keeping its sign.
func Gain(v decimal.NullDecimal, currency string) string {
	if !v.Valid {
		return core.Placeholder
	}
	return core.FormatSigned(v.Decimal, currency)
}

// Markdown lays the view out as a markdown document: a table per side with
// its subtotal, then net equity.
func Markdown(view services.BalanceView, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Balance Sheet\n\n")

	if view.Degraded {
		fmt.Fprintf(&b, "> **Unavailable:** %s\n\n", escape(view.Reason))
	}
	if filter := describeQuery(view.Query); filter != "" {
		fmt.Fprintf(&b, "_Filtered by %s_\n\n", filter)
	}

	section(&b, "Assets", view.Assets, view.AssetCount, core.FormatCurrency(view.TotalAssets, currency), currency)
	section(&b, "Liabilities", view.Liabilities, view.LiabilityCount, core.FormatParenthesized(view.TotalLiabilities, currency), currency)

	fmt.Fprintf(&b, "## Net Equity: %s\n", core.FormatSigned(view.NetEquity, currency))

	if len(view.Skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped invalid holdings: %s\n", strings.Join(view.Skipped, ", "))
	}
	if len(view.Unknown) > 0 {
		fmt.Fprintf(&b, "\nHoldings with an unknown category: %s\n", strings.Join(view.Unknown, ", "))
	}
	return b.String()
}

func section(b *strings.Builder, title string, rows []core.CanonicalRow, count int, subtotal, currency string) {
	fmt.Fprintf(b, "## %s (%d of %d)\n\n", title, len(rows), count)
	if len(rows) == 0 {
		fmt.Fprintf(b, "No %s match.\n\n", strings.ToLower(title))
	} else {
		fmt.Fprintf(b, "| %s |\n", strings.Join(Columns, " | "))
		fmt.Fprintf(b, "|%s\n", strings.Repeat(":---|", len(Columns)))
		for _, r := range rows {
			cells := Cells(r, currency)
			for i := range cells {
				cells[i] = escape(cells[i])
			}
			fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
		}
		fmt.Fprintln(b)
	}
	fmt.Fprintf(b, "**Total %s:** %s\n\n", title, subtotal)
}

func describeQuery(q core.Query) string {
	var parts []string
	if q.SearchText != "" {
		parts = append(parts, fmt.Sprintf("search %q", q.SearchText))
	}
	if q.OwnerFilter != "" && q.OwnerFilter != core.AllOwners {
		parts = append(parts, "owner "+q.OwnerFilter)
	}
	return strings.Join(parts, " and ")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Render turns the markdown report into styled terminal output.
func Render(view services.BalanceView, opts Options) (string, error) {
	return render(Markdown(view, opts.Currency), opts)
}

// SnapshotsMarkdown lists snapshots newest first with the change in net
// equity against the previous one.
func SnapshotsMarkdown(snaps []core.Snapshot, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Net Equity History\n\n")
	if len(snaps) == 0 {
		fmt.Fprintf(&b, "No snapshots recorded yet.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "| Taken | Holdings | Total Assets | Total Liabilities | Net Equity | Change |\n")
	fmt.Fprintf(&b, "|:---|---:|---:|---:|---:|---:|\n")
	for i, s := range snaps {
		change := core.Placeholder
		if i+1 < len(snaps) {
			change = core.FormatSigned(s.NetEquity.Sub(snaps[i+1].NetEquity), currency)
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s |\n",
			s.TakenAt.Format("2 Jan 2006 15:04"),
			s.Holdings,
			core.FormatCurrency(s.TotalAssets, currency),
			core.FormatParenthesized(s.TotalLiabilities, currency),
			core.FormatSigned(s.NetEquity, currency),
			change)
	}
	return b.String()
}

// RenderSnapshots renders SnapshotsMarkdown for the terminal.
func RenderSnapshots(snaps []core.Snapshot, opts Options) (string, error) {
	return render(SnapshotsMarkdown(snaps, opts.Currency), opts)
}

func render(md string, opts Options) (string, error) {
	ropts := []glamour.TermRendererOption{glamour.WithEmoji()}
	if opts.Style != "" {
		ropts = append(ropts, glamour.WithStandardStyle(opts.Style))
	} else {
		ropts = append(ropts, glamour.WithAutoStyle())
	}
	if opts.Width > 0 {
		ropts = append(ropts, glamour.WithWordWrap(opts.Width))
	}

	r, err := glamour.NewTermRenderer(ropts...)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}
