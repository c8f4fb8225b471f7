// Package core provides money parsing and display utilities.
//
// Amounts are kept as decimal.Decimal end to end. go-money is only used for
// currency metadata when rendering an amount for people.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the display currency when none is configured.
const DefaultCurrency = "AED"

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts user input to an exact decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading minus sign. Thousands separators are not accepted.
//
// Examples:
//
//	ParseAmount("12.34")   -> 12.34, nil
//	ParseAmount("12,34")   -> 12.34, nil
//	ParseAmount("-1500")   -> -1500, nil
//	ParseAmount("1.2.3")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE+") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatCurrency renders the absolute value of d in whole units of the given
// currency, e.g. "1,250,000 .د.إ" for AED. Sign handling is left to the
// caller, which shows liabilities in parentheses.
func FormatCurrency(d decimal.Decimal, code string) string {
	if code == "" {
		code = DefaultCurrency
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%s %s", code, d.Abs().Round(0).StringFixed(0))
	}
	whole := d.Abs().Round(0)
	if whole.BigInt().IsInt64() {
		f := money.NewFormatter(0, cur.Decimal, cur.Thousand, cur.Grapheme, cur.Template)
		return f.Format(whole.IntPart())
	}
	return formatWide(whole.StringFixed(0), cur)
}

// formatWide applies the currency's grouping and template to an amount too
// large for the int64 formatter.
func formatWide(digits string, cur *money.Currency) string {
	if cur.Thousand != "" {
		var b strings.Builder
		for i, r := range digits {
			if i > 0 && (len(digits)-i)%3 == 0 {
				b.WriteString(cur.Thousand)
			}
			b.WriteRune(r)
		}
		digits = b.String()
	}
	out := strings.Replace(cur.Template, "1", digits, 1)
	return strings.Replace(out, "$", cur.Grapheme, 1)
}

// FormatSigned is FormatCurrency with a leading minus for negative values.
func FormatSigned(d decimal.Decimal, code string) string {
	if d.IsNegative() {
		return "-" + FormatCurrency(d, code)
	}
	return FormatCurrency(d, code)
}

// FormatParenthesized wraps the absolute value in parentheses, the way the
// balance sheet shows liabilities.
func FormatParenthesized(d decimal.Decimal, code string) string {
	return "(" + FormatCurrency(d, code) + ")"
}

// FormatDate renders a date as "2 Jan 2006", or the placeholder when absent.
func FormatDate(d *Date) string {
	if d == nil || d.IsEmpty() {
		return Placeholder
	}
	return d.Format("2 Jan 2006")
}

// FormatPercent renders a percentage with one decimal, e.g. "12.5%".
func FormatPercent(p decimal.Decimal) string {
	return p.StringFixed(1) + "%"
}

// FormatShare renders an allocation fraction as a percentage.
func FormatShare(fraction decimal.Decimal) string {
	return FormatPercent(fraction.Shift(2))
}
