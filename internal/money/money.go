// Package money holds the rounding rules every ledger amount goes through.
//
// Amounts are decimal.Decimal values in the major unit. Every sum is rounded to the
// cent right after each addition so that long runs of small additions cannot drift.
package money

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const cents = 2

// Round rounds d to the nearest cent, halves away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(cents)
}

func Add(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Add(b))
}

func Sub(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Sub(b))
}

// Sum adds values left to right, rounding after every step.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = Add(total, v)
	}
	return total
}

// Parse reads a decimal string and rounds it to the cent.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(d), nil
}

// Format renders d with two decimals and thousands separators, e.g. "1,234.50".
func Format(d decimal.Decimal) string {
	r := Round(d)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Neg()
	}
	whole := r.Truncate(0)
	frac := r.Sub(whole).Shift(cents).IntPart()
	return fmt.Sprintf("%s%s.%02d", sign, humanize.Comma(whole.IntPart()), frac)
}

// String is the canonical two-decimal form without separators, used for
// comparisons and audit values.
func String(d decimal.Decimal) string {
	return Round(d).StringFixed(cents)
}
