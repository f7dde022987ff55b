// Package money holds the arithmetic shared by documents and reports. Amounts are int64
// minor units; quantities, percentages and rates are decimals.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PercentOf returns amount * pct / 100 rounded half away from zero.
func PercentOf(amount int64, pct decimal.Decimal) int64 {
	return round(decimal.NewFromInt(amount).Mul(pct).Div(hundred))
}

// Mul returns qty * price rounded half away from zero.
func Mul(qty decimal.Decimal, price int64) int64 {
	return round(qty.Mul(decimal.NewFromInt(price)))
}

// ValidPercent reports whether pct lies in [0, 100].
func ValidPercent(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(hundred)
}

func round(d decimal.Decimal) int64 {
	// decimal.Round rounds half away from zero.
	return d.Round(0).IntPart()
}

// Format renders minor units with two decimals and thousands separators, e.g. 1234567 -> "12,345.67".
func Format(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	units := fmt.Sprintf("%d", amount/100)
	var b strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s%s.%02d", sign, b.String(), amount%100)
}
