// Package money formats Colombian peso amounts.
package money

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCOP renders an amount rounded to whole pesos with dot thousands
// separators, e.g. "$ 1.234.567".
func FormatCOP(amount decimal.Decimal) string {
	n := amount.Round(0).IntPart()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + "$ " + humanize.FormatInteger("#.###,", int(n))
}

// FormatFloat is FormatCOP for prices as they arrive from the catalog.
func FormatFloat(amount float64) string {
	return FormatCOP(decimal.NewFromFloat(amount))
}

// LineTotal returns price × quantity.
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}
