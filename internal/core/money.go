// Package core provides the dashboard data model and money helpers.
//
// Amounts are carried as decimal values so that sums over a page or a chart
// bucket are exact.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUSD formats an amount as a dollar string (e.g., "$1,234.50", "-$3.00").
func FormatUSD(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
