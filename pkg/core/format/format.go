// Package format renders engine figures for display.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is shown for values that cannot be rendered.
const NotAvailable = "N/A"

// Currency renders a dollar amount with cents: -$1,234.50.
func Currency(v float64) string {
	return money(v, 2)
}

// CurrencyWhole renders a dollar amount rounded to whole dollars: $550,000.
func CurrencyWhole(v float64) string {
	return money(v, 0)
}

// Compact renders large amounts with a K/M/B suffix: $1.2M, $550K.
func Compact(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1e9:
		return sign + "$" + decimal.NewFromFloat(abs/1e9).Round(1).String() + "B"
	case abs >= 1e6:
		return sign + "$" + decimal.NewFromFloat(abs/1e6).Round(1).String() + "M"
	case abs >= 1e3:
		return sign + "$" + decimal.NewFromFloat(abs/1e3).Round(0).String() + "K"
	default:
		return money(v, 0)
	}
}

// Percent renders a value already expressed in percent: Percent(72.727, 1) == "72.7%".
func Percent(v float64, places int32) string {
	if !finite(v) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(places) + "%"
}

// Ratio renders a coverage ratio: 0.59x.
func Ratio(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(2) + "x"
}

func money(v float64, places int32) string {
	if !finite(v) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(v).Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	s := d.Abs().StringFixed(places)
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := sign + "$" + groupThousands(intPart)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
