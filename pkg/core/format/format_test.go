package format

import (
	"math"
	"testing"
)

func TestCurrency(t *testing.T) {
	cases := map[float64]string{
		28778.4:     "$28,778.40",
		0:           "$0.00",
		999.999:     "$1,000.00",
		-1234.5:     "-$1,234.50",
		1234567.891: "$1,234,567.89",
	}
	for in, want := range cases {
		if got := Currency(in); got != want {
			t.Errorf("Currency(%v): expected %q, got %q", in, want, got)
		}
	}
}

func TestCurrencyWhole(t *testing.T) {
	if got := CurrencyWhole(550000.4); got != "$550,000" {
		t.Errorf("expected $550,000, got %q", got)
	}
	if got := CurrencyWhole(-20750.6); got != "-$20,751" {
		t.Errorf("expected -$20,751, got %q", got)
	}
}

func TestCompact(t *testing.T) {
	cases := map[float64]string{
		1_234_000:     "$1.2M",
		550_000:       "$550K",
		2_500_000_000: "$2.5B",
		-3_400_000:    "-$3.4M",
		950:           "$950",
	}
	for in, want := range cases {
		if got := Compact(in); got != want {
			t.Errorf("Compact(%v): expected %q, got %q", in, want, got)
		}
	}
}

func TestPercentAndRatio(t *testing.T) {
	if got := Percent(72.72727, 1); got != "72.7%" {
		t.Errorf("expected 72.7%%, got %q", got)
	}
	if got := Ratio(0.5907); got != "0.59x" {
		t.Errorf("expected 0.59x, got %q", got)
	}
}

func TestNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Currency(v) != NotAvailable || Percent(v, 1) != NotAvailable || Ratio(v) != NotAvailable || Compact(v) != NotAvailable {
			t.Errorf("expected %q for %v", NotAvailable, v)
		}
	}
}
