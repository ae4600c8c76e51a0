package calc

import "math"

// DiscountFactor returns 1 / (1 + rate)^periods.
func DiscountFactor(rate Rate, periods int) float64 {
	return SafeDiv(1, math.Pow(1+rate.Decimal(), float64(periods)))
}

// NPV discounts a yearly cashflow series, the first entry one period out.
//
// FORMULA: NPV = Σ CF_y / (1 + d)^(y+1)
//
// Each term is discounted with its own power rather than a running factor so the
// result does not drift with series length.
func NPV(cashflows []float64, rate Rate) float64 {
	var npv float64
	for y, cf := range cashflows {
		npv += SafeDiv(cf, math.Pow(1+rate.Decimal(), float64(y+1)))
	}
	return npv
}
