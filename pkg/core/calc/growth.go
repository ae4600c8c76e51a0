package calc

import "math"

// =============================================================================
// GROWTH & PAYMENTS
// =============================================================================

// Grow compounds a base-year value forward.
//
// FORMULA: base × (1 + rate)^yearIndex
//
// Used for rent (rent growth), operating expenses (inflation) and property
// value (capital growth). Year 0 always returns base unchanged.
func Grow(base float64, rate Rate, yearIndex int) float64 {
	if yearIndex <= 0 {
		return base
	}
	return base * math.Pow(1+rate.Decimal(), float64(yearIndex))
}

// MonthlyPayment calculates the fixed payment amortizing principal over months.
//
// FORMULA: PMT = P × r × (1+r)^n / ((1+r)^n - 1), r = annual / 12
//
// A zero rate falls back to straight-line principal / n.
func MonthlyPayment(principal float64, annual Rate, months int) float64 {
	if principal <= 0 || months <= 0 {
		return 0
	}
	r := annual.Decimal() / 12
	if r == 0 {
		return principal / float64(months)
	}
	factor := math.Pow(1+r, float64(months))
	return principal * r * factor / (factor - 1)
}

// InterestOnlyPayment is the monthly interest on an interest-only balance.
func InterestOnlyPayment(principal float64, annual Rate) float64 {
	if principal <= 0 {
		return 0
	}
	return principal * annual.Decimal() / 12
}

// SafeDiv returns num/den, or 0 when den is zero or the result is not finite.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}
