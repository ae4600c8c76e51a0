// Package loan amortizes property loans year by year over a projection horizon.
package loan

import (
	"math"

	"property_projection/pkg/core/calc"
	"property_projection/pkg/models"
)

// DefaultHorizonYears is the projection horizon the engine amortizes over.
const DefaultHorizonYears = 30

// Shape classifies how a loan repays over the horizon.
type Shape int

const (
	// ShapeNone is a zero or negative principal: no interest, no repayment.
	ShapeNone Shape = iota
	// ShapeInterestOnly pays interest every year and balloons in the final year.
	ShapeInterestOnly
	// ShapeAmortizing pays interest only for IOYears, then principal and interest.
	ShapeAmortizing
)

func (s Shape) String() string {
	switch s {
	case ShapeInterestOnly:
		return "interest_only"
	case ShapeAmortizing:
		return "amortizing"
	default:
		return "none"
	}
}

// YearResult is one year of a loan's repayment.
type YearResult struct {
	Interest       float64
	Principal      float64
	ClosingBalance float64
}

// Calculator amortizes a single loan. The monthly payment is fixed once per loan.
type Calculator struct {
	shape      Shape
	rate       calc.Rate
	ioYears    int
	horizon    int
	monthlyPMT float64
}

// NewCalculator prepares the amortization for a loan over horizon years.
//
// Shape rules:
//   - interest_only with IOYears == 0, IOYears >= TermYears or IOYears >= horizon: pure IO.
//   - interest_only with 0 < IOYears < horizon: IO then P&I over (horizon - IOYears) years.
//   - principal_interest: IOYears >= TermYears is clamped to TermYears-1, then treated
//     as an IO grace period followed by P&I over (horizon - IOYears) years.
//
// PMT is always taken on the original principal.
func NewCalculator(l models.Loan, horizon int) *Calculator {
	if horizon <= 0 {
		horizon = DefaultHorizonYears
	}
	c := &Calculator{rate: l.InterestRate, horizon: horizon}
	if l.PrincipalAmount <= 0 {
		c.shape = ShapeNone
		return c
	}

	io := l.IOYears
	if io < 0 {
		io = 0
	}

	if l.Type == models.LoanInterestOnly {
		if io == 0 || (l.TermYears > 0 && io >= l.TermYears) || io >= horizon {
			c.shape = ShapeInterestOnly
			return c
		}
	} else if l.TermYears > 0 && io >= l.TermYears {
		io = l.TermYears - 1
		if io < 0 {
			io = 0
		}
	}
	if io >= horizon {
		io = horizon - 1
	}

	c.shape = ShapeAmortizing
	c.ioYears = io
	c.monthlyPMT = calc.MonthlyPayment(l.PrincipalAmount, l.InterestRate, (horizon-io)*12)
	return c
}

// Shape reports how the loan repays.
func (c *Calculator) Shape() Shape { return c.shape }

// IOYears is the effective interest-only period after clamping.
func (c *Calculator) IOYears() int { return c.ioYears }

// MonthlyPMT is the fixed P&I payment (0 for pure IO or no loan).
func (c *Calculator) MonthlyPMT() float64 { return c.monthlyPMT }

// ComputeYear returns interest, principal and closing balance for yearIndex,
// given the balance at the start of that year.
func (c *Calculator) ComputeYear(yearIndex int, openingBalance float64) YearResult {
	if c.shape == ShapeNone || openingBalance <= 0 {
		return YearResult{}
	}

	annual := c.rate.Decimal()
	finalYear := yearIndex >= c.horizon-1

	var interest, principal float64
	switch {
	case c.shape == ShapeInterestOnly:
		interest = openingBalance * annual
		if finalYear {
			principal = openingBalance
		}
	case yearIndex < c.ioYears:
		interest = openingBalance * annual
	case finalYear:
		interest = openingBalance * annual
		principal = openingBalance
	default:
		interest, principal = c.simulateMonths(openingBalance)
	}

	return YearResult{
		Interest:       interest,
		Principal:      principal,
		ClosingBalance: math.Max(0, openingBalance-principal),
	}
}

// simulateMonths runs twelve monthly repayments against the fixed PMT.
func (c *Calculator) simulateMonths(balance float64) (interest, principal float64) {
	monthlyRate := c.rate.Decimal() / 12
	for m := 0; m < 12; m++ {
		if balance <= 0 {
			break
		}
		monthlyInterest := balance * monthlyRate
		paid := math.Min(c.monthlyPMT-monthlyInterest, balance)
		interest += monthlyInterest
		principal += paid
		balance -= paid
	}
	return interest, principal
}

// Schedule amortizes a loan across the whole horizon, threading the closing
// balance of each year into the next.
func Schedule(l models.Loan, horizon int) []YearResult {
	c := NewCalculator(l, horizon)
	out := make([]YearResult, c.horizon)
	balance := math.Max(0, l.PrincipalAmount)
	for y := 0; y < c.horizon; y++ {
		out[y] = c.ComputeYear(y, balance)
		balance = out[y].ClosingBalance
	}
	return out
}
