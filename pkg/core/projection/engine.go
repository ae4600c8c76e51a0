// Package projection builds year-by-year cashflow, tax and equity projections for a
// single property from its snapshot, loans and macro assumptions.
package projection

import (
	"time"

	"property_projection/pkg/core/calc"
	"property_projection/pkg/core/loan"
	"property_projection/pkg/models"
)

// Engine produces yearly projections. It holds no state between runs: the same
// inputs always produce the same series.
type Engine struct {
	opts Options
	now  func() time.Time
}

// NewEngine creates a projection engine.
func NewEngine(opts Options) *Engine {
	return &Engine{
		opts: opts.withDefaults(),
		now:  time.Now,
	}
}

// SetClock overrides the clock used to resolve the start year.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Options returns the effective run options.
func (e *Engine) Options() Options { return e.opts }

// ProjectPropertyCashflow runs a per-loan projection over horizonYears
// (0 means the 30-year default).
func ProjectPropertyCashflow(property models.PropertySnapshot, a models.Assumptions, horizonYears int) []models.YearlyProjection {
	return NewEngine(Options{HorizonYears: horizonYears}).Project(property, a)
}

// Project builds the ordered projection series for one property.
func (e *Engine) Project(property models.PropertySnapshot, a models.Assumptions) []models.YearlyProjection {
	horizon := e.opts.HorizonYears
	startYear := e.StartYear(a)
	loans := e.effectiveLoans(property.Loans)

	calcs := make([]*loan.Calculator, len(loans))
	balances := make([]float64, len(loans))
	for i, l := range loans {
		calcs[i] = loan.NewCalculator(l, horizon)
		if l.PrincipalAmount > 0 {
			balances[i] = l.PrincipalAmount
		}
	}

	cashInvested := CashInvested(property)
	marginal := a.MarginalTaxRate().Decimal()

	out := make([]models.YearlyProjection, horizon)
	var cumPrincipal, cumCashflow, cumCapitalGrowth float64
	prevValue := property.CurrentValue

	for y := 0; y < horizon; y++ {
		// -------------------------------------------------------------------------
		// Property value
		// -------------------------------------------------------------------------
		value := calc.Grow(property.CurrentValue, a.CapitalGrowth, y)
		capitalGrowth := 0.0
		if y > 0 {
			capitalGrowth = value - prevValue
		}
		prevValue = value

		// -------------------------------------------------------------------------
		// Debt service (balances carried between years)
		// -------------------------------------------------------------------------
		var interest, principal, balance float64
		for i, c := range calcs {
			r := c.ComputeYear(y, balances[i])
			interest += r.Interest
			principal += r.Principal
			balances[i] = r.ClosingBalance
			balance += r.ClosingBalance
		}

		// -------------------------------------------------------------------------
		// Operating income
		// -------------------------------------------------------------------------
		gross := calc.Grow(property.TotalAnnualIncome, a.RentGrowth, y)
		effectiveRent := gross * (1 - a.Vacancy.Decimal())
		pmFee := effectiveRent * a.PMFee.Decimal()
		opex := calc.Grow(property.TotalAnnualOutgoings, a.Inflation, y)
		noi := effectiveRent - pmFee - opex

		// -------------------------------------------------------------------------
		// Tax (negative gearing produces a benefit, never a negative tax)
		// -------------------------------------------------------------------------
		depreciation := value * a.Depreciation.Decimal()
		taxable := noi - interest - depreciation
		var tax, benefit float64
		if taxable > 0 {
			tax = taxable * marginal
		} else if taxable < 0 {
			benefit = -taxable * marginal
		}

		netCashflow := noi - interest - principal
		afterTax := noi - interest - principal - tax + benefit

		// -------------------------------------------------------------------------
		// Cumulative performance
		// -------------------------------------------------------------------------
		cumPrincipal += principal
		cumCashflow += afterTax
		cumCapitalGrowth += capitalGrowth
		totalPerf := cumCashflow + cumCapitalGrowth
		totalPerfIncPrincipal := totalPerf + cumPrincipal

		var coc, roic float64
		if cashInvested > 0 {
			coc = calc.SafeDiv(cumCashflow, cashInvested) * 100
			roic = calc.SafeDiv(totalPerfIncPrincipal, cashInvested) * 100
		}

		out[y] = models.YearlyProjection{
			YearIndex:                    y,
			Year:                         startYear + y,
			PropertyValue:                value,
			LoanBalance:                  balance,
			Equity:                       value - balance,
			GrossIncome:                  gross,
			VacancyLoss:                  gross - effectiveRent,
			EffectiveRent:                effectiveRent,
			PMFee:                        pmFee,
			OperatingExpenses:            opex,
			NOI:                          noi,
			InterestExpense:              interest,
			PrincipalPayment:             principal,
			Depreciation:                 depreciation,
			TaxableIncome:                taxable,
			Tax:                          tax,
			TaxBenefit:                   benefit,
			NetCashflow:                  netCashflow,
			AfterTaxCashflow:             afterTax,
			CumulativePrincipal:          cumPrincipal,
			CumulativeCashflow:           cumCashflow,
			CapitalGrowth:                capitalGrowth,
			CumulativeCapitalGrowth:      cumCapitalGrowth,
			TotalPerformance:             totalPerf,
			TotalPerformanceIncPrincipal: totalPerfIncPrincipal,
			CashOnCashReturnPct:          coc,
			ReturnOnInvestedCapitalPct:   roic,
		}
	}

	return out
}

// StartYear resolves the calendar year of index 0.
func (e *Engine) StartYear(a models.Assumptions) int {
	if a.StartYear > 0 {
		return a.StartYear
	}
	return e.now().Year()
}

// effectiveLoans applies the multi-loan mode.
func (e *Engine) effectiveLoans(loans []models.Loan) []models.Loan {
	if e.opts.MultiLoanMode == RepresentativeLoan && len(loans) > 1 {
		rep, _ := loan.Representative(loans)
		return []models.Loan{rep}
	}
	return loans
}
