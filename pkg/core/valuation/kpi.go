// Package valuation derives headline KPIs from a property's projection series:
// break-even, discounted cashflow, milestones, debt coverage and leverage.
package valuation

import (
	"time"

	"property_projection/pkg/core/calc"
	"property_projection/pkg/core/loan"
	"property_projection/pkg/models"
)

// Options configure KPI derivation.
type Options struct {
	// AsOf decides which milestones count as achieved. Zero means time.Now().
	AsOf           time.Time      `json:"as_of"`
	MilestoneBasis MilestoneBasis `json:"milestone_basis" mapstructure:"milestone_basis"`
}

// DeriveKPIs computes every headline KPI for one property.
func DeriveKPIs(projections []models.YearlyProjection, property models.PropertySnapshot, a models.Assumptions, opts Options) models.KPIs {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	idx, year := BreakEven(projections)
	_, preTaxYear := PreTaxBreakEven(projections)
	totals := loan.Aggregate(property.Loans)

	kpis := models.KPIs{
		BreakEvenYear:       year,
		BreakEvenIndex:      idx,
		PreTaxBreakEvenYear: preTaxYear,
		NPV:                 NPV(projections, a.DiscountRate),
		Milestones:          Milestones(projections, property.TotalAnnualIncome, opts.MilestoneBasis, asOf),
		DSCR:                DSCR(property.TotalAnnualIncome, property.TotalAnnualOutgoings, property.Loans),
		LVR:                 LVR(totals.TotalPrincipal, property.CurrentValue),
		TotalPrincipal:      totals.TotalPrincipal,
		MonthlyRepayment:    totals.TotalMonthlyPayment,
	}
	if n := len(projections); n > 0 {
		kpis.FinalPropertyValue = projections[n-1].PropertyValue
		kpis.FinalEquity = projections[n-1].Equity
	}
	return kpis
}

// BreakEven returns the index and calendar year of the first year with a
// non-negative after-tax cashflow, or the final year when none is.
func BreakEven(projections []models.YearlyProjection) (index, year int) {
	return firstYear(projections, func(p models.YearlyProjection) bool {
		return p.AfterTaxCashflow >= 0
	})
}

// PreTaxBreakEven is BreakEven on the pre-tax net cashflow.
func PreTaxBreakEven(projections []models.YearlyProjection) (index, year int) {
	return firstYear(projections, func(p models.YearlyProjection) bool {
		return p.NetCashflow >= 0
	})
}

func firstYear(projections []models.YearlyProjection, ok func(models.YearlyProjection) bool) (int, int) {
	if len(projections) == 0 {
		return 0, 0
	}
	for i, p := range projections {
		if ok(p) {
			return i, p.Year
		}
	}
	last := projections[len(projections)-1]
	return len(projections) - 1, last.Year
}

// NPV discounts the after-tax cashflow series at the discount rate.
//
// FORMULA: Σ AfterTaxCashflow_y / (1 + d)^(y+1)
func NPV(projections []models.YearlyProjection, discount calc.Rate) float64 {
	cfs := make([]float64, len(projections))
	for i, p := range projections {
		cfs[i] = p.AfterTaxCashflow
	}
	return calc.NPV(cfs, discount)
}

// DSCR is (annual rent - annual expenses) / annual loan payment, where the payment
// is the standard PMT over each loan's own term. Unavailable without an
// interest-bearing loan.
func DSCR(annualRent, annualExpenses float64, loans []models.Loan) models.DSCR {
	annual, ok := loan.AnnualDebtService(loans)
	if !ok || annual <= 0 {
		return models.DSCR{}
	}
	return models.DSCR{Value: (annualRent - annualExpenses) / annual, Available: true}
}

// LVR is loan principal over property value, in percent.
func LVR(principal, value float64) float64 {
	return calc.SafeDiv(principal, value) * 100
}
