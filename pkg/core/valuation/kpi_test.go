package valuation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property_projection/pkg/core/calc"
	"property_projection/pkg/core/projection"
	"property_projection/pkg/models"
)

func exampleProperty() models.PropertySnapshot {
	return models.PropertySnapshot{
		CurrentValue:         550000,
		TotalAnnualIncome:    25000,
		TotalAnnualOutgoings: 8000,
		Loans: []models.Loan{{
			PrincipalAmount: 400000,
			InterestRate:    calc.Pct(6),
			TermYears:       30,
			Type:            models.LoanPrincipalInterest,
		}},
	}
}

func series(year0 int, cashflows ...float64) []models.YearlyProjection {
	out := make([]models.YearlyProjection, len(cashflows))
	var cum float64
	for i, cf := range cashflows {
		cum += cf
		out[i] = models.YearlyProjection{
			YearIndex:          i,
			Year:               year0 + i,
			AfterTaxCashflow:   cf,
			NetCashflow:        cf + 100,
			CumulativeCashflow: cum,
		}
	}
	return out
}

func TestBreakEven(t *testing.T) {
	idx, year := BreakEven(series(2025, -300, -100, 0, 50))
	assert.Equal(t, 2, idx)
	assert.Equal(t, 2027, year)

	// Never positive: the final year is reported.
	idx, year = BreakEven(series(2025, -300, -200, -100))
	assert.Equal(t, 2, idx)
	assert.Equal(t, 2027, year)

	idx, year = BreakEven(nil)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0, year)
}

func TestPreTaxBreakEven(t *testing.T) {
	// Pre-tax cashflow is 100 higher in the fixture.
	_, year := PreTaxBreakEven(series(2025, -300, -100, 0))
	assert.Equal(t, 2026, year)
}

func TestBreakEven_MonotonicInRentGrowth(t *testing.T) {
	property := exampleProperty()
	prev := math.MaxInt
	for g := 0.0; g <= 10; g += 0.5 {
		a := models.Assumptions{
			RentGrowth:    calc.Pct(g),
			CapitalGrowth: calc.Pct(5),
			Inflation:     calc.Pct(2.5),
			TaxRate:       calc.Pct(30),
			Depreciation:  calc.Pct(2.5),
			StartYear:     2025,
		}
		_, year := BreakEven(projection.ProjectPropertyCashflow(property, a, 30))
		if year > prev {
			t.Errorf("rent growth %.1f%%: break-even moved later (%d after %d)", g, year, prev)
		}
		prev = year
	}
}

func TestNPV(t *testing.T) {
	got := NPV(series(2025, 110, 121), calc.Pct(10))
	assert.InDelta(t, 200.0, got, 1e-9)
}

func TestDSCR(t *testing.T) {
	d := DSCR(25000, 8000, exampleProperty().Loans)
	require.True(t, d.Available)
	// 17000 / 28778.43
	assert.InDelta(t, 0.5907, d.Value, 0.0005)
	assert.Equal(t, "0.59x", d.String())

	none := DSCR(25000, 8000, nil)
	assert.False(t, none.Available)
	assert.Equal(t, "N/A", none.String())

	zeroRate := DSCR(25000, 8000, []models.Loan{{PrincipalAmount: 400000, TermYears: 30}})
	assert.False(t, zeroRate.Available)
}

func TestLVR(t *testing.T) {
	assert.InDelta(t, 72.727, LVR(400000, 550000), 0.001)
	assert.Equal(t, 0.0, LVR(400000, 0))
}

func TestMilestones_PerYear(t *testing.T) {
	asOf := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	// Base rent 1000 → targets 0, 250, 500, 750, 1000
	got := Milestones(series(2025, -100, 10, 300, 600, 800), 1000, BasisPerYear, asOf)
	require.Len(t, got, 5)

	assert.Equal(t, 2026, got[0].Year)
	assert.True(t, got[0].Achieved)
	assert.Equal(t, "Cashflow neutral", got[0].Label)

	assert.Equal(t, 2027, got[1].Year)
	assert.True(t, got[1].Achieved)
	assert.Equal(t, 250.0, got[1].Target)

	assert.Equal(t, 2028, got[2].Year)
	assert.False(t, got[2].Achieved)
	assert.True(t, got[2].Reached)

	assert.Equal(t, 2029, got[3].Year)

	assert.False(t, got[4].Reached)
	assert.False(t, got[4].Achieved)
	assert.Equal(t, 0, got[4].Year)
}

func TestMilestones_Cumulative(t *testing.T) {
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// Cumulative: 400, 800, 1200
	got := Milestones(series(2025, 400, 400, 400), 1000, BasisCumulative, asOf)
	assert.Equal(t, 2025, got[1].Year)
	assert.Equal(t, 2026, got[3].Year)
	assert.Equal(t, 2027, got[4].Year)
	assert.False(t, got[4].Achieved)
}

func TestDeriveKPIs(t *testing.T) {
	property := exampleProperty()
	a := models.Assumptions{
		RentGrowth:    calc.Pct(3),
		CapitalGrowth: calc.Pct(5),
		Inflation:     calc.Pct(2.5),
		TaxRate:       calc.Pct(30),
		Depreciation:  calc.Pct(2.5),
		DiscountRate:  calc.Pct(7),
		StartYear:     2025,
	}
	years := projection.ProjectPropertyCashflow(property, a, 30)
	kpis := DeriveKPIs(years, property, a, Options{AsOf: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)})

	assert.GreaterOrEqual(t, kpis.BreakEvenYear, 2025)
	assert.LessOrEqual(t, kpis.BreakEvenYear, 2054)
	assert.Equal(t, kpis.BreakEvenYear, years[kpis.BreakEvenIndex].Year)
	assert.InDelta(t, NPV(years, a.DiscountRate), kpis.NPV, 1e-9)
	assert.InDelta(t, 72.727, kpis.LVR, 0.001)
	assert.True(t, kpis.DSCR.Available)
	assert.Equal(t, 400000.0, kpis.TotalPrincipal)
	assert.InDelta(t, 2398.20, kpis.MonthlyRepayment, 0.01)
	assert.Equal(t, years[29].PropertyValue, kpis.FinalPropertyValue)
	assert.Equal(t, years[29].Equity, kpis.FinalEquity)
	assert.Len(t, kpis.Milestones, len(MilestoneTargets))
}
