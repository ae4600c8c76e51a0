package valuation

import (
	"fmt"
	"time"

	"property_projection/pkg/models"
)

// MilestoneBasis selects which cashflow figure is tested against a milestone target.
type MilestoneBasis string

const (
	// BasisPerYear tests each year's after-tax cashflow.
	BasisPerYear MilestoneBasis = "per_year"
	// BasisCumulative tests the running total of after-tax cashflow.
	BasisCumulative MilestoneBasis = "cumulative"
)

// MilestoneTargets are shares of base annual rent, in percent.
var MilestoneTargets = []float64{0, 25, 50, 75, 100}

// Milestones finds, for each target share of base annual rent, the first year the
// cashflow meets it. A milestone is achieved once its year is not after asOf.
func Milestones(projections []models.YearlyProjection, baseAnnualRent float64, basis MilestoneBasis, asOf time.Time) []models.Milestone {
	out := make([]models.Milestone, 0, len(MilestoneTargets))
	for _, pct := range MilestoneTargets {
		target := baseAnnualRent * pct / 100
		m := models.Milestone{
			Label:     milestoneLabel(pct),
			Target:    target,
			TargetPct: pct,
		}
		for _, p := range projections {
			cf := p.AfterTaxCashflow
			if basis == BasisCumulative {
				cf = p.CumulativeCashflow
			}
			if cf >= target {
				m.Year = p.Year
				m.Reached = true
				m.Achieved = p.Year <= asOf.Year()
				break
			}
		}
		out = append(out, m)
	}
	return out
}

func milestoneLabel(pct float64) string {
	switch pct {
	case 0:
		return "Cashflow neutral"
	case 100:
		return "Cashflow covers full rent"
	default:
		return fmt.Sprintf("Cashflow at %.0f%% of rent", pct)
	}
}
