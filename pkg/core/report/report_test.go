package report

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property_projection/pkg/core/calc"
	"property_projection/pkg/core/projection"
	"property_projection/pkg/core/valuation"
	"property_projection/pkg/models"
)

func fixture() ([]models.YearlyProjection, models.KPIs) {
	property := models.PropertySnapshot{
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
	kpis := valuation.DeriveKPIs(years, property, a, valuation.Options{AsOf: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	return years, kpis
}

func TestMarkdown(t *testing.T) {
	years, kpis := fixture()
	md := Markdown("12 Smith St", years, kpis)

	assert.True(t, strings.HasPrefix(md, "# 12 Smith St projection"))
	assert.Contains(t, md, "30-year projection, 2025 to 2054.")
	assert.Contains(t, md, "| DSCR | 0.59x |")
	assert.Contains(t, md, "| LVR | 72.7% |")
	assert.Contains(t, md, "| Monthly repayment | $2,398.20 |")
	assert.Contains(t, md, "| 2025 | $550,000 |")
	assert.Contains(t, md, "Cashflow neutral")
}

func TestHTML_YearlyTable(t *testing.T) {
	years, kpis := fixture()
	out, err := Render(FormatHTML, "12 Smith St", years, kpis)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, "12 Smith St projection", doc.Find("h1").First().Text())
	tables := doc.Find("table")
	require.Equal(t, 3, tables.Length())

	rows := tables.Last().Find("tbody tr")
	assert.Equal(t, 30, rows.Length())
	assert.Equal(t, "2025", rows.First().Find("td").First().Text())
	assert.Equal(t, "2054", rows.Last().Find("td").First().Text())
}

func TestRender_NoLoanDSCR(t *testing.T) {
	years, kpis := fixture()
	kpis.DSCR = models.DSCR{}
	md, err := Render(FormatMarkdown, "", years, kpis)
	require.NoError(t, err)
	assert.Contains(t, md, "| DSCR | N/A |")
	assert.True(t, strings.HasPrefix(md, "# Property projection"))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "md": FormatMarkdown, "HTML": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}
