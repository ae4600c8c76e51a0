// Package report renders a property projection as Markdown or HTML.
package report

import (
	"fmt"
	"strings"

	"property_projection/pkg/core/format"
	"property_projection/pkg/core/utils"
	"property_projection/pkg/models"
)

// Format selects the output of a rendered report.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown", "md" or "html". Empty defaults to markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Markdown renders the KPI summary, milestones and the yearly table.
func Markdown(name string, projections []models.YearlyProjection, kpis models.KPIs) string {
	if name == "" {
		name = "Property"
	}
	var b strings.Builder

	fmt.Fprintf(&b, "# %s projection\n\n", name)
	if n := len(projections); n > 0 {
		fmt.Fprintf(&b, "%d-year projection, %d to %d.\n\n", n, projections[0].Year, projections[n-1].Year)
	}

	b.WriteString("## Key figures\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	row := func(label, value string) { fmt.Fprintf(&b, "| %s | %s |\n", label, value) }
	row("Break-even year (after tax)", yearOrDash(kpis.BreakEvenYear))
	row("Break-even year (pre tax)", yearOrDash(kpis.PreTaxBreakEvenYear))
	row("NPV of after-tax cashflow", format.Currency(kpis.NPV))
	row("DSCR", kpis.DSCR.String())
	row("LVR", format.Percent(kpis.LVR, 1))
	row("Total borrowed", format.CurrencyWhole(kpis.TotalPrincipal))
	row("Monthly repayment", format.Currency(kpis.MonthlyRepayment))
	row("Final property value", format.Compact(kpis.FinalPropertyValue))
	row("Final equity", format.Compact(kpis.FinalEquity))
	b.WriteString("\n")

	if len(kpis.Milestones) > 0 {
		b.WriteString("## Milestones\n\n")
		b.WriteString("| Milestone | Target | Year | Status |\n|---|---|---|---|\n")
		for _, m := range kpis.Milestones {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", m.Label, format.CurrencyWhole(m.Target), yearOrDash(m.Year), status(m))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Yearly projection\n\n")
	b.WriteString("| Year | Value | Loan | Equity | Rent | NOI | Interest | Principal | Tax | After-tax cashflow | Cumulative |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|---|\n")
	for _, p := range projections {
		tax := format.CurrencyWhole(p.Tax)
		if p.TaxBenefit > 0 {
			tax = "-" + format.CurrencyWhole(p.TaxBenefit)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			p.Year,
			format.CurrencyWhole(p.PropertyValue),
			format.CurrencyWhole(p.LoanBalance),
			format.CurrencyWhole(p.Equity),
			format.CurrencyWhole(p.EffectiveRent),
			format.CurrencyWhole(p.NOI),
			format.CurrencyWhole(p.InterestExpense),
			format.CurrencyWhole(p.PrincipalPayment),
			tax,
			format.CurrencyWhole(p.AfterTaxCashflow),
			format.CurrencyWhole(p.CumulativeCashflow),
		)
	}
	return b.String()
}

// HTML converts a rendered Markdown report into an HTML fragment.
func HTML(markdown string) (string, error) {
	return utils.RenderHTML(markdown)
}

// Render produces the report in the requested format.
func Render(f Format, name string, projections []models.YearlyProjection, kpis models.KPIs) (string, error) {
	md := Markdown(name, projections, kpis)
	if f == FormatHTML {
		return HTML(md)
	}
	return md, nil
}

func yearOrDash(year int) string {
	if year == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", year)
}

func status(m models.Milestone) string {
	switch {
	case m.Achieved:
		return "achieved"
	case m.Reached:
		return "projected"
	default:
		return "not reached"
	}
}
