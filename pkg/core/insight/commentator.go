// Package insight writes a short narrative commentary for a projection.
package insight

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"property_projection/pkg/core/format"
	"property_projection/pkg/core/llm"
	"property_projection/pkg/core/utils"
	"property_projection/pkg/models"
)

const systemPrompt = `You are a property investment analyst. Write a short Markdown
commentary (at most 150 words) for a private investor. Use only the facts given.
Do not give financial advice. Start with a "## Summary" heading.`

// Commentary is a rendered narrative plus the provider that produced it.
type Commentary struct {
	Markdown string `json:"markdown"`
	Provider string `json:"provider"`
	Fallback bool   `json:"fallback"`
}

// Commentator turns KPIs and projections into narrative text.
type Commentator struct {
	provider llm.Provider
	log      *zap.Logger
}

// NewCommentator uses provider, or the offline template provider when nil.
func NewCommentator(provider llm.Provider, log *zap.Logger) *Commentator {
	if provider == nil {
		provider = llm.TemplateProvider{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Commentator{provider: provider, log: log}
}

// Summarize asks the provider for commentary. If the provider fails or returns
// unusable text, the offline template output is returned instead.
func (c *Commentator) Summarize(ctx context.Context, name string, kpis models.KPIs, projections []models.YearlyProjection) (Commentary, error) {
	prompt := BuildPrompt(name, kpis, projections)

	text, err := c.provider.GenerateResponse(ctx, prompt, systemPrompt, llm.Options{})
	if err == nil {
		text = utils.CleanMarkdown(text)
		if utils.ValidateMarkdown(text) {
			return Commentary{Markdown: text, Provider: c.provider.Name()}, nil
		}
		err = fmt.Errorf("provider returned empty commentary")
	}
	if ctx.Err() != nil {
		return Commentary{}, ctx.Err()
	}

	c.log.Warn("insight provider failed, using template",
		zap.String("provider", c.provider.Name()),
		zap.Error(err))

	fallback := llm.TemplateProvider{}
	text, ferr := fallback.GenerateResponse(ctx, prompt, systemPrompt, llm.Options{})
	if ferr != nil {
		return Commentary{}, fmt.Errorf("commentary: %w", ferr)
	}
	return Commentary{Markdown: text, Provider: fallback.Name(), Fallback: true}, nil
}

// BuildPrompt lists the facts the narrative may draw on, one bullet per fact.
func BuildPrompt(name string, kpis models.KPIs, projections []models.YearlyProjection) string {
	if name == "" {
		name = "the property"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write a commentary on the projection for %s.\n\n## Facts\n", name)

	if n := len(projections); n > 0 {
		first, last := projections[0], projections[n-1]
		fmt.Fprintf(&b, "- Horizon: %d years (%d to %d)\n", n, first.Year, last.Year)
		fmt.Fprintf(&b, "- Property value grows from %s to %s\n", format.Compact(first.PropertyValue), format.Compact(last.PropertyValue))
		fmt.Fprintf(&b, "- Year-one after-tax cashflow: %s\n", format.CurrencyWhole(first.AfterTaxCashflow))
		fmt.Fprintf(&b, "- Cumulative after-tax cashflow: %s\n", format.CurrencyWhole(last.CumulativeCashflow))
	}
	if kpis.BreakEvenYear > 0 {
		fmt.Fprintf(&b, "- After-tax break-even year: %d\n", kpis.BreakEvenYear)
	}
	fmt.Fprintf(&b, "- NPV of after-tax cashflow: %s\n", format.Currency(kpis.NPV))
	fmt.Fprintf(&b, "- LVR: %s\n", format.Percent(kpis.LVR, 1))
	fmt.Fprintf(&b, "- DSCR: %s\n", kpis.DSCR)
	fmt.Fprintf(&b, "- Final equity: %s\n", format.Compact(kpis.FinalEquity))
	for _, m := range kpis.Milestones {
		if m.Reached {
			fmt.Fprintf(&b, "- %s: %d\n", m.Label, m.Year)
		}
	}
	return b.String()
}
