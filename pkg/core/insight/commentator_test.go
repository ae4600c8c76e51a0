package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property_projection/pkg/core/llm"
	"property_projection/pkg/models"
)

type mockProvider struct {
	GenerateFunc func(ctx context.Context, prompt, system string) (string, error)
	lastPrompt   string
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) GenerateResponse(ctx context.Context, prompt, system string, _ llm.Options) (string, error) {
	m.lastPrompt = prompt
	return m.GenerateFunc(ctx, prompt, system)
}

func fixture() (models.KPIs, []models.YearlyProjection) {
	kpis := models.KPIs{
		BreakEvenYear: 2031,
		NPV:           -12000,
		LVR:           72.7272,
		DSCR:          models.DSCR{Value: 0.59, Available: true},
		FinalEquity:   2_400_000,
		Milestones: []models.Milestone{
			{Label: "Cashflow neutral", Year: 2031, Reached: true},
			{Label: "Cashflow covers full rent", Reached: false},
		},
	}
	years := []models.YearlyProjection{
		{Year: 2025, PropertyValue: 550000, AfterTaxCashflow: -4000, CumulativeCashflow: -4000},
		{Year: 2026, PropertyValue: 577500, AfterTaxCashflow: -3000, CumulativeCashflow: -7000},
	}
	return kpis, years
}

func TestBuildPrompt(t *testing.T) {
	kpis, years := fixture()
	prompt := BuildPrompt("Unit 4", kpis, years)

	assert.Contains(t, prompt, "Unit 4")
	assert.Contains(t, prompt, "- Horizon: 2 years (2025 to 2026)")
	assert.Contains(t, prompt, "- After-tax break-even year: 2031")
	assert.Contains(t, prompt, "- DSCR: 0.59x")
	assert.Contains(t, prompt, "- LVR: 72.7%")
	assert.Contains(t, prompt, "- Cashflow neutral: 2031")
	assert.NotContains(t, prompt, "covers full rent")
}

func TestSummarize_UsesProvider(t *testing.T) {
	kpis, years := fixture()
	mock := &mockProvider{GenerateFunc: func(ctx context.Context, prompt, system string) (string, error) {
		return "```markdown\n## Summary\n\nSteady.\n```", nil
	}}

	got, err := NewCommentator(mock, nil).Summarize(context.Background(), "Unit 4", kpis, years)
	require.NoError(t, err)
	assert.Equal(t, "## Summary\n\nSteady.", got.Markdown)
	assert.Equal(t, "mock", got.Provider)
	assert.False(t, got.Fallback)
	assert.Contains(t, mock.lastPrompt, "## Facts")
}

func TestSummarize_FallsBackOnError(t *testing.T) {
	kpis, years := fixture()
	mock := &mockProvider{GenerateFunc: func(ctx context.Context, prompt, system string) (string, error) {
		return "", errors.New("quota exceeded")
	}}

	got, err := NewCommentator(mock, nil).Summarize(context.Background(), "Unit 4", kpis, years)
	require.NoError(t, err)
	assert.True(t, got.Fallback)
	assert.Equal(t, "template", got.Provider)
	assert.True(t, strings.HasPrefix(got.Markdown, "## Summary"))
	assert.Contains(t, got.Markdown, "- After-tax break-even year: 2031")
}

func TestSummarize_FallsBackOnBlankOutput(t *testing.T) {
	kpis, years := fixture()
	mock := &mockProvider{GenerateFunc: func(ctx context.Context, prompt, system string) (string, error) {
		return "   ", nil
	}}

	got, err := NewCommentator(mock, nil).Summarize(context.Background(), "", kpis, years)
	require.NoError(t, err)
	assert.True(t, got.Fallback)
}

func TestSummarize_Cancelled(t *testing.T) {
	kpis, years := fixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := &mockProvider{GenerateFunc: func(ctx context.Context, prompt, system string) (string, error) {
		return "", ctx.Err()
	}}

	_, err := NewCommentator(mock, nil).Summarize(ctx, "", kpis, years)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewCommentator_DefaultsToTemplate(t *testing.T) {
	kpis, years := fixture()
	got, err := NewCommentator(nil, nil).Summarize(context.Background(), "", kpis, years)
	require.NoError(t, err)
	assert.Equal(t, "template", got.Provider)
	assert.False(t, got.Fallback)
}
