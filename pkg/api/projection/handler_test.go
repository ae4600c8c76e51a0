package projection

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property_projection/pkg/core/assumption"
	"property_projection/pkg/core/calc"
	"property_projection/pkg/core/insight"
	"property_projection/pkg/core/pipeline"
	"property_projection/pkg/core/store"
	"property_projection/pkg/models"
)

type MockPortfolios struct {
	LoadFunc func(ctx context.Context, ownerID string) ([]models.PropertySnapshot, error)
}

func (m *MockPortfolios) LoadPortfolio(ctx context.Context, ownerID string) ([]models.PropertySnapshot, error) {
	return m.LoadFunc(ctx, ownerID)
}

func (m *MockPortfolios) LoadAssumptions(ctx context.Context, ownerID string) (models.Assumptions, error) {
	return models.Assumptions{}, store.ErrNotFound
}

func newTestServer(t *testing.T, portfolios PortfolioLoader) *httptest.Server {
	t.Helper()
	orch := pipeline.NewOrchestrator(pipeline.Config{}, nil, nil)
	orch.SetClock(func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) })
	h := NewHandler(orch, assumption.NewScenarioSet(), insight.NewCommentator(nil, nil), portfolios, nil, nil)

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const singleBody = `{
	"property": {
		"id": "p1",
		"name": "Unit 4",
		"current_value": 550000,
		"total_annual_income": 25000,
		"total_annual_outgoings": 8000,
		"loans": [{"principal_amount": 400000, "interest_rate_pct": 6, "term_years": 30, "type": "principal_interest"}]
	},
	"assumptions": {
		"rent_growth_pct": 3,
		"capital_growth_pct": 5,
		"inflation_rate_pct": 2.5,
		"tax_rate_pct": 30,
		"depreciation_rate_pct": 2.5,
		"discount_rate_pct": 7,
		"start_year": 2025
	}
}`

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleProjection(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/api/projection", singleBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got pipeline.PropertyResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "p1", got.PropertyID)
	require.Len(t, got.Projections, 30)
	assert.Equal(t, 2025, got.Projections[0].Year)
	assert.InDelta(t, 17000.0, got.Projections[0].NOI, 1e-6)
	assert.InDelta(t, 72.727, got.KPIs.LVR, 0.001)
	assert.True(t, got.KPIs.DSCR.Available)
	assert.InDelta(t, 0.59, got.KPIs.DSCR.Value, 0.005)
}

func TestHandleProjection_LenientBodyAndPreset(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{
		// trailing commas and comments are accepted
		"property": {"current_value": 400000, "total_annual_income": 20000, "total_annual_outgoings": 5000,},
		"preset": "conservative",
		"options": {"horizon_years": 10},
	}`
	resp := post(t, srv.URL+"/api/projection", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got pipeline.PropertyResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got.Projections, 10)
	assert.False(t, got.KPIs.DSCR.Available)
}

func TestHandleProjection_Errors(t *testing.T) {
	srv := newTestServer(t, nil)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"array body", `[1, 2, 3]`, http.StatusBadRequest},
		{"negative value", `{"property": {"current_value": -1}}`, http.StatusBadRequest},
		{"rate too high", `{"property": {"current_value": 1, "loans": [{"principal_amount": 1, "interest_rate_pct": 150}]}}`, http.StatusBadRequest},
		{"bad assumptions", `{"property": {"current_value": 1}, "assumptions": {"vacancy_rate_pct": -2}}`, http.StatusBadRequest},
		{"unknown preset", `{"property": {"current_value": 1}, "preset": "moon"}`, http.StatusNotFound},
		{"bad horizon", `{"property": {"current_value": 1}, "options": {"horizon_years": 5000}}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/projection", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	resp, err := http.Get(srv.URL + "/api/projection")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleReport(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/projection/report", singleBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")

	resp = post(t, srv.URL+"/api/projection/report?format=html", singleBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	assert.Contains(t, buf.String(), "<h1>Unit 4 projection</h1>")

	resp = post(t, srv.URL+"/api/projection/report?format=pdf", singleBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleInsight(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/api/projection/insight", singleBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got InsightResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "template", got.Commentary.Provider)
	assert.Contains(t, got.Commentary.Markdown, "## Summary")
	assert.Contains(t, got.Commentary.Markdown, "LVR: 72.7%")
}

func TestHandlePortfolio_Inline(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{
		"properties": [
			{"id": "a", "current_value": 550000, "total_annual_income": 25000, "total_annual_outgoings": 8000,
			 "loans": [{"principal_amount": 400000, "interest_rate_pct": 6, "term_years": 30, "type": "principal_interest"}]},
			{"id": "b", "current_value": 350000, "total_annual_income": 18000, "total_annual_outgoings": 4000}
		],
		"preset": "base"
	}`
	resp := post(t, srv.URL+"/api/portfolio", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got pipeline.PortfolioResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got.Properties, 2)
	assert.Len(t, got.Years, 30)
	assert.Equal(t, 900000.0, got.Totals.TotalValue)
	assert.Equal(t, 400000.0, got.Totals.TotalDebt)
}

func TestHandlePortfolio_Owner(t *testing.T) {
	mock := &MockPortfolios{LoadFunc: func(ctx context.Context, ownerID string) ([]models.PropertySnapshot, error) {
		if ownerID != "owner-1" {
			return nil, store.ErrNotFound
		}
		return []models.PropertySnapshot{{ID: "x", CurrentValue: 500000, TotalAnnualIncome: 20000,
			Loans: []models.Loan{{PrincipalAmount: 300000, InterestRate: calc.Pct(6), TermYears: 30}}}}, nil
	}}
	srv := newTestServer(t, mock)

	resp := post(t, srv.URL+"/api/portfolio", `{"owner_id": "owner-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got pipeline.PortfolioResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Totals.PropertyCount)

	resp = post(t, srv.URL+"/api/portfolio", `{"owner_id": "nobody"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, srv.URL+"/api/portfolio", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlePortfolio_OwnerWithoutStore(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/api/portfolio", `{"owner_id": "owner-1"}`)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}
