package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"property_projection/pkg/core/assumption"
	coreConfig "property_projection/pkg/core/config"
)

func newMux() (*http.ServeMux, *assumption.ScenarioSet) {
	scenarios := assumption.NewScenarioSet()
	cfg := &coreConfig.Config{}
	cfg.Database.URL = "postgres://secret@db/props"
	cfg.Insight.APIKey = "top-secret"
	cfg.Projection.HorizonYears = 30

	mux := http.NewServeMux()
	NewHandler(cfg, scenarios).Register(mux)
	return mux, scenarios
}

func TestHandleConfig(t *testing.T) {
	mux, _ := newMux()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret") {
		t.Errorf("expected secrets to be omitted, got %s", body)
	}
	var resp struct {
		Presets []string `json:"presets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Presets) != 3 {
		t.Errorf("expected 3 presets, got %v", resp.Presets)
	}
}

func TestHandlePresets_ListAndAdd(t *testing.T) {
	mux, scenarios := newMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assumptions/presets", nil))
	var list []assumption.Scenario
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 || list[0].Name != assumption.PresetBase {
		t.Errorf("expected built-ins with base first, got %d items", len(list))
	}

	body := `{name: "coastal", assumptions: {capital_growth_pct: 6.5}}`
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assumptions/presets", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	sc, err := scenarios.Get("coastal")
	if err != nil {
		t.Fatalf("expected preset to be stored: %v", err)
	}
	if sc.Assumptions.CapitalGrowth.Points() != 6.5 {
		t.Errorf("expected 6.5 points, got %v", sc.Assumptions.CapitalGrowth.Points())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assumptions/presets", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate, got %d", rec.Code)
	}
}

func TestHandlePreset_GetAndDelete(t *testing.T) {
	mux, scenarios := newMux()
	_ = scenarios.Add(assumption.Scenario{Name: "custom"})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assumptions/presets/growth", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/assumptions/presets/base", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for built-in, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/assumptions/presets/custom", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assumptions/presets/custom", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
