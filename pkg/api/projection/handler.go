// Package projection serves the projection, report, portfolio and insight endpoints.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"property_projection/pkg/core/assumption"
	"property_projection/pkg/core/insight"
	"property_projection/pkg/core/pipeline"
	coreProjection "property_projection/pkg/core/projection"
	"property_projection/pkg/core/report"
	"property_projection/pkg/core/store"
	"property_projection/pkg/core/utils"
	"property_projection/pkg/models"
)

const maxBodyBytes = 1 << 20

// MaxPortfolioSize bounds the properties accepted in one portfolio request.
const MaxPortfolioSize = 200

// PortfolioLoader reads stored portfolios. store.PortfolioRepo implements it.
type PortfolioLoader interface {
	LoadPortfolio(ctx context.Context, ownerID string) ([]models.PropertySnapshot, error)
	LoadAssumptions(ctx context.Context, ownerID string) (models.Assumptions, error)
}

// RunOptions override the server's projection defaults for one request.
type RunOptions struct {
	HorizonYears  int                          `json:"horizon_years,omitempty"`
	MultiLoanMode coreProjection.MultiLoanMode `json:"multi_loan_mode,omitempty"`
}

// MaxHorizonYears bounds per-request horizon overrides.
const MaxHorizonYears = 100

// Validate rejects out-of-range overrides.
func (o RunOptions) Validate() error {
	if o.HorizonYears < 0 || o.HorizonYears > MaxHorizonYears {
		return fmt.Errorf("options.horizon_years must be between 0 and %d", MaxHorizonYears)
	}
	switch o.MultiLoanMode {
	case "", coreProjection.PerLoan, coreProjection.RepresentativeLoan:
		return nil
	}
	return fmt.Errorf("options.multi_loan_mode %q is not supported", o.MultiLoanMode)
}

// ProjectionRequest is the body of the single-property endpoints.
type ProjectionRequest struct {
	Property    models.PropertySnapshot `json:"property"`
	Assumptions *models.Assumptions     `json:"assumptions,omitempty"`
	Preset      string                  `json:"preset,omitempty"`
	Options     RunOptions              `json:"options,omitempty"`
	Format      string                  `json:"format,omitempty"`
}

// PortfolioRequest is the body of the portfolio endpoint. Either Properties
// or OwnerID must be set.
type PortfolioRequest struct {
	OwnerID     string                    `json:"owner_id,omitempty"`
	Properties  []models.PropertySnapshot `json:"properties,omitempty"`
	Assumptions *models.Assumptions       `json:"assumptions,omitempty"`
	Preset      string                    `json:"preset,omitempty"`
	Options     RunOptions                `json:"options,omitempty"`
}

// InsightResponse pairs commentary with the figures it describes.
type InsightResponse struct {
	Commentary insight.Commentary `json:"commentary"`
	KPIs       models.KPIs        `json:"kpis"`
}

// Handler holds dependencies for projection endpoints
type Handler struct {
	Orchestrator *pipeline.Orchestrator
	Scenarios    *assumption.ScenarioSet
	Commentator  *insight.Commentator
	Portfolios   PortfolioLoader
	Cache        pipeline.Cache
	Log          *zap.Logger
}

// NewHandler creates a projection handler. portfolios and cache may be nil.
func NewHandler(orch *pipeline.Orchestrator, scenarios *assumption.ScenarioSet, commentator *insight.Commentator, portfolios PortfolioLoader, cache pipeline.Cache, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Orchestrator: orch,
		Scenarios:    scenarios,
		Commentator:  commentator,
		Portfolios:   portfolios,
		Cache:        cache,
		Log:          log,
	}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/projection", h.HandleProjection)
	mux.HandleFunc("/api/projection/report", h.HandleReport)
	mux.HandleFunc("/api/projection/insight", h.HandleInsight)
	mux.HandleFunc("/api/portfolio", h.HandlePortfolio)
}

// HandleProjection projects one property and returns the series and KPIs.
func (h *Handler) HandleProjection(w http.ResponseWriter, r *http.Request) {
	req, orch, a, ok := h.prepareSingle(w, r)
	if !ok {
		return
	}
	res, err := orch.ProjectOne(r.Context(), req.Property, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleReport renders the projection as markdown (default) or html.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	req, orch, a, ok := h.prepareSingle(w, r)
	if !ok {
		return
	}
	formatName := req.Format
	if q := r.URL.Query().Get("format"); q != "" {
		formatName = q
	}
	f, err := report.ParseFormat(formatName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := orch.ProjectOne(r.Context(), req.Property, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	out, err := report.Render(f, req.Property.Name, res.Projections, res.KPIs)
	if err != nil {
		h.fail(w, err)
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if f == report.FormatHTML {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

// HandleInsight returns narrative commentary for one property.
func (h *Handler) HandleInsight(w http.ResponseWriter, r *http.Request) {
	req, orch, a, ok := h.prepareSingle(w, r)
	if !ok {
		return
	}
	res, err := orch.ProjectOne(r.Context(), req.Property, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	commentator := h.Commentator
	if commentator == nil {
		commentator = insight.NewCommentator(nil, h.Log)
	}
	c, err := commentator.Summarize(r.Context(), req.Property.Name, res.KPIs, res.Projections)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InsightResponse{Commentary: c, KPIs: res.KPIs})
}

// HandlePortfolio projects many properties, inline or loaded by owner.
func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r) {
		return
	}
	var req PortfolioRequest
	if !decode(w, r, &req) {
		return
	}

	properties := req.Properties
	var stored *models.Assumptions
	if req.OwnerID != "" {
		if h.Portfolios == nil {
			writeError(w, http.StatusNotImplemented, "stored portfolios are not configured")
			return
		}
		loaded, err := h.Portfolios.LoadPortfolio(r.Context(), req.OwnerID)
		if err != nil {
			h.fail(w, err)
			return
		}
		properties = loaded
		if a, err := h.Portfolios.LoadAssumptions(r.Context(), req.OwnerID); err == nil {
			stored = &a
		} else if !errors.Is(err, store.ErrNotFound) {
			h.fail(w, err)
			return
		}
	}
	if len(properties) == 0 {
		writeError(w, http.StatusBadRequest, "no properties given")
		return
	}
	if len(properties) > MaxPortfolioSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d properties per request", MaxPortfolioSize))
		return
	}

	verrs := []error{req.Options.Validate()}
	for i := range properties {
		if err := properties[i].Validate(); err != nil {
			verrs = append(verrs, fmt.Errorf("properties[%d]: %w", i, err))
		}
	}
	if err := errors.Join(verrs...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	explicit := req.Assumptions
	if explicit == nil {
		explicit = stored
	}
	a, err := h.resolveAssumptions(req.Preset, explicit)
	if err != nil {
		h.fail(w, err)
		return
	}

	res, err := h.orchestrator(req.Options).Run(r.Context(), properties, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) prepareSingle(w http.ResponseWriter, r *http.Request) (ProjectionRequest, *pipeline.Orchestrator, models.Assumptions, bool) {
	var req ProjectionRequest
	if !preflight(w, r) || !decode(w, r, &req) {
		return req, nil, models.Assumptions{}, false
	}
	if err := errors.Join(req.Property.Validate(), req.Options.Validate()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, nil, models.Assumptions{}, false
	}
	a, err := h.resolveAssumptions(req.Preset, req.Assumptions)
	if err != nil {
		h.fail(w, err)
		return req, nil, models.Assumptions{}, false
	}
	return req, h.orchestrator(req.Options), a, true
}

// resolveAssumptions prefers explicit assumptions, then the named preset,
// then the base preset.
func (h *Handler) resolveAssumptions(preset string, explicit *models.Assumptions) (models.Assumptions, error) {
	if explicit != nil {
		if err := explicit.Validate(); err != nil {
			return models.Assumptions{}, badRequest{err}
		}
		return *explicit, nil
	}
	if preset == "" {
		preset = assumption.PresetBase
	}
	if h.Scenarios == nil {
		return models.Assumptions{}, badRequest{fmt.Errorf("assumptions are required")}
	}
	sc, err := h.Scenarios.Get(preset)
	if err != nil {
		return models.Assumptions{}, err
	}
	return sc.Assumptions, nil
}

// orchestrator returns the shared orchestrator, or a per-request one when the
// request overrides the horizon or loan mode.
func (h *Handler) orchestrator(opts RunOptions) *pipeline.Orchestrator {
	cfg := h.Orchestrator.Config()
	if (opts.HorizonYears == 0 || opts.HorizonYears == cfg.Projection.HorizonYears) &&
		(opts.MultiLoanMode == "" || opts.MultiLoanMode == cfg.Projection.MultiLoanMode) {
		return h.Orchestrator
	}
	if opts.HorizonYears > 0 {
		cfg.Projection.HorizonYears = opts.HorizonYears
	}
	if opts.MultiLoanMode != "" {
		cfg.Projection.MultiLoanMode = opts.MultiLoanMode
	}
	return pipeline.NewOrchestrator(cfg, h.Cache, h.Log)
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, assumption.ErrPresetNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.Log.Error("projection request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// preflight sets CORS headers, answers OPTIONS and rejects non-POST methods.
func preflight(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// decode reads a JSON body, tolerating trailing commas, comments and Hjson.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if _, err := utils.DecodeLenient(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
