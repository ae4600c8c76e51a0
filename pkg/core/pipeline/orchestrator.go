// Package pipeline runs projections for a whole portfolio: each property is
// projected concurrently, memoized through a cache, and rolled up into
// portfolio-level totals.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"property_projection/pkg/core/calc"
	"property_projection/pkg/core/projection"
	"property_projection/pkg/core/store"
	"property_projection/pkg/core/valuation"
	"property_projection/pkg/models"
)

// Cache memoizes projection runs. store.ProjectionCache implements it.
type Cache interface {
	Get(ctx context.Context, key string) (*store.CacheEntry, error)
	Save(ctx context.Context, entry *store.CacheEntry) error
}

// Config tunes an Orchestrator.
type Config struct {
	Projection     projection.Options
	MilestoneBasis valuation.MilestoneBasis
	Concurrency    int
}

// PropertyResult is the projection and KPIs of one property.
type PropertyResult struct {
	PropertyID  string                    `json:"property_id,omitempty"`
	Name        string                    `json:"name,omitempty"`
	RunID       string                    `json:"run_id"`
	CacheKey    string                    `json:"cache_key"`
	Cached      bool                      `json:"cached"`
	Projections []models.YearlyProjection `json:"projections"`
	KPIs        models.KPIs               `json:"kpis"`
}

// PortfolioYear sums one year across every property.
type PortfolioYear struct {
	Year               int     `json:"year"`
	PropertyValue      float64 `json:"property_value"`
	LoanBalance        float64 `json:"loan_balance"`
	Equity             float64 `json:"equity"`
	NOI                float64 `json:"noi"`
	AfterTaxCashflow   float64 `json:"after_tax_cashflow"`
	CumulativeCashflow float64 `json:"cumulative_cashflow"`
}

// PortfolioTotals are headline figures for the whole portfolio.
type PortfolioTotals struct {
	PropertyCount  int     `json:"property_count"`
	TotalValue     float64 `json:"total_value"`
	TotalDebt      float64 `json:"total_debt"`
	LVR            float64 `json:"lvr"`
	NPV            float64 `json:"npv"`
	BreakEvenYear  int     `json:"break_even_year"`
	FinalEquity    float64 `json:"final_equity"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// PortfolioResult is the outcome of a portfolio run.
type PortfolioResult struct {
	RunID      string           `json:"run_id"`
	Properties []PropertyResult `json:"properties"`
	Years      []PortfolioYear  `json:"years"`
	Totals     PortfolioTotals  `json:"totals"`
	Duration   time.Duration    `json:"duration_ns"`
}

// Orchestrator projects properties and aggregates portfolios.
type Orchestrator struct {
	engine *projection.Engine
	cfg    Config
	cache  Cache
	log    *zap.Logger
	asOf   func() time.Time
}

// NewOrchestrator creates an orchestrator. cache and log may be nil.
func NewOrchestrator(cfg Config, cache Cache, log *zap.Logger) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.MilestoneBasis == "" {
		cfg.MilestoneBasis = valuation.BasisPerYear
	}
	if log == nil {
		log = zap.NewNop()
	}
	engine := projection.NewEngine(cfg.Projection)
	cfg.Projection = engine.Options()
	return &Orchestrator{engine: engine, cfg: cfg, cache: cache, log: log, asOf: time.Now}
}

// SetClock fixes "now" for start-year resolution and milestone achievement.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.asOf = now
	o.engine.SetClock(now)
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// ProjectOne projects a single property, consulting the cache first.
func (o *Orchestrator) ProjectOne(ctx context.Context, property models.PropertySnapshot, a models.Assumptions) (PropertyResult, error) {
	if err := ctx.Err(); err != nil {
		return PropertyResult{}, err
	}
	a.StartYear = o.engine.StartYear(a)

	key, err := CacheKey(property, a, o.cfg)
	if err != nil {
		return PropertyResult{}, err
	}
	res := PropertyResult{PropertyID: property.ID, Name: property.Name, CacheKey: key}

	if o.cache != nil {
		entry, err := o.cache.Get(ctx, key)
		switch {
		case err == nil && entry != nil:
			o.log.Debug("projection cache hit", zap.String("property_id", property.ID), zap.String("key", key))
			res.RunID = entry.RunID
			res.Cached = true
			res.Projections = entry.Projections
			res.KPIs = o.deriveKPIs(entry.Projections, property, a)
			return res, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			o.log.Warn("projection cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	res.RunID = uuid.New().String()
	res.Projections = o.engine.Project(property, a)
	res.KPIs = o.deriveKPIs(res.Projections, property, a)

	if o.cache != nil {
		entry := &store.CacheEntry{
			Key:         key,
			RunID:       res.RunID,
			PropertyID:  property.ID,
			Projections: res.Projections,
			KPIs:        res.KPIs,
		}
		if err := o.cache.Save(ctx, entry); err != nil {
			o.log.Warn("projection cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

// Milestone achievement depends on the current date, so KPIs are always
// derived fresh even for cached series.
func (o *Orchestrator) deriveKPIs(years []models.YearlyProjection, property models.PropertySnapshot, a models.Assumptions) models.KPIs {
	return valuation.DeriveKPIs(years, property, a, valuation.Options{
		AsOf:           o.asOf(),
		MilestoneBasis: o.cfg.MilestoneBasis,
	})
}

// Run projects every property concurrently and aggregates the portfolio.
// The first failure cancels the remaining work.
func (o *Orchestrator) Run(ctx context.Context, properties []models.PropertySnapshot, a models.Assumptions) (*PortfolioResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := o.log.With(zap.String("run_id", runID))
	log.Info("portfolio run started", zap.Int("properties", len(properties)))

	results := make([]PropertyResult, len(properties))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i, p := range properties {
		g.Go(func() error {
			r, err := o.ProjectOne(gctx, p, a)
			if err != nil {
				return fmt.Errorf("property %d (%s): %w", i, p.ID, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("portfolio run failed", zap.Error(err))
		return nil, err
	}

	out := &PortfolioResult{
		RunID:      runID,
		Properties: results,
		Years:      aggregateYears(results),
	}
	out.Totals = o.totals(properties, results, out.Years, a)
	out.Duration = time.Since(start)

	log.Info("portfolio run finished",
		zap.Duration("duration", out.Duration),
		zap.Float64("total_value", out.Totals.TotalValue),
		zap.Int("break_even_year", out.Totals.BreakEvenYear))
	return out, nil
}

func aggregateYears(results []PropertyResult) []PortfolioYear {
	var years []PortfolioYear
	for _, r := range results {
		for i, p := range r.Projections {
			if i >= len(years) {
				years = append(years, PortfolioYear{Year: p.Year})
			}
			y := &years[i]
			y.PropertyValue += p.PropertyValue
			y.LoanBalance += p.LoanBalance
			y.Equity += p.Equity
			y.NOI += p.NOI
			y.AfterTaxCashflow += p.AfterTaxCashflow
		}
	}
	var cum float64
	for i := range years {
		cum += years[i].AfterTaxCashflow
		years[i].CumulativeCashflow = cum
	}
	return years
}

func (o *Orchestrator) totals(properties []models.PropertySnapshot, results []PropertyResult, years []PortfolioYear, a models.Assumptions) PortfolioTotals {
	t := PortfolioTotals{PropertyCount: len(properties)}
	for i, p := range properties {
		t.TotalValue += p.CurrentValue
		t.TotalDebt += results[i].KPIs.TotalPrincipal
		t.MonthlyPayment += results[i].KPIs.MonthlyRepayment
	}
	t.LVR = valuation.LVR(t.TotalDebt, t.TotalValue)
	t.NPV = PortfolioNPV(years, a.DiscountRate)

	if n := len(years); n > 0 {
		t.FinalEquity = years[n-1].Equity
		t.BreakEvenYear = years[n-1].Year
		for _, y := range years {
			if y.AfterTaxCashflow >= 0 {
				t.BreakEvenYear = y.Year
				break
			}
		}
	}
	return t
}

// cacheInput is the canonical form hashed into a cache key.
type cacheInput struct {
	Version     int                      `json:"v"`
	Property    models.PropertySnapshot  `json:"property"`
	Assumptions models.Assumptions       `json:"assumptions"`
	Horizon     int                      `json:"horizon"`
	Mode        projection.MultiLoanMode `json:"mode"`
}

const cacheVersion = 1

// CacheKey hashes the inputs that determine a projection series. Display-only
// fields (names, labels) are excluded so renaming does not invalidate a run.
func CacheKey(property models.PropertySnapshot, a models.Assumptions, cfg Config) (string, error) {
	property.Name = ""
	loans := make([]models.Loan, len(property.Loans))
	for i, l := range property.Loans {
		l.Label = ""
		l.ID = ""
		loans[i] = l
	}
	property.Loans = loans

	data, err := json.Marshal(cacheInput{
		Version:     cacheVersion,
		Property:    property,
		Assumptions: a,
		Horizon:     cfg.Projection.HorizonYears,
		Mode:        cfg.Projection.MultiLoanMode,
	})
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// PortfolioNPV discounts the aggregated after-tax cashflow series.
func PortfolioNPV(years []PortfolioYear, rate calc.Rate) float64 {
	flows := make([]float64, len(years))
	for i, y := range years {
		flows[i] = y.AfterTaxCashflow
	}
	return calc.NPV(flows, rate)
}
