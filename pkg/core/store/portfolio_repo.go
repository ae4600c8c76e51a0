package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property_projection/pkg/core/calc"
	"property_projection/pkg/models"
)

// PortfolioRepo reads an owner's properties, loans and assumptions.
type PortfolioRepo struct {
	pool *pgxpool.Pool
}

// NewPortfolioRepo uses p, or the shared pool when p is nil.
func NewPortfolioRepo(p *pgxpool.Pool) *PortfolioRepo {
	if p == nil {
		p = GetPool()
	}
	return &PortfolioRepo{pool: p}
}

// LoadPortfolio returns every property the owner holds, loans attached in order.
func (r *PortfolioRepo) LoadPortfolio(ctx context.Context, ownerID string) ([]models.PropertySnapshot, error) {
	if r.pool == nil {
		return nil, ErrNoPool
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, current_value, purchase_price, purchase_costs, cash_invested,
		       total_annual_income, total_annual_outgoings
		FROM properties
		WHERE owner_id = $1
		ORDER BY name, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	properties, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PropertySnapshot, error) {
		var p models.PropertySnapshot
		err := row.Scan(&p.ID, &p.Name, &p.CurrentValue, &p.PurchasePrice, &p.PurchaseCosts,
			&p.CashInvested, &p.TotalAnnualIncome, &p.TotalAnnualOutgoings)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan properties: %w", err)
	}
	if len(properties) == 0 {
		return nil, fmt.Errorf("owner %s: %w", ownerID, ErrNotFound)
	}

	index := make(map[string]int, len(properties))
	ids := make([]string, len(properties))
	for i, p := range properties {
		index[p.ID] = i
		ids[i] = p.ID
	}

	loanRows, err := r.pool.Query(ctx, `
		SELECT property_id, id, label, principal_amount, interest_rate_pct, term_years, loan_type, io_years
		FROM loans
		WHERE property_id = ANY($1)
		ORDER BY property_id, position, id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer loanRows.Close()

	for loanRows.Next() {
		var (
			propertyID string
			l          models.Loan
			ratePoints float64
			loanType   string
		)
		if err := loanRows.Scan(&propertyID, &l.ID, &l.Label, &l.PrincipalAmount, &ratePoints,
			&l.TermYears, &loanType, &l.IOYears); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		l.InterestRate = calc.Pct(ratePoints)
		l.Type = models.LoanType(loanType)
		if i, ok := index[propertyID]; ok {
			properties[i].Loans = append(properties[i].Loans, l)
		}
	}
	if err := loanRows.Err(); err != nil {
		return nil, fmt.Errorf("read loans: %w", err)
	}
	return properties, nil
}

// LoadAssumptions returns the owner's saved assumptions, or ErrNotFound.
func (r *PortfolioRepo) LoadAssumptions(ctx context.Context, ownerID string) (models.Assumptions, error) {
	if r.pool == nil {
		return models.Assumptions{}, ErrNoPool
	}

	var (
		a   models.Assumptions
		pts [9]float64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT rent_growth_pct, capital_growth_pct, inflation_rate_pct, tax_rate_pct, medicare_levy_pct,
		       vacancy_rate_pct, pm_fee_rate_pct, depreciation_rate_pct, discount_rate_pct, start_year
		FROM owner_assumptions
		WHERE owner_id = $1
	`, ownerID).Scan(&pts[0], &pts[1], &pts[2], &pts[3], &pts[4], &pts[5], &pts[6], &pts[7], &pts[8], &a.StartYear)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Assumptions{}, fmt.Errorf("assumptions for %s: %w", ownerID, ErrNotFound)
	}
	if err != nil {
		return models.Assumptions{}, fmt.Errorf("query assumptions: %w", err)
	}

	a.RentGrowth = calc.Pct(pts[0])
	a.CapitalGrowth = calc.Pct(pts[1])
	a.Inflation = calc.Pct(pts[2])
	a.TaxRate = calc.Pct(pts[3])
	a.MedicareLevy = calc.Pct(pts[4])
	a.Vacancy = calc.Pct(pts[5])
	a.PMFee = calc.Pct(pts[6])
	a.Depreciation = calc.Pct(pts[7])
	a.DiscountRate = calc.Pct(pts[8])
	return a, nil
}
