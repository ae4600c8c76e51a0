package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"property_projection/pkg/core/calc"
)

// Validation bounds applied at the outer surfaces (API, CLI, store).
// The engine itself never re-validates.
const (
	MaxPropertyValue  = 100_000_000.0
	MaxAnnualIncome   = 10_000_000.0
	MaxRatePoints     = 100.0
	MaxLoanTermYears  = 50
	MaxAssumptionRate = 100.0
)

// LoanType is the repayment shape of a loan.
type LoanType string

const (
	LoanInterestOnly      LoanType = "interest_only"
	LoanPrincipalInterest LoanType = "principal_interest"
)

// Loan is a single debt instrument against a property.
type Loan struct {
	ID              string    `json:"id,omitempty"`
	Label           string    `json:"label,omitempty"`
	PrincipalAmount float64   `json:"principal_amount"`
	InterestRate    calc.Rate `json:"interest_rate_pct"`
	TermYears       int       `json:"term_years"`
	Type            LoanType  `json:"type"`
	IOYears         int       `json:"io_years"`
	StartDate       time.Time `json:"start_date,omitempty"`
}

// PropertySnapshot is a property's current valuation and base-year operating figures.
type PropertySnapshot struct {
	ID                   string  `json:"id,omitempty"`
	Name                 string  `json:"name,omitempty"`
	CurrentValue         float64 `json:"current_value"`
	PurchasePrice        float64 `json:"purchase_price,omitempty"`
	PurchaseCosts        float64 `json:"purchase_costs,omitempty"`
	CashInvested         float64 `json:"cash_invested,omitempty"` // Overrides the derived figure when > 0
	TotalAnnualIncome    float64 `json:"total_annual_income"`
	TotalAnnualOutgoings float64 `json:"total_annual_outgoings"`
	Loans                []Loan  `json:"loans"`
}

// Assumptions are macro parameters applied uniformly across the horizon.
type Assumptions struct {
	RentGrowth    calc.Rate `json:"rent_growth_pct" yaml:"rent_growth_pct"`
	CapitalGrowth calc.Rate `json:"capital_growth_pct" yaml:"capital_growth_pct"`
	Inflation     calc.Rate `json:"inflation_rate_pct" yaml:"inflation_rate_pct"`
	TaxRate       calc.Rate `json:"tax_rate_pct" yaml:"tax_rate_pct"`
	MedicareLevy  calc.Rate `json:"medicare_levy_pct" yaml:"medicare_levy_pct"`
	Vacancy       calc.Rate `json:"vacancy_rate_pct" yaml:"vacancy_rate_pct"`
	PMFee         calc.Rate `json:"pm_fee_rate_pct" yaml:"pm_fee_rate_pct"`
	Depreciation  calc.Rate `json:"depreciation_rate_pct" yaml:"depreciation_rate_pct"`
	DiscountRate  calc.Rate `json:"discount_rate_pct" yaml:"discount_rate_pct"`

	StartYear int `json:"start_year,omitempty" yaml:"start_year,omitempty"` // 0 = current calendar year
}

// MarginalTaxRate is income tax plus the medicare levy.
func (a Assumptions) MarginalTaxRate() calc.Rate {
	return a.TaxRate + a.MedicareLevy
}

// YearlyProjection is one year of a property's projection. Entirely derived.
type YearlyProjection struct {
	YearIndex int `json:"year_index"`
	Year      int `json:"year"`

	PropertyValue float64 `json:"property_value"`
	LoanBalance   float64 `json:"loan_balance"`
	Equity        float64 `json:"equity"`

	GrossIncome       float64 `json:"gross_income"`
	VacancyLoss       float64 `json:"vacancy_loss"`
	EffectiveRent     float64 `json:"effective_rent"`
	PMFee             float64 `json:"pm_fee"`
	OperatingExpenses float64 `json:"operating_expenses"`
	NOI               float64 `json:"noi"`

	InterestExpense  float64 `json:"interest_expense"`
	PrincipalPayment float64 `json:"principal_payment"`

	Depreciation  float64 `json:"depreciation"`
	TaxableIncome float64 `json:"taxable_income"`
	Tax           float64 `json:"tax"`
	TaxBenefit    float64 `json:"tax_benefit"`

	NetCashflow      float64 `json:"net_cashflow"` // Pre-tax
	AfterTaxCashflow float64 `json:"after_tax_cashflow"`

	CumulativePrincipal          float64 `json:"cumulative_principal"`
	CumulativeCashflow           float64 `json:"cumulative_cashflow"`
	CapitalGrowth                float64 `json:"capital_growth"`
	CumulativeCapitalGrowth      float64 `json:"cumulative_capital_growth"`
	TotalPerformance             float64 `json:"total_performance"`
	TotalPerformanceIncPrincipal float64 `json:"total_performance_inc_principal"`
	CashOnCashReturnPct          float64 `json:"cash_on_cash_return_pct"`
	ReturnOnInvestedCapitalPct   float64 `json:"return_on_invested_capital_pct"`
}

// Milestone marks the first year cashflow reaches a share of base annual rent.
type Milestone struct {
	Year      int     `json:"year"` // Calendar year, 0 when not reached within the horizon
	Label     string  `json:"label"`
	Achieved  bool    `json:"achieved"`
	Target    float64 `json:"target"`
	TargetPct float64 `json:"target_pct"`
	Reached   bool    `json:"reached"`
}

// DSCR is a debt service coverage ratio that may be unavailable ("N/A").
type DSCR struct {
	Value     float64
	Available bool
}

func (d DSCR) String() string {
	if !d.Available {
		return "N/A"
	}
	return fmt.Sprintf("%.2fx", d.Value)
}

// MarshalJSON emits the ratio as a number, or the string "N/A".
func (d DSCR) MarshalJSON() ([]byte, error) {
	if !d.Available {
		return json.Marshal("N/A")
	}
	return json.Marshal(d.Value)
}

// UnmarshalJSON accepts a number or the "N/A" sentinel.
func (d *DSCR) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*d = DSCR{Value: v, Available: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s != "N/A" {
		return fmt.Errorf("dscr must be a number or \"N/A\"")
	}
	*d = DSCR{}
	return nil
}

// KPIs are the headline figures derived from a projection series.
type KPIs struct {
	BreakEvenYear       int         `json:"break_even_year"`
	BreakEvenIndex      int         `json:"break_even_index"`
	PreTaxBreakEvenYear int         `json:"pre_tax_break_even_year"`
	NPV                 float64     `json:"npv"`
	Milestones          []Milestone `json:"milestones"`
	DSCR                DSCR        `json:"dscr"`
	LVR                 float64     `json:"lvr"`
	TotalPrincipal      float64     `json:"total_principal"`
	MonthlyRepayment    float64     `json:"monthly_repayment"`
	FinalPropertyValue  float64     `json:"final_property_value"`
	FinalEquity         float64     `json:"final_equity"`
}

// Validate checks a property record against the accepted input ranges.
// All violations are reported together.
func (p *PropertySnapshot) Validate() error {
	var errs []error
	if p.CurrentValue < 0 || p.CurrentValue > MaxPropertyValue {
		errs = append(errs, fmt.Errorf("current_value must be between 0 and %.0f", MaxPropertyValue))
	}
	if p.PurchasePrice < 0 || p.PurchasePrice > MaxPropertyValue {
		errs = append(errs, fmt.Errorf("purchase_price must be between 0 and %.0f", MaxPropertyValue))
	}
	if p.PurchaseCosts < 0 {
		errs = append(errs, errors.New("purchase_costs cannot be negative"))
	}
	if p.CashInvested < 0 {
		errs = append(errs, errors.New("cash_invested cannot be negative"))
	}
	if p.TotalAnnualIncome < 0 || p.TotalAnnualIncome > MaxAnnualIncome {
		errs = append(errs, fmt.Errorf("total_annual_income must be between 0 and %.0f", MaxAnnualIncome))
	}
	if p.TotalAnnualOutgoings < 0 {
		errs = append(errs, errors.New("total_annual_outgoings cannot be negative"))
	}
	for i, l := range p.Loans {
		if err := l.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("loans[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a loan record against the accepted input ranges.
func (l Loan) Validate() error {
	var errs []error
	if l.PrincipalAmount < 0 || l.PrincipalAmount > MaxPropertyValue {
		errs = append(errs, fmt.Errorf("principal_amount must be between 0 and %.0f", MaxPropertyValue))
	}
	if p := l.InterestRate.Points(); p < 0 || p > MaxRatePoints {
		errs = append(errs, fmt.Errorf("interest_rate_pct must be between 0 and %.0f", MaxRatePoints))
	}
	if l.TermYears < 0 || l.TermYears > MaxLoanTermYears {
		errs = append(errs, fmt.Errorf("term_years must be between 0 and %d", MaxLoanTermYears))
	}
	if l.IOYears < 0 {
		errs = append(errs, errors.New("io_years cannot be negative"))
	}
	switch l.Type {
	case LoanInterestOnly, LoanPrincipalInterest, "":
	default:
		errs = append(errs, fmt.Errorf("unknown loan type %q", l.Type))
	}
	return errors.Join(errs...)
}

// Validate checks that every assumption is a non-negative percentage within bounds.
func (a Assumptions) Validate() error {
	var errs []error
	check := func(name string, r calc.Rate) {
		if p := r.Points(); p < 0 || p > MaxAssumptionRate {
			errs = append(errs, fmt.Errorf("%s must be between 0 and %.0f", name, MaxAssumptionRate))
		}
	}
	check("rent_growth_pct", a.RentGrowth)
	check("capital_growth_pct", a.CapitalGrowth)
	check("inflation_rate_pct", a.Inflation)
	check("tax_rate_pct", a.TaxRate)
	check("medicare_levy_pct", a.MedicareLevy)
	check("vacancy_rate_pct", a.Vacancy)
	check("pm_fee_rate_pct", a.PMFee)
	check("depreciation_rate_pct", a.Depreciation)
	check("discount_rate_pct", a.DiscountRate)
	return errors.Join(errs...)
}
