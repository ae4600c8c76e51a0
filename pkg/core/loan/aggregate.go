package loan

import (
	"property_projection/pkg/core/calc"
	"property_projection/pkg/models"
)

// Totals are headline figures across every loan on a property.
type Totals struct {
	TotalPrincipal      float64 `json:"total_principal"`
	TotalMonthlyPayment float64 `json:"total_monthly_payment"`
	HasLoans            bool    `json:"has_loans"`
}

// Aggregate sums principal and the current monthly payment of each loan.
// IO loans contribute interest only; P&I loans their PMT over their own term.
// Loans with no positive principal are ignored.
func Aggregate(loans []models.Loan) Totals {
	var t Totals
	for _, l := range loans {
		if l.PrincipalAmount <= 0 {
			continue
		}
		t.HasLoans = true
		t.TotalPrincipal += l.PrincipalAmount
		t.TotalMonthlyPayment += MonthlyRepayment(l)
	}
	return t
}

// MonthlyRepayment is a loan's headline monthly payment.
func MonthlyRepayment(l models.Loan) float64 {
	if l.PrincipalAmount <= 0 {
		return 0
	}
	if l.Type == models.LoanInterestOnly {
		return calc.InterestOnlyPayment(l.PrincipalAmount, l.InterestRate)
	}
	return calc.MonthlyPayment(l.PrincipalAmount, l.InterestRate, l.TermYears*12)
}

// AnnualDebtService sums twelve standard P&I payments over each loan's own term,
// counting only loans with positive principal and a positive rate.
// ok is false when no loan qualifies.
func AnnualDebtService(loans []models.Loan) (annual float64, ok bool) {
	for _, l := range loans {
		if l.PrincipalAmount <= 0 || l.InterestRate <= 0 || l.TermYears <= 0 {
			continue
		}
		annual += calc.MonthlyPayment(l.PrincipalAmount, l.InterestRate, l.TermYears*12) * 12
		ok = true
	}
	return annual, ok
}

// Representative collapses several loans into one: the summed principal with the
// first loan's rate, term, type and IO period. Returns false when there is no loan.
func Representative(loans []models.Loan) (models.Loan, bool) {
	if len(loans) == 0 {
		return models.Loan{}, false
	}
	rep := loans[0]
	rep.PrincipalAmount = Aggregate(loans).TotalPrincipal
	return rep, true
}
