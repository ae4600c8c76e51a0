package projection

import (
	"math"

	"property_projection/pkg/core/loan"
	"property_projection/pkg/models"
)

// CashInvested is the equity the owner put in: the explicit figure when given,
// otherwise purchase price (or current value) plus purchase costs less borrowings.
func CashInvested(p models.PropertySnapshot) float64 {
	if p.CashInvested > 0 {
		return p.CashInvested
	}
	price := p.PurchasePrice
	if price <= 0 {
		price = p.CurrentValue
	}
	return math.Max(0, price+p.PurchaseCosts-loan.Aggregate(p.Loans).TotalPrincipal)
}
