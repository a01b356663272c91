package pricing

import "github.com/shopspring/decimal"

// VATResult holds the persisted VAT figures of a cart.
type VATResult struct {
	VATAmount    decimal.Decimal
	ShippingCost decimal.Decimal
	TotalWithVAT decimal.Decimal
}

// CalculateVAT applies vatPercentage to the discounted total and adds shipping on top.
func CalculateVAT(discountedTotal, vatPercentage, shippingCost decimal.Decimal) VATResult {
	vat := Round(Percent(discountedTotal, vatPercentage))
	return VATResult{
		VATAmount:    vat,
		ShippingCost: Round(shippingCost),
		TotalWithVAT: Round(discountedTotal.Add(vat).Add(shippingCost)),
	}
}
