package discount

import (
	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Totals is the full price breakdown of a cart.
type Totals struct {
	TotalPrice      decimal.Decimal
	DiscountedPrice decimal.Decimal
	DiscountAmount  decimal.Decimal
	ShippingCost    decimal.Decimal
	PlatformFee     decimal.Decimal
	PackingFee      decimal.Decimal
	VATPercentage   decimal.Decimal
	VATAmount       decimal.Decimal
	TotalWithVAT    decimal.Decimal
	LinePrices      map[uuid.UUID]decimal.Decimal
	MoreUnitsNeeded int
}

// LinePrice returns the discounted price of a line, or its undiscounted price when the rule left it alone.
func (t Totals) LinePrice(line Line, couponApplied bool) decimal.Decimal {
	if price, ok := t.LinePrices[line.VariantID]; ok {
		return price
	}
	return line.Price(couponApplied)
}

// ComputeTotals prices cart under rule and cfg. Platform and packing fees are
// reported but are not part of TotalWithVAT.
func ComputeTotals(cart CartSnapshot, rule Rule, cfg pricing.Config) Totals {
	res := ComputeDiscount(cart, rule)
	shipping := cart.ShippingCost
	if res.ShippingOverride != nil {
		shipping = *res.ShippingOverride
	}
	vat := pricing.CalculateVAT(res.DiscountedTotal, cfg.VATPercentage, shipping)
	return Totals{
		TotalPrice:      res.TotalPrice,
		DiscountedPrice: res.DiscountedTotal,
		DiscountAmount:  res.DiscountAmount(),
		ShippingCost:    vat.ShippingCost,
		PlatformFee:     pricing.Round(cfg.PlatformFee),
		PackingFee:      pricing.Round(cfg.PackingFee),
		VATPercentage:   cfg.VATPercentage,
		VATAmount:       vat.VATAmount,
		TotalWithVAT:    vat.TotalWithVAT,
		LinePrices:      res.LinePrices,
		MoreUnitsNeeded: res.MoreUnitsNeeded,
	}
}
