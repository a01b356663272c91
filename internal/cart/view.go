package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemView is one cart line as returned to clients.
type ItemView struct {
	ID                  uuid.UUID        `json:"id"`
	VariantID           uuid.UUID        `json:"variant_id"`
	ProductName         string           `json:"product_name"`
	VariantName         string           `json:"variant_name"`
	Quantity            int              `json:"quantity"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	LinePrice           decimal.Decimal  `json:"line_price"`
	DiscountedLinePrice *decimal.Decimal `json:"discounted_line_price,omitempty"`
}

// CartView is the priced cart payload.
type CartView struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       *string         `json:"session_id,omitempty"`
	Items           []ItemView      `json:"items"`
	ItemCount       int             `json:"item_count"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	PackingFee      decimal.Decimal `json:"packing_fee"`
	VATPercentage   decimal.Decimal `json:"vat_percentage"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	TotalWithVAT    decimal.Decimal `json:"total_with_vat"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// NewView renders a priced cart.
func NewView(p *Priced) *CartView {
	cart := p.Cart
	view := &CartView{
		ID:              cart.ID,
		SessionID:       cart.SessionID,
		Items:           make([]ItemView, 0, len(cart.Items)),
		ItemCount:       p.Snapshot.ItemCount(),
		TotalPrice:      p.Totals.TotalPrice,
		DiscountedPrice: p.Totals.DiscountedPrice,
		DiscountAmount:  p.Totals.DiscountAmount,
		ShippingCost:    p.Totals.ShippingCost,
		PlatformFee:     p.Totals.PlatformFee,
		PackingFee:      p.Totals.PackingFee,
		VATPercentage:   p.Totals.VATPercentage,
		VATAmount:       p.Totals.VATAmount,
		TotalWithVAT:    p.Totals.TotalWithVAT,
		Warnings:        p.Warnings,
	}
	if cart.AppliedCoupon != nil && cart.AppliedCouponID != nil {
		code := cart.AppliedCoupon.Code
		view.CouponCode = &code
	}

	for _, item := range cart.Items {
		line, _ := p.Snapshot.Line(item.VariantID)
		iv := ItemView{
			ID:        item.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: line.Pricing.UnitPrice(),
			LinePrice: line.Price(p.Snapshot.CouponApplied),
		}
		if item.Variant != nil {
			iv.ProductName = item.Variant.ProductName
			iv.VariantName = item.Variant.VariantName
		}
		if price, ok := p.Totals.LinePrices[item.VariantID]; ok {
			discounted := price
			iv.DiscountedLinePrice = &discounted
		}
		view.Items = append(view.Items, iv)
	}
	return view
}
