package discount

import (
	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is the pricing view of one cart item.
type Line struct {
	VariantID       uuid.UUID
	Quantity        int
	Pricing         pricing.VariantPricing
	DiscountedPrice decimal.NullDecimal
}

// Price is the undiscounted line price.
func (l Line) Price(couponApplied bool) decimal.Decimal {
	return pricing.LinePrice(l.Pricing, l.Quantity, couponApplied)
}

// CartSnapshot is the storage-free view of a cart the discount rules operate on.
type CartSnapshot struct {
	Lines         []Line
	ShippingCost  decimal.Decimal
	CouponApplied bool
	// AddressState is the state of the customer's primary address; empty when none is on file.
	AddressState string
	// Catalog prices variants a rule may add to the cart.
	Catalog map[uuid.UUID]pricing.VariantPricing
}

// NewSnapshot builds a snapshot from a cart loaded with Items.Variant.Inventory.
func NewSnapshot(cart *models.Cart, addressState string, catalog map[uuid.UUID]pricing.VariantPricing) CartSnapshot {
	snap := CartSnapshot{
		ShippingCost:  cart.ShippingCost,
		CouponApplied: cart.AppliedCouponID != nil,
		AddressState:  addressState,
		Catalog:       catalog,
		Lines:         make([]Line, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		var inv *models.Inventory
		if item.Variant != nil {
			inv = item.Variant.Inventory
		}
		snap.Lines = append(snap.Lines, Line{
			VariantID:       item.VariantID,
			Quantity:        item.Quantity,
			Pricing:         pricing.FromInventory(inv),
			DiscountedPrice: item.DiscountedPrice,
		})
	}
	return snap
}

// TotalPrice sums undiscounted line prices.
func (c CartSnapshot) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Price(c.CouponApplied))
	}
	return pricing.Round(total)
}

// ItemCount sums line quantities.
func (c CartSnapshot) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Line returns the line for variantID.
func (c CartSnapshot) Line(variantID uuid.UUID) (Line, bool) {
	for _, line := range c.Lines {
		if line.VariantID == variantID {
			return line, true
		}
	}
	return Line{}, false
}

func (c CartSnapshot) pricingFor(variantID uuid.UUID) pricing.VariantPricing {
	if line, ok := c.Line(variantID); ok {
		return line.Pricing
	}
	return c.Catalog[variantID]
}

// LineChange describes a single line mutation produced by Apply or Revert.
type LineChange struct {
	VariantID     uuid.UUID
	QuantityDelta int
	// SetDiscount marks DiscountedPrice as meaningful; an invalid NullDecimal clears the column.
	SetDiscount     bool
	DiscountedPrice decimal.NullDecimal
}

// Mutation is the persisted effect of applying or reverting a coupon.
type Mutation struct {
	Lines        []LineChange
	ShippingCost *decimal.Decimal
	Message      string
}

// ApplyTo returns the snapshot after the mutation. Lines whose quantity drops to zero are removed.
func (m Mutation) ApplyTo(cart CartSnapshot) CartSnapshot {
	out := cart
	out.Lines = make([]Line, 0, len(cart.Lines)+len(m.Lines))
	out.Lines = append(out.Lines, cart.Lines...)

	for _, change := range m.Lines {
		idx := -1
		for i := range out.Lines {
			if out.Lines[i].VariantID == change.VariantID {
				idx = i
				break
			}
		}
		if idx < 0 {
			if change.QuantityDelta <= 0 {
				continue
			}
			out.Lines = append(out.Lines, Line{
				VariantID: change.VariantID,
				Pricing:   cart.pricingFor(change.VariantID),
			})
			idx = len(out.Lines) - 1
		}
		out.Lines[idx].Quantity += change.QuantityDelta
		if change.SetDiscount {
			out.Lines[idx].DiscountedPrice = change.DiscountedPrice
		}
	}

	kept := out.Lines[:0]
	for _, line := range out.Lines {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	out.Lines = kept

	if m.ShippingCost != nil {
		out.ShippingCost = *m.ShippingCost
	}
	return out
}
