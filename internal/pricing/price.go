package pricing

import (
	"sort"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// VariantPricing carries the inputs needed to price a variant.
type VariantPricing struct {
	RegularPrice decimal.Decimal
	SalePrice    decimal.Decimal
	SaleActive   bool
	Tiers        types.BulkPriceRules
}

// FromInventory extracts pricing inputs from an inventory row. A nil inventory prices at zero.
func FromInventory(inv *models.Inventory) VariantPricing {
	if inv == nil {
		return VariantPricing{}
	}
	return VariantPricing{
		RegularPrice: inv.RegularPrice,
		SalePrice:    inv.SalePrice,
		SaleActive:   inv.SaleActive,
		Tiers:        inv.BulkPriceRules,
	}
}

// UnitPrice is the sale price while the sale window is active, the regular price otherwise.
func (p VariantPricing) UnitPrice() decimal.Decimal {
	if p.SaleActive {
		return p.SalePrice
	}
	return p.RegularPrice
}

// LinePrice resolves the price of quantity units of a variant.
//
// Tiers are consumed in ascending quantity_from order: each tier whose
// quantity_to fits into the remaining quantity prices remaining/quantity_to
// bundles at the tier price and carries the remainder forward. Units left after
// a tier matched are priced at the regular price. When no tier matched the line
// falls back to sale or regular pricing. Tiers are skipped entirely while a
// coupon is applied to the cart.
func LinePrice(p VariantPricing, quantity int, couponApplied bool) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}

	if !couponApplied {
		if total, ok := tierPrice(p, quantity); ok {
			return Round(total)
		}
	}

	return Round(p.UnitPrice().Mul(decimal.NewFromInt(int64(quantity))))
}

func tierPrice(p VariantPricing, quantity int) (decimal.Decimal, bool) {
	remaining := quantity
	total := decimal.Zero
	matched := false

	for _, tier := range orderTiers(p.Tiers) {
		if !tier.QuantityTo.Valid || tier.QuantityTo.Value <= 0 {
			continue
		}
		to := tier.QuantityTo.Value
		if remaining < to {
			continue
		}
		bundles := remaining / to
		total = total.Add(tier.Price.Mul(decimal.NewFromInt(int64(bundles))))
		remaining %= to
		matched = true
	}

	if !matched {
		return decimal.Zero, false
	}
	if remaining > 0 {
		total = total.Add(p.RegularPrice.Mul(decimal.NewFromInt(int64(remaining))))
	}
	return total, true
}

// orderTiers sorts tiers with a numeric quantity_from ascending and appends the rest in input order.
func orderTiers(tiers types.BulkPriceRules) types.BulkPriceRules {
	sorted := make(types.BulkPriceRules, 0, len(tiers))
	var unsorted types.BulkPriceRules
	for _, tier := range tiers {
		if tier.QuantityFrom.Valid {
			sorted = append(sorted, tier)
			continue
		}
		unsorted = append(unsorted, tier)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].QuantityFrom.Value < sorted[j].QuantityFrom.Value
	})
	return append(sorted, unsorted...)
}

// Round quantizes to two decimal places using round-half-even.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// Percent returns pct percent of amount, unrounded.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Floor returns zero when d is negative.
func Floor(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
