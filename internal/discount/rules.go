// Package discount prices carts under the typed coupon rules.
package discount

import (
	"fmt"

	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	dbtypes "github.com/crumbworks/bakery-backend/pkg/db/types"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgCouponApplied         = "Coupon applied successfully."
	msgBuyXGetYApplied       = "Buy X Get Y coupon applied successfully."
	msgFreeShippingApplied   = "Free shipping applied successfully."
	msgProductDiscounts      = "Discount applied to eligible products successfully."
	msgBuyProductsMissing    = "Products not found in the cart for Buy X Get Y offer."
	msgNoPrimaryAddress      = "No primary address found for the user."
	msgFreeShippingState     = "Free shipping is not available for this state."
	msgInvalidCouponType     = "Invalid coupon type."
	fmtMinimumOrderAmount    = "Coupon can only be applied on a minimum purchase of %s."
	fmtMinimumPurchaseNotMet = "Minimum purchase amount of %s not met."
	fmtMoreUnitsNeeded       = "Offer will be applicable after adding %d more product."
)

// Rule is the typed discount behaviour of one coupon type.
type Rule interface {
	Type() enums.CouponType
	// Apply validates the cart and returns the line and shipping changes to persist.
	Apply(cart CartSnapshot) (Mutation, error)
	// Revert returns the changes that undo Apply.
	Revert(cart CartSnapshot) Mutation
	// Discount computes the discounted totals of a cart this rule is applied to.
	Discount(cart CartSnapshot) DiscountResult
}

// DiscountResult is the outcome of pricing a cart under a rule.
type DiscountResult struct {
	TotalPrice      decimal.Decimal
	DiscountedTotal decimal.Decimal
	// LinePrices holds discounted line prices keyed by variant, for discounted lines only.
	LinePrices       map[uuid.UUID]decimal.Decimal
	ShippingOverride *decimal.Decimal
	MoreUnitsNeeded  int
}

// DiscountAmount is the difference between the undiscounted and discounted totals.
func (r DiscountResult) DiscountAmount() decimal.Decimal {
	return pricing.Floor(r.TotalPrice.Sub(r.DiscountedTotal))
}

// ComputeDiscount prices cart under rule. A nil rule leaves the total undiscounted.
func ComputeDiscount(cart CartSnapshot, rule Rule) DiscountResult {
	if rule == nil {
		total := cart.TotalPrice()
		return DiscountResult{TotalPrice: total, DiscountedTotal: total}
	}
	res := rule.Discount(cart)
	res.DiscountedTotal = pricing.Round(pricing.Floor(res.DiscountedTotal))
	if rule.Type() != enums.CouponTypeFreeShipping && res.DiscountedTotal.GreaterThan(res.TotalPrice) {
		res.DiscountedTotal = res.TotalPrice
	}
	return res
}

// NewRule builds the rule carried by a coupon row.
func NewRule(c *models.Coupon) (Rule, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCouponType)
	}
	switch c.CouponType {
	case enums.CouponTypeAmountOffOrder:
		return AmountOffOrder{
			DiscountType:    c.DiscountType,
			Value:           c.DiscountValue,
			MinimumPurchase: c.MinimumPurchaseValue,
		}, nil
	case enums.CouponTypeAmountOffProduct:
		return AmountOffProducts{
			DiscountType: c.DiscountType,
			Value:        c.DiscountValue,
			AllProducts:  c.AppliesTo == enums.ApplyScopeAllProducts,
			Products:     c.SpecificProducts,
		}, nil
	case enums.CouponTypeBuyXGetY:
		buy := make(dbtypes.UUIDArray, 0, len(c.BuyProducts)+len(c.SpecificProducts))
		buy = append(buy, c.BuyProducts...)
		buy = append(buy, c.SpecificProducts...)
		return BuyXGetY{
			BuyProducts: buy,
			BuyQuantity: c.BuyProductsQuantity,
			GetProducts: c.CustomerGetProducts,
			GetQuantity: c.CustomerGetsQuantity,
			GetsType:    c.CustomerGetsType,
			GetsValue:   c.CustomerGetsDiscountValue,
		}, nil
	case enums.CouponTypeFreeShipping:
		return FreeShipping{
			AllStates:           c.ShippingScope != enums.ShippingScopeSpecificStates,
			States:              c.States,
			ExcludeShippingRate: c.ExcludeShippingRate,
			ShippingRate:        c.ShippingRate,
		}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCouponType)
	}
}

// MoreUnitsMessage tells the customer how many buy units are still missing.
func MoreUnitsMessage(n int) string {
	return fmt.Sprintf(fmtMoreUnitsNeeded, n)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func clearAllDiscounts(cart CartSnapshot) Mutation {
	changes := make([]LineChange, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		changes = append(changes, LineChange{VariantID: line.VariantID, SetDiscount: true})
	}
	return Mutation{Lines: changes}
}

func discounted(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(pricing.Round(d))
}

// AmountOffOrder takes a flat amount or a percentage off the whole cart.
type AmountOffOrder struct {
	DiscountType    enums.DiscountType
	Value           decimal.Decimal
	MinimumPurchase decimal.Decimal
}

func (AmountOffOrder) Type() enums.CouponType { return enums.CouponTypeAmountOffOrder }

func (r AmountOffOrder) Apply(cart CartSnapshot) (Mutation, error) {
	total := cart.TotalPrice()
	if total.LessThan(r.MinimumPurchase) {
		if r.DiscountType == enums.DiscountTypePercentage {
			return Mutation{}, pkgerrors.Newf(pkgerrors.CodeValidation, fmtMinimumPurchaseNotMet, money(r.MinimumPurchase))
		}
		return Mutation{}, pkgerrors.Newf(pkgerrors.CodeValidation, fmtMinimumOrderAmount, money(r.MinimumPurchase))
	}
	if !r.DiscountType.IsValid() {
		return Mutation{}, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCouponType)
	}
	return Mutation{Message: msgCouponApplied}, nil
}

func (AmountOffOrder) Revert(cart CartSnapshot) Mutation {
	return clearAllDiscounts(cart)
}

func (r AmountOffOrder) Discount(cart CartSnapshot) DiscountResult {
	total := cart.TotalPrice()
	off := r.Value
	if r.DiscountType == enums.DiscountTypePercentage {
		off = pricing.Percent(total, r.Value)
	}
	return DiscountResult{
		TotalPrice:      total,
		DiscountedTotal: pricing.Floor(total.Sub(off)),
	}
}

// AmountOffProducts discounts each eligible line by a flat amount or a percentage per unit.
type AmountOffProducts struct {
	DiscountType enums.DiscountType
	Value        decimal.Decimal
	AllProducts  bool
	Products     dbtypes.UUIDArray
}

func (AmountOffProducts) Type() enums.CouponType { return enums.CouponTypeAmountOffProduct }

func (r AmountOffProducts) eligible(variantID uuid.UUID) bool {
	return r.AllProducts || r.Products.Contains(variantID)
}

func (r AmountOffProducts) linePrice(line Line) decimal.Decimal {
	unit := line.Pricing.UnitPrice()
	var perUnit decimal.Decimal
	if r.DiscountType == enums.DiscountTypePercentage {
		perUnit = unit.Sub(pricing.Percent(unit, r.Value))
	} else {
		perUnit = unit.Sub(r.Value)
	}
	return pricing.Round(pricing.Floor(perUnit).Mul(decimal.NewFromInt(int64(line.Quantity))))
}

func (r AmountOffProducts) Apply(cart CartSnapshot) (Mutation, error) {
	var changes []LineChange
	for _, line := range cart.Lines {
		if !r.eligible(line.VariantID) {
			continue
		}
		changes = append(changes, LineChange{
			VariantID:       line.VariantID,
			SetDiscount:     true,
			DiscountedPrice: discounted(r.linePrice(line)),
		})
	}
	return Mutation{Lines: changes, Message: msgProductDiscounts}, nil
}

func (AmountOffProducts) Revert(cart CartSnapshot) Mutation {
	return clearAllDiscounts(cart)
}

func (r AmountOffProducts) Discount(cart CartSnapshot) DiscountResult {
	res := DiscountResult{TotalPrice: cart.TotalPrice(), LinePrices: map[uuid.UUID]decimal.Decimal{}}
	sum := decimal.Zero
	for _, line := range cart.Lines {
		if !r.eligible(line.VariantID) {
			sum = sum.Add(line.Price(true))
			continue
		}
		price := r.linePrice(line)
		res.LinePrices[line.VariantID] = price
		sum = sum.Add(price)
	}
	res.DiscountedTotal = sum
	return res
}

// BuyXGetY adds discounted "get" units once the cart holds enough "buy" units.
type BuyXGetY struct {
	BuyProducts dbtypes.UUIDArray
	BuyQuantity int
	GetProducts dbtypes.UUIDArray
	GetQuantity int
	GetsType    enums.CustomerGetsType
	GetsValue   decimal.Decimal
}

func (BuyXGetY) Type() enums.CouponType { return enums.CouponTypeBuyXGetY }

// buyUnits counts units of buy products in the cart and whether any buy line exists.
func (r BuyXGetY) buyUnits(cart CartSnapshot) (int, bool) {
	units := 0
	found := false
	for _, line := range cart.Lines {
		if r.BuyProducts.Contains(line.VariantID) {
			units += line.Quantity
			found = true
		}
	}
	return units, found
}

// getUnitPrice prices a single discounted "get" unit.
func (r BuyXGetY) getUnitPrice(unit decimal.Decimal) decimal.Decimal {
	switch r.GetsType {
	case enums.CustomerGetsPercentage:
		return pricing.Floor(unit.Sub(pricing.Percent(unit, r.GetsValue)))
	case enums.CustomerGetsAmountOffEach:
		return pricing.Floor(unit.Sub(r.GetsValue))
	default:
		return decimal.Zero
	}
}

// getLinePrice prices a get-product line: up to GetQuantity units are discounted, the rest pay full unit price.
func (r BuyXGetY) getLinePrice(p pricing.VariantPricing, quantity int) decimal.Decimal {
	discountedUnits := quantity
	if discountedUnits > r.GetQuantity {
		discountedUnits = r.GetQuantity
	}
	unit := p.UnitPrice()
	full := unit.Mul(decimal.NewFromInt(int64(quantity - discountedUnits)))
	free := r.getUnitPrice(unit).Mul(decimal.NewFromInt(int64(discountedUnits)))
	return pricing.Round(full.Add(free))
}

func (r BuyXGetY) Apply(cart CartSnapshot) (Mutation, error) {
	units, found := r.buyUnits(cart)
	if !found {
		return Mutation{}, pkgerrors.New(pkgerrors.CodeValidation, msgBuyProductsMissing)
	}
	if units < r.BuyQuantity {
		return Mutation{}, pkgerrors.Newf(pkgerrors.CodeValidation, fmtMoreUnitsNeeded, r.BuyQuantity-units)
	}

	changes := make([]LineChange, 0, len(r.GetProducts))
	for _, variantID := range r.GetProducts {
		quantity := r.GetQuantity
		if line, ok := cart.Line(variantID); ok {
			quantity += line.Quantity
		}
		changes = append(changes, LineChange{
			VariantID:       variantID,
			QuantityDelta:   r.GetQuantity,
			SetDiscount:     true,
			DiscountedPrice: discounted(r.getLinePrice(cart.pricingFor(variantID), quantity)),
		})
	}
	return Mutation{Lines: changes, Message: msgBuyXGetYApplied}, nil
}

func (r BuyXGetY) Revert(cart CartSnapshot) Mutation {
	changes := make([]LineChange, 0, len(r.GetProducts))
	for _, variantID := range r.GetProducts {
		if _, ok := cart.Line(variantID); !ok {
			continue
		}
		changes = append(changes, LineChange{
			VariantID:     variantID,
			QuantityDelta: -r.GetQuantity,
			SetDiscount:   true,
		})
	}
	return Mutation{Lines: changes}
}

func (r BuyXGetY) Discount(cart CartSnapshot) DiscountResult {
	total := cart.TotalPrice()
	res := DiscountResult{TotalPrice: total, DiscountedTotal: total}
	units, _ := r.buyUnits(cart)
	if units < r.BuyQuantity {
		res.MoreUnitsNeeded = r.BuyQuantity - units
		return res
	}

	res.LinePrices = map[uuid.UUID]decimal.Decimal{}
	sum := decimal.Zero
	for _, line := range cart.Lines {
		if !r.GetProducts.Contains(line.VariantID) {
			sum = sum.Add(line.Price(true))
			continue
		}
		price := r.getLinePrice(line.Pricing, line.Quantity)
		res.LinePrices[line.VariantID] = price
		sum = sum.Add(price)
	}
	res.DiscountedTotal = sum
	return res
}

// FreeShipping zeroes or overrides the shipping cost for eligible states.
type FreeShipping struct {
	AllStates           bool
	States              dbtypes.StringArray
	ExcludeShippingRate bool
	ShippingRate        decimal.NullDecimal
}

func (FreeShipping) Type() enums.CouponType { return enums.CouponTypeFreeShipping }

func (r FreeShipping) shipping(state string) (decimal.Decimal, error) {
	if state == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, msgNoPrimaryAddress)
	}
	if !r.AllStates && !r.States.Contains(state) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, msgFreeShippingState)
	}
	switch {
	case r.ExcludeShippingRate:
		return decimal.Zero, nil
	case r.ShippingRate.Valid:
		return pricing.Round(r.ShippingRate.Decimal), nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, msgFreeShippingState)
	}
}

func (r FreeShipping) Apply(cart CartSnapshot) (Mutation, error) {
	cost, err := r.shipping(cart.AddressState)
	if err != nil {
		return Mutation{}, err
	}
	return Mutation{ShippingCost: &cost, Message: msgFreeShippingApplied}, nil
}

// Revert leaves shipping untouched; the pre-coupon shipping cost is not restored.
func (FreeShipping) Revert(CartSnapshot) Mutation {
	return Mutation{}
}

func (r FreeShipping) Discount(cart CartSnapshot) DiscountResult {
	total := cart.TotalPrice()
	res := DiscountResult{TotalPrice: total, DiscountedTotal: total}
	if cost, err := r.shipping(cart.AddressState); err == nil {
		res.ShippingOverride = &cost
	}
	return res
}
