package discount

import (
	"testing"

	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	dbtypes "github.com/crumbworks/bakery-backend/pkg/db/types"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(value)
}

func regular(price string) pricing.VariantPricing {
	return pricing.VariantPricing{RegularPrice: decimal.RequireFromString(price)}
}

func TestAmountOffOrderDiscount(t *testing.T) {
	cart := CartSnapshot{
		CouponApplied: true,
		Lines: []Line{
			{VariantID: uuid.New(), Quantity: 2, Pricing: regular("25")},
		},
	}

	cases := []struct {
		name string
		rule AmountOffOrder
		want string
	}{
		{name: "amount", rule: AmountOffOrder{DiscountType: enums.DiscountTypeAmount, Value: dec(t, "10")}, want: "40"},
		{name: "percentage", rule: AmountOffOrder{DiscountType: enums.DiscountTypePercentage, Value: dec(t, "10")}, want: "45"},
		{name: "floored", rule: AmountOffOrder{DiscountType: enums.DiscountTypeAmount, Value: dec(t, "80")}, want: "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ComputeDiscount(cart, tc.rule)
			if !res.DiscountedTotal.Equal(dec(t, tc.want)) {
				t.Fatalf("expected %s got %s", tc.want, res.DiscountedTotal)
			}
			if res.DiscountedTotal.GreaterThan(res.TotalPrice) || res.DiscountedTotal.IsNegative() {
				t.Fatalf("discounted total out of range: %s", res.DiscountedTotal)
			}
		})
	}
}

func TestAmountOffOrderMinimumPurchase(t *testing.T) {
	cart := CartSnapshot{Lines: []Line{{VariantID: uuid.New(), Quantity: 1, Pricing: regular("30")}}}
	rule := AmountOffOrder{DiscountType: enums.DiscountTypeAmount, Value: dec(t, "5"), MinimumPurchase: dec(t, "50")}

	_, err := rule.Apply(cart)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := pkgerrors.As(err).Message(); got != "Coupon can only be applied on a minimum purchase of 50.00." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAmountOffProductsOnlyDiscountsEligibleLines(t *testing.T) {
	cake := uuid.New()
	bread := uuid.New()
	cart := CartSnapshot{
		CouponApplied: true,
		Lines: []Line{
			{VariantID: cake, Quantity: 2, Pricing: regular("20")},
			{VariantID: bread, Quantity: 1, Pricing: regular("8")},
		},
	}
	rule := AmountOffProducts{
		DiscountType: enums.DiscountTypePercentage,
		Value:        dec(t, "25"),
		Products:     dbtypes.UUIDArray{cake},
	}

	res := ComputeDiscount(cart, rule)
	if !res.DiscountedTotal.Equal(dec(t, "38")) {
		t.Fatalf("expected 38 got %s", res.DiscountedTotal)
	}
	if _, ok := res.LinePrices[bread]; ok {
		t.Fatalf("ineligible line must not carry a discounted price")
	}

	mut, err := rule.Apply(cart)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	after := mut.ApplyTo(cart)
	line, _ := after.Line(cake)
	if !line.DiscountedPrice.Valid || !line.DiscountedPrice.Decimal.Equal(dec(t, "30")) {
		t.Fatalf("expected discounted line 30, got %+v", line.DiscountedPrice)
	}

	reverted := rule.Revert(after).ApplyTo(after)
	for _, l := range reverted.Lines {
		if l.DiscountedPrice.Valid {
			t.Fatalf("revert must clear discounted prices")
		}
	}
}

func TestBuyXGetYAddsFreeUnits(t *testing.T) {
	buy := uuid.New()
	get := uuid.New()
	cart := CartSnapshot{
		Lines:   []Line{{VariantID: buy, Quantity: 2, Pricing: regular("15")}},
		Catalog: map[uuid.UUID]pricing.VariantPricing{get: regular("10")},
	}
	rule := BuyXGetY{
		BuyProducts: dbtypes.UUIDArray{buy},
		BuyQuantity: 2,
		GetProducts: dbtypes.UUIDArray{get},
		GetQuantity: 1,
		GetsType:    enums.CustomerGetsFree,
	}

	mut, err := rule.Apply(cart)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mut.Message != "Buy X Get Y coupon applied successfully." {
		t.Fatalf("unexpected message %q", mut.Message)
	}
	after := mut.ApplyTo(cart)
	after.CouponApplied = true

	line, ok := after.Line(get)
	if !ok || line.Quantity != 1 {
		t.Fatalf("expected one get unit in cart, got %+v", line)
	}
	if !line.DiscountedPrice.Valid || !line.DiscountedPrice.Decimal.IsZero() {
		t.Fatalf("expected free get line, got %+v", line.DiscountedPrice)
	}

	res := ComputeDiscount(after, rule)
	if !res.TotalPrice.Equal(dec(t, "40")) || !res.DiscountedTotal.Equal(dec(t, "30")) {
		t.Fatalf("expected 40/30 got %s/%s", res.TotalPrice, res.DiscountedTotal)
	}

	restored := rule.Revert(after).ApplyTo(after)
	if _, ok := restored.Line(get); ok {
		t.Fatalf("revert must remove the added get line")
	}
	if len(restored.Lines) != 1 || restored.Lines[0].Quantity != 2 {
		t.Fatalf("revert must restore original lines, got %+v", restored.Lines)
	}
}

func TestBuyXGetYDiscountedGetTypes(t *testing.T) {
	get := uuid.New()
	p := regular("10")

	cases := []struct {
		name     string
		getsType enums.CustomerGetsType
		value    string
		qty      int
		want     string
	}{
		{name: "free", getsType: enums.CustomerGetsFree, qty: 2, want: "10"},
		{name: "amount off each", getsType: enums.CustomerGetsAmountOffEach, value: "4", qty: 1, want: "6"},
		{name: "amount off floored", getsType: enums.CustomerGetsAmountOffEach, value: "40", qty: 1, want: "0"},
		{name: "percentage", getsType: enums.CustomerGetsPercentage, value: "50", qty: 1, want: "5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := BuyXGetY{GetProducts: dbtypes.UUIDArray{get}, GetQuantity: 1, GetsType: tc.getsType}
			if tc.value != "" {
				rule.GetsValue = dec(t, tc.value)
			}
			if got := rule.getLinePrice(p, tc.qty); !got.Equal(dec(t, tc.want)) {
				t.Fatalf("expected %s got %s", tc.want, got)
			}
		})
	}
}

func TestBuyXGetYRequiresBuyUnits(t *testing.T) {
	buy := uuid.New()
	other := uuid.New()
	rule := BuyXGetY{BuyProducts: dbtypes.UUIDArray{buy}, BuyQuantity: 3, GetProducts: dbtypes.UUIDArray{buy}, GetQuantity: 1}

	_, err := rule.Apply(CartSnapshot{Lines: []Line{{VariantID: other, Quantity: 5, Pricing: regular("1")}}})
	if err == nil || pkgerrors.As(err).Message() != "Products not found in the cart for Buy X Get Y offer." {
		t.Fatalf("expected missing buy products error, got %v", err)
	}

	_, err = rule.Apply(CartSnapshot{Lines: []Line{{VariantID: buy, Quantity: 1, Pricing: regular("1")}}})
	if err == nil || pkgerrors.As(err).Message() != "Offer will be applicable after adding 2 more product." {
		t.Fatalf("expected more units error, got %v", err)
	}

	res := ComputeDiscount(CartSnapshot{Lines: []Line{{VariantID: buy, Quantity: 1, Pricing: regular("1")}}}, rule)
	if res.MoreUnitsNeeded != 2 {
		t.Fatalf("expected 2 more units, got %d", res.MoreUnitsNeeded)
	}
}

func TestFreeShippingStates(t *testing.T) {
	rule := FreeShipping{
		States:              dbtypes.StringArray{"Stockholm"},
		ExcludeShippingRate: true,
	}
	base := CartSnapshot{
		ShippingCost: dec(t, "49"),
		Lines:        []Line{{VariantID: uuid.New(), Quantity: 1, Pricing: regular("100")}},
	}

	eligible := base
	eligible.AddressState = "Stockholm"
	mut, err := rule.Apply(eligible)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if after := mut.ApplyTo(eligible); !after.ShippingCost.IsZero() {
		t.Fatalf("expected free shipping, got %s", after.ShippingCost)
	}

	ineligible := base
	ineligible.AddressState = "Uppsala"
	if _, err := rule.Apply(ineligible); err == nil || pkgerrors.As(err).Message() != "Free shipping is not available for this state." {
		t.Fatalf("expected state error, got %v", err)
	}

	if _, err := rule.Apply(base); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found without address, got %v", err)
	}

	if res := ComputeDiscount(ineligible, rule); res.ShippingOverride != nil {
		t.Fatalf("ineligible state must not override shipping")
	}
}

func TestFreeShippingRateOverride(t *testing.T) {
	rule := FreeShipping{AllStates: true, ShippingRate: decimal.NewNullDecimal(decimal.RequireFromString("9.5"))}
	cart := CartSnapshot{AddressState: "Uppsala", ShippingCost: decimal.NewFromInt(49)}

	mut, err := rule.Apply(cart)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mut.ShippingCost == nil || !mut.ShippingCost.Equal(dec(t, "9.5")) {
		t.Fatalf("expected shipping rate 9.5, got %v", mut.ShippingCost)
	}
	if len(rule.Revert(cart).Lines) != 0 {
		t.Fatalf("free shipping revert touches no lines")
	}
}

func TestNewRuleRejectsUnknownType(t *testing.T) {
	if _, err := NewRule(&models.Coupon{CouponType: "bogus"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	rule, err := NewRule(&models.Coupon{
		CouponType:          enums.CouponTypeBuyXGetY,
		SpecificProducts:    dbtypes.UUIDArray{uuid.New()},
		BuyProductsQuantity: 1,
	})
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}
	if bx := rule.(BuyXGetY); len(bx.BuyProducts) != 1 {
		t.Fatalf("specific products must count as buy products")
	}
}

func TestComputeDiscountWithoutRule(t *testing.T) {
	cart := CartSnapshot{Lines: []Line{{VariantID: uuid.New(), Quantity: 3, Pricing: regular("4.5")}}}
	res := ComputeDiscount(cart, nil)
	if !res.DiscountedTotal.Equal(res.TotalPrice) || !res.DiscountAmount().IsZero() {
		t.Fatalf("expected no discount, got %+v", res)
	}
}
