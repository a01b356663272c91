package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	dbtypes "github.com/crumbworks/bakery-backend/pkg/db/types"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	msgEndBeforeToday        = "End date cannot be date before Current Date."
	msgEndBeforeStart        = "End date cannot be less then start date."
	msgTypeRequired          = "Please select Coupon Type"
	msgBothProductSets       = "Cannot specify both `specific_products` and `buy_products`. Choose one."
	msgProductSetRequired    = "Either `specific_products` or `buy_products` must be provided."
	msgBuyQuantityRequired   = "`buy_products_quantity` is required for Buy X Get Y coupons."
	msgGetProductsRequired   = "`customer_get_products` is required for Buy X Get Y coupons."
	msgGetQuantityRequired   = "`customer_gets_quantity` is required for Buy X Get Y coupons."
	msgDiscountValueRequired = "`discount_value` is required for Amount Off Product coupons."
	msgAppliesToRequired     = "`product` is required for Amount Off Product coupons."
	msgShippingScopeRequired = "`shipping_scope` is required for Free Shipping coupons."
)

// expansion lists the catalog-wide sets a validated coupon still needs filled in.
type expansion struct {
	allBuyProducts bool
	allGetProducts bool
	filterGet      bool
	allStates      bool
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// validateCoupon checks the type-specific requirements of c against today.
func validateCoupon(c *models.Coupon, today time.Time) (expansion, error) {
	var exp expansion
	invalid := func(msg string) (expansion, error) {
		return expansion{}, pkgerrors.New(pkgerrors.CodeValidation, msg)
	}

	start, end := dateOf(c.StartsAt), dateOf(c.EndsAt)
	if end.Before(dateOf(today)) {
		return invalid(msgEndBeforeToday)
	}
	if end.Before(start) {
		return invalid(msgEndBeforeStart)
	}
	if !c.CouponType.IsValid() {
		return invalid(msgTypeRequired)
	}

	switch c.CouponType {
	case enums.CouponTypeBuyXGetY:
		if len(c.SpecificProducts) > 0 && len(c.BuyProducts) > 0 {
			return invalid(msgBothProductSets)
		}
		if c.AppliesTo == enums.ApplyScopeSpecificProducts && len(c.SpecificProducts) == 0 && len(c.BuyProducts) == 0 {
			return invalid(msgProductSetRequired)
		}
		exp.allBuyProducts = c.AppliesTo == enums.ApplyScopeAllProducts
		if c.BuyProductsQuantity <= 0 {
			return invalid(msgBuyQuantityRequired)
		}
		if c.GetAppliesTo == enums.ApplyScopeSpecificProducts {
			if len(c.CustomerGetProducts) == 0 {
				return invalid(msgGetProductsRequired)
			}
			exp.filterGet = true
		} else {
			exp.allGetProducts = true
		}
		if c.CustomerGetsQuantity <= 0 {
			return invalid(msgGetQuantityRequired)
		}

	case enums.CouponTypeAmountOffProduct:
		if !c.DiscountValue.IsPositive() {
			return invalid(msgDiscountValueRequired)
		}
		if c.AppliesTo == "" {
			return invalid(msgAppliesToRequired)
		}
		if c.AppliesTo == enums.ApplyScopeSpecificProducts && len(c.SpecificProducts) == 0 && len(c.BuyProducts) == 0 {
			return invalid(msgProductSetRequired)
		}
		exp.allBuyProducts = c.AppliesTo == enums.ApplyScopeAllProducts

	case enums.CouponTypeAmountOffOrder:
		if !c.DiscountValue.IsPositive() {
			return invalid(msgDiscountValueRequired)
		}
		if c.AppliesTo == enums.ApplyScopeSpecificProducts && len(c.SpecificProducts) == 0 && len(c.BuyProducts) == 0 {
			return invalid(msgProductSetRequired)
		}
		exp.allBuyProducts = c.AppliesTo == enums.ApplyScopeAllProducts

	case enums.CouponTypeFreeShipping:
		if c.ShippingScope == "" {
			return invalid(msgShippingScopeRequired)
		}
		exp.allStates = c.ShippingScope == enums.ShippingScopeAllStates
	}
	return exp, nil
}

type catalogReader interface {
	AllVariantIDs(ctx context.Context) ([]uuid.UUID, error)
	ExistingVariantIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	StateNames(ctx context.Context) ([]string, error)
	EnsureStates(ctx context.Context, names []string) error
}

// expand fills the catalog-wide product and state sets named by exp.
func expand(ctx context.Context, repo catalogReader, c *models.Coupon, exp expansion) error {
	if exp.allBuyProducts || exp.allGetProducts {
		all, err := repo.AllVariantIDs(ctx)
		if err != nil {
			return err
		}
		if exp.allBuyProducts {
			c.BuyProducts = dbtypes.UUIDArray(all)
		}
		if exp.allGetProducts {
			c.CustomerGetProducts = dbtypes.UUIDArray(all)
		}
	}
	if exp.filterGet {
		kept, err := repo.ExistingVariantIDs(ctx, c.CustomerGetProducts)
		if err != nil {
			return err
		}
		c.CustomerGetProducts = dbtypes.UUIDArray(kept)
	}

	if exp.allStates {
		names, err := repo.StateNames(ctx)
		if err != nil {
			return err
		}
		c.States = dbtypes.StringArray(names)
		return nil
	}
	c.States = normalizeStates(c.States)
	return repo.EnsureStates(ctx, c.States)
}

func normalizeStates(in dbtypes.StringArray) dbtypes.StringArray {
	seen := make(map[string]struct{}, len(in))
	out := make(dbtypes.StringArray, 0, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
