package coupon

import (
	"time"

	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	dbtypes "github.com/crumbworks/bakery-backend/pkg/db/types"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Input carries every writable coupon field.
type Input struct {
	Code                       string                           `json:"code"`
	CouponType                 enums.CouponType                 `json:"coupon_type"`
	DiscountType               enums.DiscountType               `json:"discount_type"`
	DiscountValue              decimal.Decimal                  `json:"discount_value"`
	AppliesTo                  enums.CouponApplyScope           `json:"applies_to"`
	SpecificProducts           []uuid.UUID                      `json:"specific_products"`
	BuyProducts                []uuid.UUID                      `json:"buy_products"`
	BuyProductsQuantity        int                              `json:"buy_products_quantity"`
	GetAppliesTo               enums.CouponApplyScope           `json:"get_applies_to"`
	CustomerGetProducts        []uuid.UUID                      `json:"customer_get_products"`
	CustomerGetsQuantity       int                              `json:"customer_gets_quantity"`
	CustomerGetsType           enums.CustomerGetsType           `json:"customer_gets_type"`
	CustomerGetsDiscountValue  decimal.Decimal                  `json:"customer_gets_discount_value"`
	ShippingScope              enums.ShippingScope              `json:"shipping_scope"`
	States                     []string                         `json:"states"`
	ShippingRate               *decimal.Decimal                 `json:"shipping_rate"`
	ExcludeShippingRate        bool                             `json:"exclude_shipping_rate"`
	MinimumPurchaseRequirement enums.MinimumPurchaseRequirement `json:"minimum_purchase_requirement"`
	MinimumPurchaseValue       decimal.Decimal                  `json:"minimum_purchase_value"`
	MinimumItemValue           int                              `json:"minimum_item_value"`
	CustomerEligibility        enums.CustomerEligibility        `json:"customer_eligibility"`
	CustomerSpecification      enums.CustomerSegment            `json:"customer_specification"`
	MaximumDiscountUsage       enums.MaximumDiscountUsage       `json:"maximum_discount_usage"`
	MaximumUsageValue          int                              `json:"maximum_usage_value"`
	Combination                enums.CouponCombination          `json:"combination"`
	StartsAt                   *time.Time                       `json:"starts_at"`
	EndsAt                     *time.Time                       `json:"ends_at"`
	IsActive                   bool                             `json:"is_active"`
}

// toModel builds a coupon row; missing dates default to now.
func (in Input) toModel(now time.Time) *models.Coupon {
	c := &models.Coupon{
		Code:                       in.Code,
		CouponType:                 in.CouponType,
		DiscountType:               in.DiscountType,
		DiscountValue:              in.DiscountValue,
		AppliesTo:                  in.AppliesTo,
		SpecificProducts:           dbtypes.UUIDArray(in.SpecificProducts),
		BuyProducts:                dbtypes.UUIDArray(in.BuyProducts),
		BuyProductsQuantity:        in.BuyProductsQuantity,
		GetAppliesTo:               in.GetAppliesTo,
		CustomerGetProducts:        dbtypes.UUIDArray(in.CustomerGetProducts),
		CustomerGetsQuantity:       in.CustomerGetsQuantity,
		CustomerGetsType:           in.CustomerGetsType,
		CustomerGetsDiscountValue:  in.CustomerGetsDiscountValue,
		ShippingScope:              in.ShippingScope,
		States:                     dbtypes.StringArray(in.States),
		ExcludeShippingRate:        in.ExcludeShippingRate,
		MinimumPurchaseRequirement: in.MinimumPurchaseRequirement,
		MinimumPurchaseValue:       in.MinimumPurchaseValue,
		MinimumItemValue:           in.MinimumItemValue,
		CustomerEligibility:        in.CustomerEligibility,
		CustomerSpecification:      in.CustomerSpecification,
		MaximumDiscountUsage:       in.MaximumDiscountUsage,
		MaximumUsageValue:          in.MaximumUsageValue,
		Combination:                in.Combination,
		StartsAt:                   now,
		EndsAt:                     now,
		IsActive:                   in.IsActive,
	}
	if in.ShippingRate != nil {
		c.ShippingRate = decimal.NewNullDecimal(*in.ShippingRate)
	}
	if in.StartsAt != nil {
		c.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		c.EndsAt = *in.EndsAt
	}
	return c
}

// Patch carries the fields of a partial update; nil fields are left untouched.
type Patch struct {
	Code                       *string                           `json:"code"`
	CouponType                 *enums.CouponType                 `json:"coupon_type"`
	DiscountType               *enums.DiscountType               `json:"discount_type"`
	DiscountValue              *decimal.Decimal                  `json:"discount_value"`
	AppliesTo                  *enums.CouponApplyScope           `json:"applies_to"`
	SpecificProducts           *[]uuid.UUID                      `json:"specific_products"`
	BuyProducts                *[]uuid.UUID                      `json:"buy_products"`
	BuyProductsQuantity        *int                              `json:"buy_products_quantity"`
	GetAppliesTo               *enums.CouponApplyScope           `json:"get_applies_to"`
	CustomerGetProducts        *[]uuid.UUID                      `json:"customer_get_products"`
	CustomerGetsQuantity       *int                              `json:"customer_gets_quantity"`
	CustomerGetsType           *enums.CustomerGetsType           `json:"customer_gets_type"`
	CustomerGetsDiscountValue  *decimal.Decimal                  `json:"customer_gets_discount_value"`
	ShippingScope              *enums.ShippingScope              `json:"shipping_scope"`
	States                     *[]string                         `json:"states"`
	ShippingRate               *decimal.Decimal                  `json:"shipping_rate"`
	ExcludeShippingRate        *bool                             `json:"exclude_shipping_rate"`
	MinimumPurchaseRequirement *enums.MinimumPurchaseRequirement `json:"minimum_purchase_requirement"`
	MinimumPurchaseValue       *decimal.Decimal                  `json:"minimum_purchase_value"`
	MinimumItemValue           *int                              `json:"minimum_item_value"`
	CustomerEligibility        *enums.CustomerEligibility        `json:"customer_eligibility"`
	CustomerSpecification      *enums.CustomerSegment            `json:"customer_specification"`
	MaximumDiscountUsage       *enums.MaximumDiscountUsage       `json:"maximum_discount_usage"`
	MaximumUsageValue          *int                              `json:"maximum_usage_value"`
	Combination                *enums.CouponCombination          `json:"combination"`
	StartsAt                   *time.Time                        `json:"starts_at"`
	EndsAt                     *time.Time                        `json:"ends_at"`
	IsActive                   *bool                             `json:"is_active"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// applyTo copies the set fields onto c.
func (p Patch) applyTo(c *models.Coupon) {
	setIf(&c.Code, p.Code)
	setIf(&c.CouponType, p.CouponType)
	setIf(&c.DiscountType, p.DiscountType)
	setIf(&c.DiscountValue, p.DiscountValue)
	setIf(&c.AppliesTo, p.AppliesTo)
	if p.SpecificProducts != nil {
		c.SpecificProducts = dbtypes.UUIDArray(*p.SpecificProducts)
	}
	if p.BuyProducts != nil {
		c.BuyProducts = dbtypes.UUIDArray(*p.BuyProducts)
	}
	setIf(&c.BuyProductsQuantity, p.BuyProductsQuantity)
	setIf(&c.GetAppliesTo, p.GetAppliesTo)
	if p.CustomerGetProducts != nil {
		c.CustomerGetProducts = dbtypes.UUIDArray(*p.CustomerGetProducts)
	}
	setIf(&c.CustomerGetsQuantity, p.CustomerGetsQuantity)
	setIf(&c.CustomerGetsType, p.CustomerGetsType)
	setIf(&c.CustomerGetsDiscountValue, p.CustomerGetsDiscountValue)
	setIf(&c.ShippingScope, p.ShippingScope)
	if p.States != nil {
		c.States = dbtypes.StringArray(*p.States)
	}
	if p.ShippingRate != nil {
		c.ShippingRate = decimal.NewNullDecimal(*p.ShippingRate)
	}
	setIf(&c.ExcludeShippingRate, p.ExcludeShippingRate)
	setIf(&c.MinimumPurchaseRequirement, p.MinimumPurchaseRequirement)
	setIf(&c.MinimumPurchaseValue, p.MinimumPurchaseValue)
	setIf(&c.MinimumItemValue, p.MinimumItemValue)
	setIf(&c.CustomerEligibility, p.CustomerEligibility)
	setIf(&c.CustomerSpecification, p.CustomerSpecification)
	setIf(&c.MaximumDiscountUsage, p.MaximumDiscountUsage)
	setIf(&c.MaximumUsageValue, p.MaximumUsageValue)
	setIf(&c.Combination, p.Combination)
	setIf(&c.StartsAt, p.StartsAt)
	setIf(&c.EndsAt, p.EndsAt)
	setIf(&c.IsActive, p.IsActive)
}

// ProductRef names a variant referenced by a coupon.
type ProductRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CouponDTO is the admin representation of a coupon.
type CouponDTO struct {
	ID                         uuid.UUID                        `json:"id"`
	Code                       string                           `json:"code"`
	CouponType                 enums.CouponType                 `json:"coupon_type"`
	Status                     enums.CouponStatus               `json:"status"`
	DiscountType               enums.DiscountType               `json:"discount_type,omitempty"`
	DiscountValue              decimal.Decimal                  `json:"discount_value"`
	AppliesTo                  enums.CouponApplyScope           `json:"applies_to,omitempty"`
	SpecificProducts           []ProductRef                     `json:"specific_products"`
	BuyProducts                []ProductRef                     `json:"buy_products"`
	BuyProductsQuantity        int                              `json:"buy_products_quantity"`
	GetAppliesTo               enums.CouponApplyScope           `json:"get_applies_to,omitempty"`
	CustomerGetProducts        []ProductRef                     `json:"customer_get_products"`
	CustomerGetsQuantity       int                              `json:"customer_gets_quantity"`
	CustomerGetsType           enums.CustomerGetsType           `json:"customer_gets_type,omitempty"`
	CustomerGetsDiscountValue  decimal.Decimal                  `json:"customer_gets_discount_value"`
	ShippingScope              enums.ShippingScope              `json:"shipping_scope,omitempty"`
	States                     []string                         `json:"states"`
	ShippingRate               *decimal.Decimal                 `json:"shipping_rate"`
	ExcludeShippingRate        bool                             `json:"exclude_shipping_rate"`
	MinimumPurchaseRequirement enums.MinimumPurchaseRequirement `json:"minimum_purchase_requirement,omitempty"`
	MinimumPurchaseValue       decimal.Decimal                  `json:"minimum_purchase_value"`
	MinimumItemValue           int                              `json:"minimum_item_value"`
	CustomerEligibility        enums.CustomerEligibility        `json:"customer_eligibility,omitempty"`
	CustomerSpecification      enums.CustomerSegment            `json:"customer_specification,omitempty"`
	MaximumDiscountUsage       enums.MaximumDiscountUsage       `json:"maximum_discount_usage,omitempty"`
	MaximumUsageValue          int                              `json:"maximum_usage_value"`
	UsageCount                 int                              `json:"usage_count"`
	Combination                enums.CouponCombination          `json:"combination,omitempty"`
	StartsAt                   time.Time                        `json:"starts_at"`
	EndsAt                     time.Time                        `json:"ends_at"`
	IsActive                   bool                             `json:"is_active"`
	IsDeleted                  bool                             `json:"is_deleted"`
	CreatedAt                  time.Time                        `json:"created_at"`
}

func refs(ids dbtypes.UUIDArray, names map[uuid.UUID]string) []ProductRef {
	out := make([]ProductRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, ProductRef{ID: id, Name: names[id]})
	}
	return out
}

func toDTO(c *models.Coupon, names map[uuid.UUID]string) CouponDTO {
	dto := CouponDTO{
		ID:                         c.ID,
		Code:                       c.Code,
		CouponType:                 c.CouponType,
		Status:                     c.Status(),
		DiscountType:               c.DiscountType,
		DiscountValue:              c.DiscountValue,
		AppliesTo:                  c.AppliesTo,
		SpecificProducts:           refs(c.SpecificProducts, names),
		BuyProducts:                refs(c.BuyProducts, names),
		BuyProductsQuantity:        c.BuyProductsQuantity,
		GetAppliesTo:               c.GetAppliesTo,
		CustomerGetProducts:        refs(c.CustomerGetProducts, names),
		CustomerGetsQuantity:       c.CustomerGetsQuantity,
		CustomerGetsType:           c.CustomerGetsType,
		CustomerGetsDiscountValue:  c.CustomerGetsDiscountValue,
		ShippingScope:              c.ShippingScope,
		States:                     append([]string{}, c.States...),
		ExcludeShippingRate:        c.ExcludeShippingRate,
		MinimumPurchaseRequirement: c.MinimumPurchaseRequirement,
		MinimumPurchaseValue:       c.MinimumPurchaseValue,
		MinimumItemValue:           c.MinimumItemValue,
		CustomerEligibility:        c.CustomerEligibility,
		CustomerSpecification:      c.CustomerSpecification,
		MaximumDiscountUsage:       c.MaximumDiscountUsage,
		MaximumUsageValue:          c.MaximumUsageValue,
		UsageCount:                 c.UsageCount,
		Combination:                c.Combination,
		StartsAt:                   c.StartsAt,
		EndsAt:                     c.EndsAt,
		IsActive:                   c.IsActive,
		IsDeleted:                  c.IsDeleted,
		CreatedAt:                  c.CreatedAt,
	}
	if c.ShippingRate.Valid {
		rate := c.ShippingRate.Decimal
		dto.ShippingRate = &rate
	}
	return dto
}

// referencedVariants collects every variant id named by the coupons.
func referencedVariants(coupons ...*models.Coupon) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var out []uuid.UUID
	for _, c := range coupons {
		for _, set := range []dbtypes.UUIDArray{c.SpecificProducts, c.BuyProducts, c.CustomerGetProducts} {
			for _, id := range set {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// CouponList is a page of admin coupons.
type CouponList struct {
	Items []CouponDTO     `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

// UserCouponDTO is a coupon assigned to the calling customer.
type UserCouponDTO struct {
	ID             uuid.UUID        `json:"id"`
	CouponID       uuid.UUID        `json:"coupon_id"`
	Code           string           `json:"code"`
	CouponType     enums.CouponType `json:"coupon_type"`
	StartsAt       time.Time        `json:"starts_at"`
	EndsAt         time.Time        `json:"ends_at"`
	Redeemed       bool             `json:"redeemed"`
	RedemptionDate *time.Time       `json:"redemption_date,omitempty"`
	MaximumUsage   int              `json:"maximum_usage"`
}

func toUserCouponDTO(uc models.UserCoupon) UserCouponDTO {
	dto := UserCouponDTO{
		ID:             uc.ID,
		CouponID:       uc.CouponID,
		Redeemed:       uc.Redeemed,
		RedemptionDate: uc.RedemptionDate,
		MaximumUsage:   uc.MaximumUsage,
	}
	if uc.Coupon != nil {
		dto.Code = uc.Coupon.Code
		dto.CouponType = uc.Coupon.CouponType
		dto.StartsAt = uc.Coupon.StartsAt
		dto.EndsAt = uc.Coupon.EndsAt
	}
	return dto
}

// UserCouponList is a page of the caller's coupons.
type UserCouponList struct {
	Items []UserCouponDTO `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

// ApplyResult is the outcome of applying or removing a coupon.
type ApplyResult struct {
	Message string         `json:"message"`
	Cart    *cart.CartView `json:"cart"`
}
