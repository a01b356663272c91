package models

import (
	"time"

	dbtypes "github.com/crumbworks/bakery-backend/pkg/db/types"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Coupon stores every coupon type in one row; only the columns of its CouponType are meaningful.
type Coupon struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code       string           `gorm:"column:code;not null;uniqueIndex"`
	CouponType enums.CouponType `gorm:"column:coupon_type;type:text;not null"`

	DiscountType     enums.DiscountType     `gorm:"column:discount_type;type:text"`
	DiscountValue    decimal.Decimal        `gorm:"column:discount_value;type:numeric(10,2);not null;default:0"`
	AppliesTo        enums.CouponApplyScope `gorm:"column:applies_to;type:text"`
	SpecificProducts dbtypes.UUIDArray      `gorm:"column:specific_products"`

	BuyProducts               dbtypes.UUIDArray      `gorm:"column:buy_products"`
	BuyProductsQuantity       int                    `gorm:"column:buy_products_quantity;not null;default:0"`
	GetAppliesTo              enums.CouponApplyScope `gorm:"column:get_applies_to;type:text"`
	CustomerGetProducts       dbtypes.UUIDArray      `gorm:"column:customer_get_products"`
	CustomerGetsQuantity      int                    `gorm:"column:customer_gets_quantity;not null;default:0"`
	CustomerGetsType          enums.CustomerGetsType `gorm:"column:customer_gets_type;type:text"`
	CustomerGetsDiscountValue decimal.Decimal        `gorm:"column:customer_gets_discount_value;type:numeric(10,2);not null;default:0"`

	ShippingScope       enums.ShippingScope `gorm:"column:shipping_scope;type:text"`
	States              dbtypes.StringArray `gorm:"column:states"`
	ShippingRate        decimal.NullDecimal `gorm:"column:shipping_rate;type:numeric(10,2)"`
	ExcludeShippingRate bool                `gorm:"column:exclude_shipping_rate;not null;default:false"`

	MinimumPurchaseRequirement enums.MinimumPurchaseRequirement `gorm:"column:minimum_purchase_requirement;type:text"`
	MinimumPurchaseValue       decimal.Decimal                  `gorm:"column:minimum_purchase_value;type:numeric(10,2);not null;default:0"`
	MinimumItemValue           int                              `gorm:"column:minimum_item_value;not null;default:0"`

	CustomerEligibility   enums.CustomerEligibility  `gorm:"column:customer_eligibility;type:text"`
	CustomerSpecification enums.CustomerSegment      `gorm:"column:customer_specification;type:text"`
	MaximumDiscountUsage  enums.MaximumDiscountUsage `gorm:"column:maximum_discount_usage;type:text"`
	MaximumUsageValue     int                        `gorm:"column:maximum_usage_value;not null;default:0"`
	UsageCount            int                        `gorm:"column:usage_count;not null;default:0"`
	Combination           enums.CouponCombination    `gorm:"column:combination;type:text"`

	StartsAt  time.Time `gorm:"column:starts_at;not null"`
	EndsAt    time.Time `gorm:"column:ends_at;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Status derives the admin-facing lifecycle state.
func (c Coupon) Status() enums.CouponStatus {
	switch {
	case c.IsDeleted:
		return enums.CouponStatusTrash
	case c.IsActive:
		return enums.CouponStatusPublish
	default:
		return enums.CouponStatusDraft
	}
}

// UserCoupon assigns a coupon to a customer and tracks per-user redemption.
type UserCoupon struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_user_coupons_user_coupon"`
	CouponID       uuid.UUID  `gorm:"column:coupon_id;type:uuid;not null;uniqueIndex:ux_user_coupons_user_coupon"`
	Coupon         *Coupon    `gorm:"foreignKey:CouponID"`
	Redeemed       bool       `gorm:"column:redeemed;not null;default:false"`
	RedemptionDate *time.Time `gorm:"column:redemption_date"`
	MaximumUsage   int        `gorm:"column:maximum_usage;not null;default:0"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (u *UserCoupon) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
