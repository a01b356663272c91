package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is owned by exactly one of a user or an anonymous session.
type Cart struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID      `gorm:"column:user_id;type:uuid;index"`
	SessionID       *string         `gorm:"column:session_id;uniqueIndex"`
	AppliedCouponID *uuid.UUID      `gorm:"column:applied_coupon_id;type:uuid"`
	AppliedCoupon   *Coupon         `gorm:"foreignKey:AppliedCouponID"`
	ShippingCost    decimal.Decimal `gorm:"column:shipping_cost;type:numeric(10,2);not null;default:0"`
	PlatformFee     decimal.Decimal `gorm:"column:platform_fee;type:numeric(10,2);not null;default:0"`
	PackingFee      decimal.Decimal `gorm:"column:packing_fee;type:numeric(10,2);not null;default:0"`
	VATAmount       decimal.Decimal `gorm:"column:vat_amount;type:numeric(10,2);not null;default:0"`
	TotalWithVAT    decimal.Decimal `gorm:"column:total_with_vat;type:numeric(10,2);not null;default:0"`
	Items           []CartItem      `gorm:"foreignKey:CartID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CartItem is a (variant, quantity) line. DiscountedPrice holds the discounted
// line price while a coupon is applied.
type CartItem struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CartID          uuid.UUID           `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_variant"`
	VariantID       uuid.UUID           `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_variant"`
	Variant         *ProductVariant     `gorm:"foreignKey:VariantID"`
	Quantity        int                 `gorm:"column:quantity;not null"`
	DiscountedPrice decimal.NullDecimal `gorm:"column:discounted_price;type:numeric(10,2)"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
