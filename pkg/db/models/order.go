package models

import (
	"time"

	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the immutable checkout snapshot of a cart; only Status changes afterwards.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber      string            `gorm:"column:order_number;not null;uniqueIndex"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Email            string            `gorm:"column:email;not null"`
	ContactNumber    *string           `gorm:"column:contact_number"`
	Address          string            `gorm:"column:address;not null"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	DiscountAmount   decimal.Decimal   `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	DiscountedAmount decimal.Decimal   `gorm:"column:discounted_amount;type:numeric(10,2);not null;default:0"`
	FinalAmount      decimal.Decimal   `gorm:"column:final_amount;type:numeric(10,2);not null"`
	VATAmount        decimal.Decimal   `gorm:"column:vat_amount;type:numeric(10,2);not null"`
	TotalWithVAT     decimal.Decimal   `gorm:"column:total_with_vat;type:numeric(10,2);not null"`
	ShippingFee      decimal.Decimal   `gorm:"column:shipping_fee;type:numeric(10,2);not null"`
	PlatformFee      decimal.Decimal   `gorm:"column:platform_fee;type:numeric(10,2);not null"`
	PackingFee       decimal.Decimal   `gorm:"column:packing_fee;type:numeric(10,2);not null"`
	CouponCode       *string           `gorm:"column:coupon_code"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem captures a cart line at checkout time.
type OrderItem struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID           uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	ProductName         string          `gorm:"column:product_name;not null"`
	VariantName         string          `gorm:"column:variant_name;not null"`
	Quantity            int             `gorm:"column:quantity;not null"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	LinePrice           decimal.Decimal `gorm:"column:line_price;type:numeric(10,2);not null"`
	DiscountedLinePrice decimal.Decimal `gorm:"column:discounted_line_price;type:numeric(10,2);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
