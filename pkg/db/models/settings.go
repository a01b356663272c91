package models

import (
	"time"

	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AdminConfiguration rows are append-only; the latest row wins.
type AdminConfiguration struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	VATPercentage     decimal.Decimal `gorm:"column:vat_percentage;type:numeric(5,2);not null"`
	ShippingCharges   decimal.Decimal `gorm:"column:shipping_charges;type:numeric(10,2);not null"`
	PlatformFee       decimal.Decimal `gorm:"column:platform_fee;type:numeric(10,2);not null"`
	PackingFee        decimal.Decimal `gorm:"column:packing_fee;type:numeric(10,2);not null"`
	OrderAcceptTime   string          `gorm:"column:order_accept_time;not null"`
	OrderRestrictTime string          `gorm:"column:order_restrict_time;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (c *AdminConfiguration) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ZipCodeConfig drives delivery availability and cost per zip code.
type ZipCodeConfig struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	ZipCode              string                     `gorm:"column:zip_code;not null;uniqueIndex"`
	City                 string                     `gorm:"column:city;not null"`
	State                string                     `gorm:"column:state;not null"`
	DeliveryAvailability enums.DeliveryAvailability `gorm:"column:delivery_availability;type:text;not null"`
	DeliveryThreshold    decimal.Decimal            `gorm:"column:delivery_threshold;type:numeric(10,2);not null;default:0"`
	DeliveryCost         decimal.Decimal            `gorm:"column:delivery_cost;type:numeric(10,2);not null;default:0"`
	MinOrderAmount       decimal.Decimal            `gorm:"column:min_order_amount;type:numeric(10,2);not null;default:0"`
	IsDeleted            bool                       `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt            time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (z *ZipCodeConfig) BeforeCreate(*gorm.DB) error {
	ensureID(&z.ID)
	return nil
}
