package models

import (
	"time"

	"github.com/crumbworks/bakery-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductVariant is the purchasable unit referenced by cart and order lines.
type ProductVariant struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductName string     `gorm:"column:product_name;not null"`
	VariantName string     `gorm:"column:variant_name;not null"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	Inventory   *Inventory `gorm:"foreignKey:VariantID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// Inventory carries the pricing inputs of a variant.
type Inventory struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	VariantID      uuid.UUID            `gorm:"column:variant_id;type:uuid;not null;uniqueIndex"`
	SKU            string               `gorm:"column:sku;not null"`
	RegularPrice   decimal.Decimal      `gorm:"column:regular_price;type:numeric(10,2);not null"`
	SalePrice      decimal.Decimal      `gorm:"column:sale_price;type:numeric(10,2);not null;default:0"`
	SaleFrom       *time.Time           `gorm:"column:sale_price_dates_from"`
	SaleTo         *time.Time           `gorm:"column:sale_price_dates_to"`
	SaleActive     bool                 `gorm:"column:sale_active;not null;default:false"`
	BulkPriceRules types.BulkPriceRules `gorm:"column:bulk_price_rules;type:jsonb;serializer:json"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Inventory) TableName() string {
	return "inventories"
}

func (i *Inventory) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	if i.BulkPriceRules == nil {
		i.BulkPriceRules = types.DefaultBulkPriceRules()
	}
	return nil
}

func (i *Inventory) BeforeSave(*gorm.DB) error {
	i.RefreshSaleActive(time.Now())
	return nil
}

// RefreshSaleActive sets SaleActive when today falls inside the sale dates, inclusive.
func (i *Inventory) RefreshSaleActive(now time.Time) bool {
	active := false
	if i.SaleFrom != nil && i.SaleTo != nil {
		today := truncateDay(now)
		from := truncateDay(i.SaleFrom.In(now.Location()))
		to := truncateDay(i.SaleTo.In(now.Location()))
		active = !today.Before(from) && !today.After(to)
	}
	changed := active != i.SaleActive
	i.SaleActive = active
	return changed
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
