package product

import (
	"time"

	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/crumbworks/bakery-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariantDTO is the catalog payload returned to clients.
type VariantDTO struct {
	ID          uuid.UUID     `json:"id"`
	ProductName string        `json:"product_name"`
	VariantName string        `json:"variant_name"`
	IsActive    bool          `json:"is_active"`
	Inventory   *InventoryDTO `json:"inventory,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// InventoryDTO exposes the pricing inputs of a variant.
type InventoryDTO struct {
	SKU            string               `json:"sku"`
	RegularPrice   decimal.Decimal      `json:"regular_price"`
	SalePrice      decimal.Decimal      `json:"sale_price"`
	SaleFrom       *time.Time           `json:"sale_price_dates_from,omitempty"`
	SaleTo         *time.Time           `json:"sale_price_dates_to,omitempty"`
	SaleActive     bool                 `json:"sale_active"`
	UnitPrice      decimal.Decimal      `json:"unit_price"`
	BulkPriceRules types.BulkPriceRules `json:"bulk_price_rules"`
}

// VariantList is a page of variants.
type VariantList struct {
	Items []VariantDTO    `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

func toVariantDTO(v models.ProductVariant) VariantDTO {
	dto := VariantDTO{
		ID:          v.ID,
		ProductName: v.ProductName,
		VariantName: v.VariantName,
		IsActive:    v.IsActive,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
	if inv := v.Inventory; inv != nil {
		dto.Inventory = &InventoryDTO{
			SKU:            inv.SKU,
			RegularPrice:   inv.RegularPrice,
			SalePrice:      inv.SalePrice,
			SaleFrom:       inv.SaleFrom,
			SaleTo:         inv.SaleTo,
			SaleActive:     inv.SaleActive,
			UnitPrice:      pricing.FromInventory(inv).UnitPrice(),
			BulkPriceRules: inv.BulkPriceRules,
		}
	}
	return dto
}
