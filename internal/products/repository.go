package product

import (
	"context"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes catalog persistence for variants and their inventory.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindVariant loads a variant with its inventory.
func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Preload("Inventory").First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindVariants loads the variants in ids with their inventory; missing ids are skipped.
func (r *Repository) FindVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Where("id IN ?", ids).
		Find(&variants).Error
	return variants, err
}

// PricingFor resolves pricing inputs keyed by variant id.
func (r *Repository) PricingFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]pricing.VariantPricing, error) {
	variants, err := r.FindVariants(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]pricing.VariantPricing, len(variants))
	for _, v := range variants {
		out[v.ID] = pricing.FromInventory(v.Inventory)
	}
	return out, nil
}

// ListVariants pages through variants ordered by product then variant name.
func (r *Repository) ListVariants(ctx context.Context, activeOnly bool, search string, params pagination.Params) ([]models.ProductVariant, int64, error) {
	params = params.Normalize()
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.ProductVariant{})
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		if term := strings.TrimSpace(search); term != "" {
			like := "%" + strings.ToLower(term) + "%"
			q = q.Where("LOWER(product_name) LIKE ? OR LOWER(variant_name) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var variants []models.ProductVariant
	err := scoped().
		Preload("Inventory").
		Order("product_name ASC").
		Order("variant_name ASC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&variants).Error
	return variants, total, err
}

// CreateVariant inserts a variant and its inventory row.
func (r *Repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *Repository) SaveVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Omit("Inventory").Save(variant).Error
}

func (r *Repository) SaveInventory(ctx context.Context, inv *models.Inventory) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

// ListSaleCandidates returns inventories that carry sale dates or are flagged active.
func (r *Repository) ListSaleCandidates(ctx context.Context) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := r.db.WithContext(ctx).
		Where("(sale_price_dates_from IS NOT NULL AND sale_price_dates_to IS NOT NULL) OR sale_active = ?", true).
		Find(&rows).Error
	return rows, err
}

// SetSaleActive writes sale_active without running save hooks.
func (r *Repository) SetSaleActive(ctx context.Context, inventoryID uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("id = ?", inventoryID).
		UpdateColumns(map[string]any{"sale_active": active, "updated_at": time.Now().UTC()}).Error
}
