package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/crumbworks/bakery-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const msgProductNotFound = "Product not found."

type catalogRepository interface {
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	ListVariants(ctx context.Context, activeOnly bool, search string, params pagination.Params) ([]models.ProductVariant, int64, error)
	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	SaveVariant(ctx context.Context, variant *models.ProductVariant) error
	SaveInventory(ctx context.Context, inv *models.Inventory) error
	ListSaleCandidates(ctx context.Context) ([]models.Inventory, error)
	SetSaleActive(ctx context.Context, inventoryID uuid.UUID, active bool) error
}

// Service exposes catalog management and the sale window refresh.
type Service interface {
	CreateVariant(ctx context.Context, input VariantInput) (*VariantDTO, error)
	UpdateVariant(ctx context.Context, id uuid.UUID, input VariantInput) (*VariantDTO, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*VariantDTO, error)
	ListVariants(ctx context.Context, input ListVariantsInput) (*VariantList, error)
	RefreshSaleWindows(ctx context.Context, now time.Time) (int, error)
}

// VariantInput holds the validated payload to create or replace a variant.
type VariantInput struct {
	ProductName    string
	VariantName    string
	IsActive       bool
	SKU            string
	RegularPrice   decimal.Decimal
	SalePrice      decimal.Decimal
	SaleFrom       *time.Time
	SaleTo         *time.Time
	BulkPriceRules types.BulkPriceRules
}

// ListVariantsInput filters the catalog listing.
type ListVariantsInput struct {
	IncludeInactive bool
	Search          string
	Pagination      pagination.Params
}

type service struct {
	repo catalogRepository
	logg *logger.Logger
}

// NewService builds the catalog service.
func NewService(repo catalogRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) CreateVariant(ctx context.Context, input VariantInput) (*VariantDTO, error) {
	if err := validateVariantInput(input); err != nil {
		return nil, err
	}
	variant := &models.ProductVariant{
		ProductName: strings.TrimSpace(input.ProductName),
		VariantName: strings.TrimSpace(input.VariantName),
		IsActive:    input.IsActive,
		Inventory:   &models.Inventory{},
	}
	applyInventory(variant.Inventory, input)
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product variant")
	}
	dto := toVariantDTO(*variant)
	return &dto, nil
}

func (s *service) UpdateVariant(ctx context.Context, id uuid.UUID, input VariantInput) (*VariantDTO, error) {
	if err := validateVariantInput(input); err != nil {
		return nil, err
	}
	variant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	variant.ProductName = strings.TrimSpace(input.ProductName)
	variant.VariantName = strings.TrimSpace(input.VariantName)
	variant.IsActive = input.IsActive
	if err := s.repo.SaveVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product variant")
	}
	if variant.Inventory == nil {
		variant.Inventory = &models.Inventory{VariantID: variant.ID}
	}
	applyInventory(variant.Inventory, input)
	if err := s.repo.SaveInventory(ctx, variant.Inventory); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory")
	}
	dto := toVariantDTO(*variant)
	return &dto, nil
}

func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*VariantDTO, error) {
	variant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toVariantDTO(*variant)
	return &dto, nil
}

func (s *service) ListVariants(ctx context.Context, input ListVariantsInput) (*VariantList, error) {
	rows, total, err := s.repo.ListVariants(ctx, !input.IncludeInactive, input.Search, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product variants")
	}
	items := make([]VariantDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toVariantDTO(row))
	}
	return &VariantList{Items: items, Meta: pagination.NewMeta(input.Pagination, total)}, nil
}

// RefreshSaleWindows recomputes sale_active for every inventory carrying sale dates and returns how many flipped.
func (s *service) RefreshSaleWindows(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.repo.ListSaleCandidates(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sale inventories")
	}
	changed := 0
	for i := range rows {
		if !rows[i].RefreshSaleActive(now) {
			continue
		}
		if err := s.repo.SetSaleActive(ctx, rows[i].ID, rows[i].SaleActive); err != nil {
			return changed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale flag")
		}
		changed++
	}
	if s.logg != nil && changed > 0 {
		s.logg.Info(s.logg.WithField(ctx, "changed", changed), "products.sale_windows_refreshed")
	}
	return changed, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.repo.FindVariant(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variant")
	}
	return variant, nil
}

func validateVariantInput(input VariantInput) error {
	switch {
	case strings.TrimSpace(input.ProductName) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	case strings.TrimSpace(input.SKU) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	case input.RegularPrice.IsNegative() || input.SalePrice.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "prices must be non-negative")
	case (input.SaleFrom == nil) != (input.SaleTo == nil):
		return pkgerrors.New(pkgerrors.CodeValidation, "sale dates must be provided together")
	case input.SaleFrom != nil && input.SaleTo.Before(*input.SaleFrom):
		return pkgerrors.New(pkgerrors.CodeValidation, "sale end date cannot be before sale start date")
	}
	for _, tier := range input.BulkPriceRules {
		if tier.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "bulk prices must be non-negative")
		}
	}
	return nil
}

func applyInventory(inv *models.Inventory, input VariantInput) {
	inv.SKU = strings.TrimSpace(input.SKU)
	inv.RegularPrice = input.RegularPrice
	inv.SalePrice = input.SalePrice
	inv.SaleFrom = input.SaleFrom
	inv.SaleTo = input.SaleTo
	inv.BulkPriceRules = input.BulkPriceRules
}
