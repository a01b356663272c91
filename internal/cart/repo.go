package cart

import (
	"context"
	"errors"
	"time"

	"github.com/crumbworks/bakery-backend/internal/discount"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) loaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Variant.Inventory").
		Preload("AppliedCoupon")
}

// FindByUser loads the newest cart owned by the user.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.loaded(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) FindBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.loaded(ctx).Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.loaded(ctx).Where("id = ?", id).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Lock reloads the cart under SELECT ... FOR UPDATE on Postgres.
func (r *Repository) Lock(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	q := r.loaded(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var cart models.Cart
	if err := q.Where("id = ?", id).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Omit("Items", "AppliedCoupon").Create(cart).Error
}

// Delete removes the cart and its items.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Cart{}).Error
}

func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Where("cart_id = ? AND variant_id = ?", cartID, variantID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Variant").Create(item).Error
}

func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *Repository) MoveItem(ctx context.Context, itemID, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("cart_id", cartID).Error
}

func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// ApplyMutation persists a coupon mutation. Lines whose quantity reaches zero are deleted.
func (r *Repository) ApplyMutation(ctx context.Context, cartID uuid.UUID, mutation discount.Mutation) error {
	for _, change := range mutation.Lines {
		item, err := r.FindItemByVariant(ctx, cartID, change.VariantID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if item == nil {
			if change.QuantityDelta <= 0 {
				continue
			}
			created := &models.CartItem{CartID: cartID, VariantID: change.VariantID, Quantity: change.QuantityDelta}
			if change.SetDiscount {
				created.DiscountedPrice = change.DiscountedPrice
			}
			if err := r.CreateItem(ctx, created); err != nil {
				return err
			}
			continue
		}

		quantity := item.Quantity + change.QuantityDelta
		if quantity <= 0 {
			if err := r.DeleteItem(ctx, item.ID); err != nil {
				return err
			}
			continue
		}
		updates := map[string]any{"quantity": quantity}
		if change.SetDiscount {
			updates["discounted_price"] = change.DiscountedPrice
		}
		if err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
			return err
		}
	}
	if mutation.ShippingCost != nil {
		return r.SetShippingCost(ctx, cartID, *mutation.ShippingCost)
	}
	return nil
}

func (r *Repository) SetAppliedCoupon(ctx context.Context, cartID uuid.UUID, couponID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("applied_coupon_id", couponID).Error
}

func (r *Repository) SetShippingCost(ctx context.Context, cartID uuid.UUID, cost decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("shipping_cost", cost).Error
}

// SaveTotals persists the shipping, fee and VAT figures of a cart in one statement.
func (r *Repository) SaveTotals(ctx context.Context, cartID uuid.UUID, totals discount.Totals) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"shipping_cost":  totals.ShippingCost,
			"platform_fee":   totals.PlatformFee,
			"packing_fee":    totals.PackingFee,
			"vat_amount":     totals.VATAmount,
			"total_with_vat": totals.TotalWithVAT,
		}).Error
}

// DeleteIdleSessionCarts removes anonymous carts not updated since idleSince.
func (r *Repository) DeleteIdleSessionCarts(ctx context.Context, idleSince time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	idle := db.Model(&models.Cart{}).
		Select("id").
		Where("session_id IS NOT NULL AND user_id IS NULL AND updated_at < ?", idleSince)
	if err := db.Where("cart_id IN (?)", idle).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("session_id IS NOT NULL AND user_id IS NULL AND updated_at < ?", idleSince).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}
