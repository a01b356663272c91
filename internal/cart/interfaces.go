package cart

import (
	"context"
	"time"

	"github.com/crumbworks/bakery-backend/internal/discount"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface shared by the cart, coupon and checkout services.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindBySession(ctx context.Context, sessionID string) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	// Lock reloads the cart and, on Postgres, holds a row lock until the transaction ends.
	Lock(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	MoveItem(ctx context.Context, itemID, cartID uuid.UUID) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	ApplyMutation(ctx context.Context, cartID uuid.UUID, mutation discount.Mutation) error
	SetAppliedCoupon(ctx context.Context, cartID uuid.UUID, couponID *uuid.UUID) error
	SetShippingCost(ctx context.Context, cartID uuid.UUID, cost decimal.Decimal) error
	SaveTotals(ctx context.Context, cartID uuid.UUID, totals discount.Totals) error
	DeleteIdleSessionCarts(ctx context.Context, idleSince time.Time) (int64, error)
}
