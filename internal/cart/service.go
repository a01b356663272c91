package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crumbworks/bakery-backend/internal/discount"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgProductNotFound     = "Product not found."
	msgCartItemNotFound    = "Cart item not found."
	msgQuantityTooLow      = "Quantity must be at least 1."
	fmtQuantityCap         = "You can only order a maximum of %d items per product."
	msgDeliveryUnavailable = "Delivery is not available for this zip code."
	msgOrderNotFound       = "Order not found."
	msgOwnerRequired       = "A user or cart session is required."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type variantLoader interface {
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type zipLookup interface {
	ZipCode(ctx context.Context, zip string) (*models.ZipCodeConfig, error)
}

type orderItemsLoader interface {
	ItemsForUser(ctx context.Context, userID, orderID uuid.UUID) ([]models.OrderItem, error)
}

// Owner identifies a cart by its authenticated user or its anonymous session.
type Owner struct {
	UserID    *uuid.UUID
	SessionID string
}

func (o Owner) valid() bool {
	return o.UserID != nil || strings.TrimSpace(o.SessionID) != ""
}

// Service exposes cart operations.
type Service interface {
	Get(ctx context.Context, owner Owner) (*CartView, error)
	AddItem(ctx context.Context, owner Owner, variantID uuid.UUID, quantity int) (*CartView, error)
	SetItemQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, owner Owner) (*CartView, error)
	Summary(ctx context.Context, owner Owner, deliveryZip string) (*CartView, error)
	Merge(ctx context.Context, sessionID string, userID uuid.UUID) error
	Reorder(ctx context.Context, userID, orderID uuid.UUID) (*CartView, error)
}

// Deps groups the collaborators of the cart service.
type Deps struct {
	Tx          txRunner
	Repo        CartRepository
	Pricer      *Pricer
	Variants    variantLoader
	Zips        zipLookup
	Orders      orderItemsLoader
	Sessions    *Sessions
	MaxQuantity int
	Logger      *logger.Logger
}

type service struct {
	tx       txRunner
	repo     CartRepository
	pricer   *Pricer
	variants variantLoader
	zips     zipLookup
	orders   orderItemsLoader
	sessions *Sessions
	maxQty   int
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if deps.Variants == nil {
		return nil, fmt.Errorf("variant loader required")
	}
	if deps.Zips == nil {
		return nil, fmt.Errorf("zip lookup required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if deps.MaxQuantity <= 0 {
		deps.MaxQuantity = 10
	}
	return &service{
		tx:       deps.Tx,
		repo:     deps.Repo,
		pricer:   deps.Pricer,
		variants: deps.Variants,
		zips:     deps.Zips,
		orders:   deps.Orders,
		sessions: deps.Sessions,
		maxQty:   deps.MaxQuantity,
		logg:     deps.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, owner Owner) (*CartView, error) {
	var view *CartView
	err := s.mutate(ctx, owner, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		priced, err := s.pricer.Price(ctx, cart)
		if err != nil {
			return err
		}
		view = NewView(priced)
		return nil
	}, false)
	return view, err
}

func (s *service) AddItem(ctx context.Context, owner Owner, variantID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgQuantityTooLow)
	}
	if err := s.ensureVariant(ctx, variantID); err != nil {
		return nil, err
	}
	return s.mutateAndView(ctx, owner, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		return s.addQuantity(ctx, repo, cart.ID, variantID, quantity)
	})
}

func (s *service) SetItemQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity > s.maxQty {
		return nil, s.capError()
	}
	return s.mutateAndView(ctx, owner, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgCartItemNotFound)
		}
		if err != nil {
			return err
		}
		if quantity <= 0 {
			return repo.DeleteItem(ctx, item.ID)
		}
		return repo.UpdateItemQuantity(ctx, item.ID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartView, error) {
	return s.mutateAndView(ctx, owner, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgCartItemNotFound)
		}
		if err != nil {
			return err
		}
		return repo.DeleteItem(ctx, item.ID)
	})
}

func (s *service) Clear(ctx context.Context, owner Owner) (*CartView, error) {
	return s.mutateAndView(ctx, owner, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		if err := repo.ClearItems(ctx, cart.ID); err != nil {
			return err
		}
		return repo.SetAppliedCoupon(ctx, cart.ID, nil)
	})
}

// Summary recomputes shipping from the delivery zip, when given, and persists the VAT figures.
func (s *service) Summary(ctx context.Context, owner Owner, deliveryZip string) (*CartView, error) {
	var zip *models.ZipCodeConfig
	if z := strings.TrimSpace(deliveryZip); z != "" {
		found, err := s.zips.ZipCode(ctx, z)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, msgDeliveryUnavailable)
			}
			return nil, err
		}
		if found.DeliveryAvailability != enums.DeliveryAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgDeliveryUnavailable)
		}
		zip = found
	}

	return s.mutateAndView(ctx, owner, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		if zip == nil {
			return nil
		}
		total := discountlessTotal(cart)
		cost := zip.DeliveryCost
		if total.GreaterThanOrEqual(zip.MinOrderAmount) {
			cost = decimal.Zero
		}
		return repo.SetShippingCost(ctx, cart.ID, cost)
	})
}

// Merge folds the session cart into the user's cart and deletes the session cart.
func (s *service) Merge(ctx context.Context, sessionID string, userID uuid.UUID) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	merged := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		source, err := repo.FindBySession(ctx, sessionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := s.userCart(ctx, repo, userID)
		if err != nil {
			return err
		}

		for _, item := range source.Items {
			existing, err := repo.FindItemByVariant(ctx, target.ID, item.VariantID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := repo.MoveItem(ctx, item.ID, target.ID); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+item.Quantity); err != nil {
					return err
				}
			}
			merged++
		}
		if err := repo.Delete(ctx, source.ID); err != nil {
			return err
		}
		return s.persistTotals(ctx, repo, target.ID)
	})
	if err != nil {
		return wrap(err, "merge cart")
	}
	if s.sessions != nil {
		if err := s.sessions.Forget(ctx, sessionID); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.session_forget_failed")
		}
	}
	if s.logg != nil && merged > 0 {
		logCtx := s.logg.WithUserID(ctx, userID.String())
		s.logg.Info(s.logg.WithField(logCtx, "items", merged), "cart.merged")
	}
	return nil
}

// Reorder adds the items of an earlier order to the user's cart.
func (s *service) Reorder(ctx context.Context, userID, orderID uuid.UUID) (*CartView, error) {
	items, err := s.orders.ItemsForUser(ctx, userID, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(items) == 0) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	for _, item := range items {
		if err := s.ensureVariant(ctx, item.VariantID); err != nil {
			return nil, err
		}
	}
	return s.mutateAndView(ctx, Owner{UserID: &userID}, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		for _, item := range items {
			if err := s.addQuantity(ctx, repo, cart.ID, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) mutateAndView(ctx context.Context, owner Owner, fn func(ctx context.Context, repo CartRepository, cart *models.Cart) error) (*CartView, error) {
	var view *CartView
	err := s.mutate(ctx, owner, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		if err := fn(ctx, repo, cart); err != nil {
			return err
		}
		priced, err := s.reprice(ctx, repo, cart.ID)
		if err != nil {
			return err
		}
		view = NewView(priced)
		return nil
	}, true)
	return view, err
}

// mutate resolves the owner's cart inside a transaction, creating it when missing.
func (s *service) mutate(ctx context.Context, owner Owner, fn func(ctx context.Context, repo CartRepository, cart *models.Cart) error, lock bool) error {
	if !owner.valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, msgOwnerRequired)
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var (
			cart *models.Cart
			err  error
		)
		if owner.UserID != nil {
			cart, err = s.userCart(ctx, repo, *owner.UserID)
		} else {
			cart, err = s.sessionCart(ctx, repo, owner.SessionID)
		}
		if err != nil {
			return err
		}
		if lock {
			if cart, err = repo.Lock(ctx, cart.ID); err != nil {
				return err
			}
		}
		return fn(ctx, repo, cart)
	})
	return wrap(err, "cart operation")
}

func (s *service) userCart(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.createCart(ctx, repo, &models.Cart{UserID: &userID})
}

func (s *service) sessionCart(ctx context.Context, repo CartRepository, sessionID string) (*models.Cart, error) {
	cart, err := repo.FindBySession(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	id := sessionID
	return s.createCart(ctx, repo, &models.Cart{SessionID: &id})
}

func (s *service) createCart(ctx context.Context, repo CartRepository, cart *models.Cart) (*models.Cart, error) {
	cfg, err := s.pricer.Config(ctx)
	if err != nil {
		return nil, err
	}
	cart.ShippingCost = cfg.ShippingCharges
	cart.PlatformFee = cfg.PlatformFee
	cart.PackingFee = cfg.PackingFee
	if err := repo.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) addQuantity(ctx context.Context, repo CartRepository, cartID, variantID uuid.UUID, quantity int) error {
	existing, err := repo.FindItemByVariant(ctx, cartID, variantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if quantity > s.maxQty {
			return s.capError()
		}
		return repo.CreateItem(ctx, &models.CartItem{CartID: cartID, VariantID: variantID, Quantity: quantity})
	}
	if err != nil {
		return err
	}
	if existing.Quantity+quantity > s.maxQty {
		return s.capError()
	}
	return repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity)
}

func (s *service) reprice(ctx context.Context, repo CartRepository, cartID uuid.UUID) (*Priced, error) {
	return s.pricer.Reprice(ctx, repo, cartID)
}

func (s *service) persistTotals(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	_, err := s.reprice(ctx, repo, cartID)
	return err
}

func (s *service) ensureVariant(ctx context.Context, variantID uuid.UUID) error {
	variant, err := s.variants.FindVariant(ctx, variantID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !variant.IsActive) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return nil
}

func (s *service) capError() error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, fmtQuantityCap, s.maxQty)
}

func discountlessTotal(cart *models.Cart) decimal.Decimal {
	return discount.NewSnapshot(cart, "", nil).TotalPrice()
}

// wrap keeps typed errors and classifies the rest as dependency failures.
func wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
