package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/internal/orders"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/outbox"
	"github.com/crumbworks/bakery-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgEmailNotVerified   = "Please verify your email before placing an order."
	msgInvalidAddress     = "Invalid shipping address"
	msgNoPrimaryAddress   = "Primary address for the bakery not found"
	msgEmptyCart          = "Your cart is empty"
	msgNotAcceptingOrders = "Currently We are not accepting orders. Please contact support for more information"
	msgOrderPlaced        = "Order placed successfully."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type addressLoader interface {
	FindOwned(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	FindPrimary(ctx context.Context, userID uuid.UUID) (*models.Address, error)
}

// Service turns a bakery user's cart into an order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

// Input captures optional data used during checkout.
type Input struct {
	ShippingAddressID *uuid.UUID
}

// Result is the created order and the message shown to the customer.
type Result struct {
	Order    *orders.OrderDTO `json:"order"`
	Message  string           `json:"message"`
	Accepted bool             `json:"accepted"`
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Tx        txRunner
	Carts     cart.CartRepository
	Pricer    *cart.Pricer
	Orders    orders.Repository
	Users     userLoader
	Addresses addressLoader
	Outbox    outbox.Emitter
	Location  *time.Location
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	tx        txRunner
	carts     cart.CartRepository
	pricer    *cart.Pricer
	orders    orders.Repository
	users     userLoader
	addresses addressLoader
	outbox    outbox.Emitter
	loc       *time.Location
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address loader required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		tx:        deps.Tx,
		carts:     deps.Carts,
		pricer:    deps.Pricer,
		orders:    deps.Orders,
		users:     deps.Users,
		addresses: deps.Addresses,
		outbox:    deps.Outbox,
		loc:       deps.Location,
		logg:      deps.Logger,
		now:       deps.Now,
	}, nil
}

// Execute snapshots the priced cart into an order, empties the cart and drops
// its coupon. Outside the accept window the order is kept as payment_pending.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgEmailNotVerified)
	}
	addr, err := s.shippingAddress(ctx, userID, input.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	var (
		order    *models.Order
		accepted bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		record, err := cartRepo.FindByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart)
		}
		if err != nil {
			return err
		}
		if record, err = cartRepo.Lock(ctx, record.ID); err != nil {
			return err
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart)
		}

		priced, err := s.pricer.Price(ctx, record)
		if err != nil {
			return err
		}
		accepted = priced.Config.AcceptsOrdersAt(now)

		number, err := orders.NextOrderNumber(ctx, orderRepo, now)
		if err != nil {
			return err
		}
		order = buildOrder(number, user, addr, priced, accepted)
		if err := orderRepo.Create(ctx, order); err != nil {
			return err
		}

		if err := cartRepo.ClearItems(ctx, record.ID); err != nil {
			return err
		}
		if err := cartRepo.SetAppliedCoupon(ctx, record.ID, nil); err != nil {
			return err
		}
		if err := cartRepo.SetShippingCost(ctx, record.ID, priced.Config.ShippingCharges); err != nil {
			return err
		}
		if _, err := s.pricer.Reprice(ctx, cartRepo, record.ID); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: user.Role.String()},
			Data: payloads.OrderCreatedEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				UserID:           userID,
				Status:           order.Status,
				TotalAmount:      order.TotalAmount,
				DiscountedAmount: order.DiscountedAmount,
				FinalAmount:      order.FinalAmount,
				CouponCode:       order.CouponCode,
				ItemCount:        len(order.Items),
				AcceptWindow:     accepted,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithUserID(ctx, userID.String()), map[string]any{
			"order_id": order.OrderNumber,
			"status":   order.Status,
			"accepted": accepted,
		})
		s.logg.Info(logCtx, "checkout.completed")
	}

	result := &Result{Order: orders.FromModel(order), Message: msgOrderPlaced, Accepted: accepted}
	if !accepted {
		result.Message = msgNotAcceptingOrders
	}
	return result, nil
}

func (s *service) shippingAddress(ctx context.Context, userID uuid.UUID, id *uuid.UUID) (*models.Address, error) {
	if id != nil {
		addr, err := s.addresses.FindOwned(ctx, userID, *id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidAddress)
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping address")
		}
		return addr, nil
	}
	addr, err := s.addresses.FindPrimary(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load primary address")
	}
	if addr == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNoPrimaryAddress)
	}
	return addr, nil
}

func buildOrder(number string, user *models.User, addr *models.Address, priced *cart.Priced, accepted bool) *models.Order {
	totals := priced.Totals
	status := enums.OrderStatusInTransit
	if !accepted {
		status = enums.OrderStatusPaymentPending
	}
	order := &models.Order{
		OrderNumber:      number,
		UserID:           user.ID,
		Email:            user.Email,
		ContactNumber:    user.ContactNumber,
		Address:          addr.Formatted(),
		TotalAmount:      totals.TotalPrice,
		DiscountAmount:   totals.DiscountAmount,
		DiscountedAmount: totals.DiscountedPrice,
		FinalAmount:      totals.TotalWithVAT,
		VATAmount:        totals.VATAmount,
		TotalWithVAT:     totals.TotalWithVAT,
		ShippingFee:      totals.ShippingCost,
		PlatformFee:      totals.PlatformFee,
		PackingFee:       totals.PackingFee,
		Status:           status,
		Items:            make([]models.OrderItem, 0, len(priced.Cart.Items)),
	}
	if priced.Cart.AppliedCoupon != nil && priced.Cart.AppliedCouponID != nil {
		code := priced.Cart.AppliedCoupon.Code
		order.CouponCode = &code
	}

	couponApplied := priced.Snapshot.CouponApplied
	for _, item := range priced.Cart.Items {
		line, _ := priced.Snapshot.Line(item.VariantID)
		oi := models.OrderItem{
			VariantID:           item.VariantID,
			Quantity:            item.Quantity,
			UnitPrice:           line.Pricing.UnitPrice(),
			LinePrice:           line.Price(couponApplied),
			DiscountedLinePrice: totals.LinePrice(line, couponApplied),
		}
		if item.Variant != nil {
			oi.ProductName = item.Variant.ProductName
			oi.VariantName = item.Variant.VariantName
		}
		order.Items = append(order.Items, oi)
	}
	return order
}
