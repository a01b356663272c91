package payloads

import (
	"time"

	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted in the checkout transaction.
type OrderCreatedEvent struct {
	OrderID          uuid.UUID         `json:"order_id"`
	OrderNumber      string            `json:"order_number"`
	UserID           uuid.UUID         `json:"user_id"`
	Status           enums.OrderStatus `json:"status"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	DiscountedAmount decimal.Decimal   `json:"discounted_amount"`
	FinalAmount      decimal.Decimal   `json:"final_amount"`
	CouponCode       *string           `json:"coupon_code,omitempty"`
	ItemCount        int               `json:"item_count"`
	AcceptWindow     bool              `json:"within_accept_window"`
}

// OrderStatusChangedEvent is emitted on admin status transitions.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     uuid.UUID         `json:"user_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}

// CouponAppliedEvent records a successful coupon application on a cart.
type CouponAppliedEvent struct {
	CartID     uuid.UUID        `json:"cart_id"`
	CouponID   uuid.UUID        `json:"coupon_id"`
	Code       string           `json:"code"`
	CouponType enums.CouponType `json:"coupon_type"`
	UserID     *uuid.UUID       `json:"user_id,omitempty"`
}

// CouponRevertedEvent records the removal of a coupon from a cart.
type CouponRevertedEvent struct {
	CartID     uuid.UUID        `json:"cart_id"`
	CouponID   uuid.UUID        `json:"coupon_id"`
	Code       string           `json:"code"`
	CouponType enums.CouponType `json:"coupon_type"`
}

// CouponRedeemedEvent records a per-user redemption.
type CouponRedeemedEvent struct {
	CouponID   uuid.UUID `json:"coupon_id"`
	UserID     uuid.UUID `json:"user_id"`
	Code       string    `json:"code"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// UserRegisteredEvent announces a new bakery account.
type UserRegisteredEvent struct {
	UserID    uuid.UUID      `json:"user_id"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	BakeryID  uuid.UUID      `json:"bakery_id"`
	CreatedAt time.Time      `json:"created_at"`
}
