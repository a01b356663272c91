package orders

import (
	"time"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListFilters describe the inputs supported by the order lists.
type ListFilters struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
	Search string
}

// ItemDTO is an order line frozen at checkout.
type ItemDTO struct {
	ID                  uuid.UUID       `json:"id"`
	VariantID           uuid.UUID       `json:"variant_id"`
	ProductName         string          `json:"product_name"`
	VariantName         string          `json:"variant_name"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	LinePrice           decimal.Decimal `json:"line_price"`
	DiscountedLinePrice decimal.Decimal `json:"discounted_line_price"`
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	OrderNumber      string            `json:"order_id"`
	UserID           uuid.UUID         `json:"user_id"`
	Email            string            `json:"email"`
	ContactNumber    *string           `json:"contact_number,omitempty"`
	Address          string            `json:"address"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	DiscountAmount   decimal.Decimal   `json:"discount_amount"`
	DiscountedAmount decimal.Decimal   `json:"discounted_amount"`
	FinalAmount      decimal.Decimal   `json:"final_amount"`
	VATAmount        decimal.Decimal   `json:"vat_amount"`
	TotalWithVAT     decimal.Decimal   `json:"total_with_vat"`
	ShippingFee      decimal.Decimal   `json:"shipping_fee"`
	PlatformFee      decimal.Decimal   `json:"platform_fee"`
	PackingFee       decimal.Decimal   `json:"packing_fee"`
	CouponCode       *string           `json:"coupon_code,omitempty"`
	Status           enums.OrderStatus `json:"status"`
	Items            []ItemDTO         `json:"items,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// OrderList wraps a page of orders.
type OrderList struct {
	Orders     []OrderDTO      `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}

// FromModel maps an order row, including any loaded items.
func FromModel(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		UserID:           order.UserID,
		Email:            order.Email,
		ContactNumber:    order.ContactNumber,
		Address:          order.Address,
		TotalAmount:      order.TotalAmount,
		DiscountAmount:   order.DiscountAmount,
		DiscountedAmount: order.DiscountedAmount,
		FinalAmount:      order.FinalAmount,
		VATAmount:        order.VATAmount,
		TotalWithVAT:     order.TotalWithVAT,
		ShippingFee:      order.ShippingFee,
		PlatformFee:      order.PlatformFee,
		PackingFee:       order.PackingFee,
		CouponCode:       order.CouponCode,
		Status:           order.Status,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:                  item.ID,
			VariantID:           item.VariantID,
			ProductName:         item.ProductName,
			VariantName:         item.VariantName,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			LinePrice:           item.LinePrice,
			DiscountedLinePrice: item.DiscountedLinePrice,
		})
	}
	return dto
}
