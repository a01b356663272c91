package controllers

import (
	"net/http"

	"github.com/crumbworks/bakery-backend/api/responses"
	"github.com/crumbworks/bakery-backend/api/validators"
	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/google/uuid"
)

type addItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type summaryRequest struct {
	DeliveryZip string `json:"delivery_zip" validate:"omitempty,postal_code"`
}

// cartAction runs one cart operation for the resolved owner and writes the view.
func cartAction(svc cart.Service, logg *logger.Logger, fn func(r *http.Request, owner cart.Owner) (*cart.CartView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cart service"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := fn(r, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request, owner cart.Owner) (*cart.CartView, error) {
		return svc.Get(r.Context(), owner)
	})
}

// CartSummary reprices the cart, optionally quoting shipping for delivery_zip.
func CartSummary(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request, owner cart.Owner) (*cart.CartView, error) {
		var body summaryRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				return nil, err
			}
		}
		return svc.Summary(r.Context(), owner, body.DeliveryZip)
	})
}

func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request, owner cart.Owner) (*cart.CartView, error) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), owner, body.VariantID, body.Quantity)
	})
}

// CartSetItemQuantity replaces a line quantity; zero or less drops the line.
func CartSetItemQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request, owner cart.Owner) (*cart.CartView, error) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		var body setQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SetItemQuantity(r.Context(), owner, itemID, *body.Quantity)
	})
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request, owner cart.Owner) (*cart.CartView, error) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), owner, itemID)
	})
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(r *http.Request, owner cart.Owner) (*cart.CartView, error) {
		return svc.Clear(r.Context(), owner)
	})
}

// CartReorder copies a past order's lines into the signed-in user's cart.
func CartReorder(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cart service"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Reorder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
