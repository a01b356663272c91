package controllers

import (
	"net/http"

	"github.com/crumbworks/bakery-backend/api/responses"
	"github.com/crumbworks/bakery-backend/api/validators"
	"github.com/crumbworks/bakery-backend/internal/checkout"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/google/uuid"
)

type checkoutRequest struct {
	ShippingAddressID *uuid.UUID `json:"shipping_address_id"`
}

// Checkout places an order from the caller's cart. Orders outside the accept
// window are still created, pending payment, with an explanatory message.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout service"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Execute(r.Context(), userID, checkout.Input{ShippingAddressID: body.ShippingAddressID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
