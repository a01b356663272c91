package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/api/responses"
	"github.com/crumbworks/bakery-backend/api/validators"
	"github.com/crumbworks/bakery-backend/internal/address"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/google/uuid"
)

type createAddressRequest struct {
	Line1     string  `json:"line1" validate:"required,max=255"`
	Line2     *string `json:"line2" validate:"omitempty,max=255"`
	City      string  `json:"city" validate:"required,max=100"`
	State     string  `json:"state" validate:"required,max=100"`
	ZipCode   string  `json:"zip_code" validate:"required,postal_code"`
	IsPrimary bool    `json:"is_primary"`
}

type addressResponse struct {
	ID        uuid.UUID `json:"id"`
	Line1     string    `json:"line1"`
	Line2     *string   `json:"line2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

func toAddressResponse(a models.Address) addressResponse {
	return addressResponse{
		ID:        a.ID,
		Line1:     a.Line1,
		Line2:     a.Line2,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		IsPrimary: a.IsPrimary,
		CreatedAt: a.CreatedAt,
	}
}

func AddressList(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("address service"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]addressResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, toAddressResponse(row))
		}
		responses.WriteSuccess(w, out)
	}
}

func AddressCreate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("address service"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createAddressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), userID, address.CreateInput{
			Line1:     strings.TrimSpace(body.Line1),
			Line2:     body.Line2,
			City:      strings.TrimSpace(body.City),
			State:     strings.TrimSpace(body.State),
			ZipCode:   strings.TrimSpace(body.ZipCode),
			IsPrimary: body.IsPrimary,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toAddressResponse(*created))
	}
}

// AddressSetPrimary makes the address the one checkout ships to by default.
func AddressSetPrimary(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("address service"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.SetPrimary(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAddressResponse(*updated))
	}
}

// StateList returns the shipping states a free-shipping coupon can target.
func StateList(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("address service"))
			return
		}
		states, err := svc.States(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, states)
	}
}
