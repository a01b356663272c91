package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/api/responses"
	"github.com/crumbworks/bakery-backend/api/validators"
	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/internal/settings"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettingsService is the admin configuration surface.
type SettingsService interface {
	PricingConfig(ctx context.Context) (pricing.Config, error)
	UpdatePricingConfig(ctx context.Context, input settings.UpdatePricingInput) (pricing.Config, error)
	ListZipCodes(ctx context.Context) ([]models.ZipCodeConfig, error)
	SaveZipCode(ctx context.Context, id *uuid.UUID, input settings.ZipCodeInput) (*models.ZipCodeConfig, error)
	DeleteZipCode(ctx context.Context, id uuid.UUID) error
}

type pricingConfigRequest struct {
	VATPercentage   decimal.Decimal `json:"vat_percentage"`
	ShippingCharges decimal.Decimal `json:"shipping_charges"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	PackingFee      decimal.Decimal `json:"packing_fee"`
	AcceptFrom      string          `json:"order_accept_time" validate:"required,time_of_day"`
	AcceptUntil     string          `json:"order_restrict_time" validate:"required,time_of_day"`
}

type zipCodeRequest struct {
	ZipCode              string          `json:"zip_code" validate:"required,postal_code"`
	City                 string          `json:"city" validate:"required,max=100"`
	State                string          `json:"state" validate:"required,max=100"`
	DeliveryAvailability string          `json:"delivery_availability" validate:"required"`
	DeliveryThreshold    decimal.Decimal `json:"delivery_threshold"`
	DeliveryCost         decimal.Decimal `json:"delivery_cost"`
	MinOrderAmount       decimal.Decimal `json:"min_order_amount"`
}

type zipCodeResponse struct {
	ID                   uuid.UUID                  `json:"id"`
	ZipCode              string                     `json:"zip_code"`
	City                 string                     `json:"city"`
	State                string                     `json:"state"`
	DeliveryAvailability enums.DeliveryAvailability `json:"delivery_availability"`
	DeliveryThreshold    decimal.Decimal            `json:"delivery_threshold"`
	DeliveryCost         decimal.Decimal            `json:"delivery_cost"`
	MinOrderAmount       decimal.Decimal            `json:"min_order_amount"`
	UpdatedAt            time.Time                  `json:"updated_at"`
}

func toZipCodeResponse(z models.ZipCodeConfig) zipCodeResponse {
	return zipCodeResponse{
		ID:                   z.ID,
		ZipCode:              z.ZipCode,
		City:                 z.City,
		State:                z.State,
		DeliveryAvailability: z.DeliveryAvailability,
		DeliveryThreshold:    z.DeliveryThreshold,
		DeliveryCost:         z.DeliveryCost,
		MinOrderAmount:       z.MinOrderAmount,
		UpdatedAt:            z.UpdatedAt,
	}
}

func AdminPricingGet(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("settings service"))
			return
		}
		cfg, err := svc.PricingConfig(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

// AdminPricingUpdate stores a new fee, VAT and accept-window configuration.
func AdminPricingUpdate(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("settings service"))
			return
		}
		var body pricingConfigRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cfg, err := svc.UpdatePricingConfig(r.Context(), settings.UpdatePricingInput{
			VATPercentage:   body.VATPercentage,
			ShippingCharges: body.ShippingCharges,
			PlatformFee:     body.PlatformFee,
			PackingFee:      body.PackingFee,
			AcceptFrom:      strings.TrimSpace(body.AcceptFrom),
			AcceptUntil:     strings.TrimSpace(body.AcceptUntil),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

func AdminZipCodeList(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("settings service"))
			return
		}
		rows, err := svc.ListZipCodes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]zipCodeResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, toZipCodeResponse(row))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminZipCodeSave creates a zip code rule, or replaces the one named by {id}.
func AdminZipCodeSave(svc SettingsService, logg *logger.Logger, update bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("settings service"))
			return
		}
		var id *uuid.UUID
		if update {
			parsed, err := validators.ParseUUIDParam(r, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			id = &parsed
		}

		var body zipCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		availability, err := enums.ParseDeliveryAvailability(strings.TrimSpace(body.DeliveryAvailability))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery availability"))
			return
		}

		saved, err := svc.SaveZipCode(r.Context(), id, settings.ZipCodeInput{
			ZipCode:              strings.TrimSpace(body.ZipCode),
			City:                 strings.TrimSpace(body.City),
			State:                strings.TrimSpace(body.State),
			DeliveryAvailability: availability,
			DeliveryThreshold:    body.DeliveryThreshold,
			DeliveryCost:         body.DeliveryCost,
			MinOrderAmount:       body.MinOrderAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if !update {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, toZipCodeResponse(*saved))
	}
}

func AdminZipCodeDelete(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("settings service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteZipCode(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
