package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/api/responses"
	"github.com/crumbworks/bakery-backend/api/validators"
	product "github.com/crumbworks/bakery-backend/internal/products"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/types"
	"github.com/shopspring/decimal"
)

type variantRequest struct {
	ProductName    string               `json:"product_name" validate:"required,max=255"`
	VariantName    string               `json:"variant_name" validate:"required,max=255"`
	IsActive       *bool                `json:"is_active"`
	SKU            string               `json:"sku" validate:"required,max=64"`
	RegularPrice   decimal.Decimal      `json:"regular_price"`
	SalePrice      decimal.Decimal      `json:"sale_price"`
	SaleFrom       *time.Time           `json:"sale_price_dates_from"`
	SaleTo         *time.Time           `json:"sale_price_dates_to"`
	BulkPriceRules types.BulkPriceRules `json:"bulk_price_rules"`
}

func (req variantRequest) input() product.VariantInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return product.VariantInput{
		ProductName:    strings.TrimSpace(req.ProductName),
		VariantName:    strings.TrimSpace(req.VariantName),
		IsActive:       active,
		SKU:            strings.TrimSpace(req.SKU),
		RegularPrice:   req.RegularPrice,
		SalePrice:      req.SalePrice,
		SaleFrom:       req.SaleFrom,
		SaleTo:         req.SaleTo,
		BulkPriceRules: req.BulkPriceRules,
	}
}

// ProductList lists the active catalog. The admin variant includes inactive rows.
func ProductList(svc product.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListVariants(r.Context(), product.ListVariantsInput{
			IncludeInactive: includeInactive,
			Search:          strings.TrimSpace(r.URL.Query().Get("search")),
			Pagination:      page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.GetVariant(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		var body variantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.CreateVariant(r.Context(), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body variantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateVariant(r.Context(), id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
