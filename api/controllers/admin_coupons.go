package controllers

import (
	"net/http"
	"strings"

	"github.com/crumbworks/bakery-backend/api/responses"
	"github.com/crumbworks/bakery-backend/api/validators"
	"github.com/crumbworks/bakery-backend/internal/coupon"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/google/uuid"
)

var couponSortFields = map[string]struct{}{
	"code":        {},
	"is_active":   {},
	"coupon_type": {},
	"created_at":  {},
}

type bulkIDsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,dive,required"`
}

type bulkStatusRequest struct {
	IDs    []uuid.UUID `json:"ids" validate:"required,min=1,dive,required"`
	Status string      `json:"status" validate:"required,oneof=publish draft"`
}

type bulkDeleteRequest struct {
	IDs    []uuid.UUID `json:"ids" validate:"required,min=1,dive,required"`
	Action string      `json:"action" validate:"required,oneof=delete publish"`
}

type assignCouponRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

func AdminCouponCreate(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		var body coupon.Input
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminCouponGet(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminCouponUpdate applies a partial update; omitted fields keep their value.
func AdminCouponUpdate(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body coupon.Patch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminCouponList supports status, search, sort_by and order query params.
func AdminCouponList(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		input := coupon.ListInput{
			Status:     strings.ToLower(strings.TrimSpace(q.Get("status"))),
			Search:     validators.SanitizeString(q.Get("search"), 100),
			SortBy:     strings.TrimSpace(q.Get("sort_by")),
			Order:      strings.ToLower(strings.TrimSpace(q.Get("order"))),
			Pagination: page,
		}
		if input.Status != "" {
			if _, err := enums.ParseCouponStatus(input.Status); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
		}
		if input.SortBy != "" {
			if _, ok := couponSortFields[input.SortBy]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort_by"))
				return
			}
		}
		if input.Order != "" && input.Order != "asc" && input.Order != "desc" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order must be asc or desc"))
			return
		}

		list, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminCouponBulkCopy(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		var body bulkIDsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		copied, err := svc.BulkCopy(r.Context(), body.IDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"copied": copied})
	}
}

func AdminCouponBulkStatus(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		var body bulkStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.BulkStatus(r.Context(), body.IDs, enums.CouponStatus(body.Status)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"updated": len(body.IDs)})
	}
}

// AdminCouponBulkDelete trashes coupons with action=delete and restores them with action=publish.
func AdminCouponBulkDelete(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		var body bulkDeleteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.BulkDelete(r.Context(), body.IDs, body.Action); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"updated": len(body.IDs)})
	}
}

func AdminCouponGenerateCode(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		couponType, err := enums.ParseCouponType(strings.TrimSpace(r.URL.Query().Get("coupon_type")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Please select Coupon Type"))
			return
		}
		code, err := svc.GenerateCode(r.Context(), couponType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"code": code})
	}
}

func AdminCouponAssign(svc coupon.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		couponID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body assignCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assigned, err := svc.Assign(r.Context(), couponID, body.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, assigned)
	}
}
