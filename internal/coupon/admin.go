package coupon

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BulkDeleteTrash   = "delete"
	BulkDeleteRestore = "publish"
)

// ListInput carries the admin listing query.
type ListInput struct {
	Status     string
	Search     string
	SortBy     string
	Order      string
	Pagination pagination.Params
}

func (s *service) Create(ctx context.Context, input Input) (*CouponDTO, error) {
	now := s.now()
	c := input.toModel(now)
	c.Code = strings.TrimSpace(c.Code)
	exp, err := validateCoupon(c, now)
	if err != nil {
		return nil, err
	}

	var assigned int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if c.Code == "" {
			code, err := uniqueCode(ctx, repo, c.CouponType)
			if err != nil {
				return err
			}
			c.Code = code
		} else if taken, err := repo.CodeExists(ctx, c.Code); err != nil {
			return err
		} else if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, msgCodeTaken)
		}
		if err := expand(ctx, repo, c, exp); err != nil {
			return err
		}
		if err := repo.Create(ctx, c); err != nil {
			return err
		}
		assigned, err = s.assignEligible(ctx, repo, c)
		return err
	})
	if err != nil {
		return nil, wrap(err, "create coupon")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"coupon_code": c.Code,
			"coupon_type": c.CouponType,
			"assigned":    assigned,
		})
		s.logg.Info(logCtx, "coupon.created")
	}
	return s.render(ctx, c)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	c, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgCouponNotFound)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return s.render(ctx, c)
}

// Update applies a partial update and revalidates the result.
func (s *service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*CouponDTO, error) {
	var updated *models.Coupon
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgCouponNotFound)
		}
		if err != nil {
			return err
		}
		previousCode := c.Code
		patch.applyTo(c)
		c.Code = strings.TrimSpace(c.Code)

		exp, err := validateCoupon(c, s.now())
		if err != nil {
			return err
		}
		if c.Code == "" {
			c.Code = previousCode
		}
		if c.Code != previousCode {
			taken, err := repo.CodeExists(ctx, c.Code)
			if err != nil {
				return err
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, msgCodeTaken)
			}
		}
		if err := expand(ctx, repo, c, exp); err != nil {
			return err
		}
		if err := repo.Save(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, wrap(err, "update coupon")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithCouponCode(ctx, updated.Code), "coupon.updated")
	}
	return s.render(ctx, updated)
}

func (s *service) List(ctx context.Context, input ListInput) (*CouponList, error) {
	filter := ListFilter{
		Status: enums.CouponStatus(strings.ToLower(strings.TrimSpace(input.Status))),
		Search: input.Search,
		SortBy: input.SortBy,
		Desc:   strings.EqualFold(input.Order, "desc"),
	}
	rows, total, err := s.repo.List(ctx, filter, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}

	ptrs := make([]*models.Coupon, 0, len(rows))
	for i := range rows {
		ptrs = append(ptrs, &rows[i])
	}
	names, err := s.repo.VariantNames(ctx, referencedVariants(ptrs...))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product names")
	}
	out := &CouponList{Items: make([]CouponDTO, 0, len(rows)), Meta: pagination.NewMeta(input.Pagination, total)}
	for _, c := range ptrs {
		out.Items = append(out.Items, toDTO(c, names))
	}
	return out, nil
}

// BulkCopy duplicates each coupon under a fresh "<code>_copy" code.
func (s *service) BulkCopy(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, msgNoCouponIDs)
	}
	created := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, id := range ids {
			source, err := repo.FindByID(ctx, id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, fmtCopySourceMissing, id)
			}
			if err != nil {
				return err
			}
			code, err := copyCode(ctx, repo, source.Code)
			if err != nil {
				return err
			}
			dup := *source
			dup.ID = uuid.Nil
			dup.Code = code
			dup.CreatedAt = time.Time{}
			dup.UpdatedAt = time.Time{}
			if err := repo.Create(ctx, &dup); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, wrap(err, "copy coupons")
	}
	return created, nil
}

// BulkStatus publishes or drafts coupons, restoring any that were trashed.
func (s *service) BulkStatus(ctx context.Context, ids []uuid.UUID, status enums.CouponStatus) error {
	var active bool
	switch status {
	case enums.CouponStatusPublish:
		active = true
	case enums.CouponStatusDraft:
		active = false
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidBulkStatus)
	}
	return s.setFlags(ctx, ids, active, false, "coupon.bulk_status")
}

// BulkDelete trashes coupons, or restores them as published.
func (s *service) BulkDelete(ctx context.Context, ids []uuid.UUID, action string) error {
	switch action {
	case BulkDeleteTrash:
		return s.setFlags(ctx, ids, false, true, "coupon.bulk_trash")
	case BulkDeleteRestore:
		return s.setFlags(ctx, ids, true, false, "coupon.bulk_restore")
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidBulkDeletion)
	}
}

func (s *service) setFlags(ctx context.Context, ids []uuid.UUID, active, deleted bool, event string) error {
	if len(ids) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgNoCouponIDs)
	}
	var affected int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		affected, err = s.repo.WithTx(tx).SetFlags(ctx, ids, active, deleted)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgCouponIDsNotFound)
		}
		return nil
	})
	if err != nil {
		return wrap(err, "update coupon flags")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "coupons", affected), event)
	}
	return nil
}

func (s *service) GenerateCode(ctx context.Context, couponType enums.CouponType) (string, error) {
	if !couponType.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, msgTypeRequired)
	}
	code, err := uniqueCode(ctx, s.repo, couponType)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate coupon code")
	}
	return code, nil
}

// DeactivateExpired unpublishes every coupon whose end has passed.
func (s *service) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		n, err = s.repo.WithTx(tx).DeactivateExpired(ctx, now)
		return err
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate expired coupons")
	}
	return n, nil
}

func (s *service) render(ctx context.Context, c *models.Coupon) (*CouponDTO, error) {
	names, err := s.repo.VariantNames(ctx, referencedVariants(c))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product names")
	}
	dto := toDTO(c, names)
	return &dto, nil
}

type codeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// uniqueCode draws "<type>-NNNN" and suffixes "-n" until the code is free.
func uniqueCode(ctx context.Context, repo codeChecker, couponType enums.CouponType) (string, error) {
	base := fmt.Sprintf("%s-%d", couponType, 1000+rand.IntN(9000))
	code := base
	for n := 1; ; n++ {
		taken, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		code = fmt.Sprintf("%s-%d", base, n)
	}
}

func copyCode(ctx context.Context, repo codeChecker, source string) (string, error) {
	code := source + "_copy"
	for n := 2; ; n++ {
		taken, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		code = fmt.Sprintf("%s_copy_%d", source, n)
	}
}
