package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/internal/discount"
	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/metrics"
	"github.com/crumbworks/bakery-backend/pkg/outbox"
	"github.com/crumbworks/bakery-backend/pkg/outbox/payloads"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgCodeRequired        = "Coupon code is required."
	msgInvalidCode         = "Invalid coupon code."
	msgNotForUser          = "This coupon is not available for this user."
	msgNotActiveYet        = "This coupon is not active yet."
	msgExpired             = "This coupon has expired."
	msgUsageExhausted      = "This coupon can no longer be used."
	msgCartEmpty           = "Your cart is empty."
	fmtMinimumPurchase     = "Minimum purchase amount of %s not met."
	fmtMinimumQuantity     = "Minimum quantity of %d items not met."
	msgAlreadyRedeemed     = "Coupon has already been redeemed."
	msgAlreadyApplied      = "This coupon is already applied."
	msgNothingApplied      = "No coupon is currently applied to the cart."
	msgCouponNotFound      = "Coupon not found."
	msgUserNotFound        = "User not found."
	msgAlreadyAssigned     = "Coupon already assigned to the user."
	msgCodeTaken           = "Coupon with this code already exists."
	msgNoCouponIDs         = "Coupon does not existed."
	msgCouponIDsNotFound   = "Coupon id not found"
	fmtCopySourceMissing   = "Coupon with ID %s does not exist."
	msgInvalidBulkStatus   = "Invalid coupon status."
	msgInvalidBulkDeletion = "Invalid bulk delete action."

	MessageRemoved  = "Coupon removed successfully."
	MessageRedeemed = "Coupon redeemed successfully."
	MessageCopied   = "Coupon Created Successfully."
	MessageUpdated  = "Coupon Updated Successfully."
	MessageDeleted  = "Coupon Deleted Successfully."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogPricing interface {
	PricingFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]pricing.VariantPricing, error)
}

type stateLookup interface {
	PrimaryState(ctx context.Context, userID uuid.UUID) (string, error)
}

// Service exposes customer and admin coupon operations.
type Service interface {
	Apply(ctx context.Context, userID uuid.UUID, code string) (*ApplyResult, error)
	Revert(ctx context.Context, userID uuid.UUID) (*ApplyResult, error)
	Redeem(ctx context.Context, userID uuid.UUID, code string) error
	Mine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserCouponList, error)
	Assign(ctx context.Context, couponID, userID uuid.UUID) (*UserCouponDTO, error)
	AssignForNewUser(ctx context.Context, userID uuid.UUID) (int64, error)

	Create(ctx context.Context, input Input) (*CouponDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*CouponDTO, error)
	List(ctx context.Context, input ListInput) (*CouponList, error)
	BulkCopy(ctx context.Context, ids []uuid.UUID) (int, error)
	BulkStatus(ctx context.Context, ids []uuid.UUID, status enums.CouponStatus) error
	BulkDelete(ctx context.Context, ids []uuid.UUID, action string) error
	GenerateCode(ctx context.Context, couponType enums.CouponType) (string, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Deps groups the collaborators of the coupon service.
type Deps struct {
	Tx        txRunner
	Repo      *Repository
	Carts     cart.CartRepository
	Pricer    *cart.Pricer
	Catalog   catalogPricing
	Addresses stateLookup
	Outbox    outbox.Emitter
	Metrics   *metrics.CouponMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	tx        txRunner
	repo      *Repository
	carts     cart.CartRepository
	pricer    *cart.Pricer
	catalog   catalogPricing
	addresses stateLookup
	outbox    outbox.Emitter
	metrics   *metrics.CouponMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the coupon service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog pricing required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address lookup required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		tx:        deps.Tx,
		repo:      deps.Repo,
		carts:     deps.Carts,
		pricer:    deps.Pricer,
		catalog:   deps.Catalog,
		addresses: deps.Addresses,
		outbox:    deps.Outbox,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		now:       deps.Now,
	}, nil
}

// resolve finds the coupon behind code for the user and checks it can be offered at all.
func (s *service) resolve(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, *models.UserCoupon, error) {
	var (
		coupon     *models.Coupon
		userCoupon *models.UserCoupon
	)
	uc, err := s.repo.FindUserCoupon(ctx, userID, code)
	switch {
	case err == nil && uc.Coupon != nil:
		userCoupon, coupon = uc, uc.Coupon
	case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
		coupon, err = s.repo.FindByCode(ctx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, msgInvalidCode)
		}
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
		}
		if coupon.CustomerEligibility == enums.EligibilitySpecificCustomer {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, msgNotForUser)
		}
	default:
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user coupon")
	}

	if !coupon.IsActive || coupon.IsDeleted {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, msgInvalidCode)
	}
	now := s.now()
	if now.Before(coupon.StartsAt) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, msgNotActiveYet)
	}
	if now.After(coupon.EndsAt) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, msgExpired)
	}
	return coupon, userCoupon, nil
}

// checkUsage applies the usage policy to the counters read before this attempt was counted.
func checkUsage(coupon *models.Coupon, userCoupon *models.UserCoupon) error {
	switch coupon.MaximumDiscountUsage {
	case enums.UsageLimitDiscountTimes:
		if coupon.MaximumUsageValue <= coupon.UsageCount {
			return pkgerrors.New(pkgerrors.CodeValidation, msgUsageExhausted)
		}
	case enums.UsagePerCustomer:
		if userCoupon != nil && userCoupon.MaximumUsage >= coupon.MaximumUsageValue {
			return pkgerrors.New(pkgerrors.CodeValidation, msgUsageExhausted)
		}
	}
	return nil
}

// checkMinimums enforces the purchase requirement against the cart as priced right now.
func checkMinimums(coupon *models.Coupon, priced *cart.Priced) error {
	switch coupon.MinimumPurchaseRequirement {
	case enums.MinimumPurchase:
		if priced.Totals.TotalPrice.LessThan(coupon.MinimumPurchaseValue) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, fmtMinimumPurchase, coupon.MinimumPurchaseValue.StringFixed(2))
		}
	case enums.MinimumItems:
		items := priced.Snapshot.ItemCount()
		if items < coupon.BuyProductsQuantity {
			return pkgerrors.Newf(pkgerrors.CodeValidation, fmtMinimumQuantity, coupon.BuyProductsQuantity)
		}
		if items < coupon.MinimumItemValue {
			return pkgerrors.Newf(pkgerrors.CodeValidation, fmtMinimumQuantity, coupon.MinimumItemValue)
		}
	}
	return nil
}

// Apply applies the coupon behind code to the user's cart. The global usage
// counter is bumped in its own transaction on every attempt, before the limits
// are checked. The per-user counter only moves on redeem.
func (s *service) Apply(ctx context.Context, userID uuid.UUID, code string) (*ApplyResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgCodeRequired)
	}
	if s.logg != nil {
		ctx = s.logg.WithCouponCode(s.logg.WithUserID(ctx, userID.String()), code)
	}

	coupon, userCoupon, err := s.resolve(ctx, userID, code)
	if err != nil {
		s.metrics.IncApply("", metrics.CouponResultRejected)
		return nil, err
	}
	couponType := coupon.CouponType.String()
	reject := func(err error) (*ApplyResult, error) {
		s.metrics.IncApply(couponType, metrics.CouponResultRejected)
		return nil, err
	}

	current, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reject(pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty))
	}
	if err != nil {
		return reject(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).IncrementUsage(ctx, coupon.ID)
	})
	if err != nil {
		return reject(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon usage"))
	}
	if err := checkUsage(coupon, userCoupon); err != nil {
		return reject(err)
	}

	if current.AppliedCouponID != nil && *current.AppliedCouponID == coupon.ID {
		priced, err := s.pricer.Price(ctx, current)
		if err != nil {
			return reject(wrap(err, "price cart"))
		}
		if err := checkMinimums(coupon, priced); err != nil {
			return reject(err)
		}
		s.metrics.IncApply(couponType, metrics.CouponResultNoop)
		return &ApplyResult{Message: msgAlreadyApplied, Cart: cart.NewView(priced)}, nil
	}

	rule, err := discount.NewRule(coupon)
	if err != nil {
		return reject(err)
	}

	var result *ApplyResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		locked, err := carts.Lock(ctx, current.ID)
		if err != nil {
			return err
		}
		if len(locked.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
		}
		priced, err := s.pricer.Price(ctx, locked)
		if err != nil {
			return err
		}
		if err := checkMinimums(coupon, priced); err != nil {
			return err
		}
		if userCoupon != nil && userCoupon.Redeemed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgAlreadyRedeemed)
		}

		if locked.AppliedCouponID != nil {
			if locked, err = s.revertLocked(ctx, carts, locked); err != nil {
				return err
			}
		}

		snap, err := s.snapshotFor(ctx, rule, locked, userID)
		if err != nil {
			return err
		}
		mutation, err := rule.Apply(snap)
		if err != nil {
			return err
		}
		if err := carts.ApplyMutation(ctx, locked.ID, mutation); err != nil {
			return err
		}
		if err := carts.SetAppliedCoupon(ctx, locked.ID, &coupon.ID); err != nil {
			return err
		}
		repriced, err := s.pricer.Reprice(ctx, carts, locked.ID)
		if err != nil {
			return err
		}

		uid := userID
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCouponApplied,
			AggregateType: enums.AggregateCart,
			AggregateID:   locked.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleBakery.String()},
			Data: payloads.CouponAppliedEvent{
				CartID:     locked.ID,
				CouponID:   coupon.ID,
				Code:       coupon.Code,
				CouponType: coupon.CouponType,
				UserID:     &uid,
			},
		}); err != nil {
			return err
		}
		result = &ApplyResult{Message: mutation.Message, Cart: cart.NewView(repriced)}
		return nil
	})
	if err != nil {
		return reject(wrap(err, "apply coupon"))
	}

	s.metrics.IncApply(couponType, metrics.CouponResultApplied)
	if s.logg != nil {
		s.logg.Info(s.logg.WithCartID(ctx, current.ID.String()), "coupon.applied")
	}
	return result, nil
}

// snapshotFor builds the cart snapshot rule needs: the primary state for free
// shipping and catalog prices for "get" products.
func (s *service) snapshotFor(ctx context.Context, rule discount.Rule, c *models.Cart, userID uuid.UUID) (discount.CartSnapshot, error) {
	state := ""
	var catalog map[uuid.UUID]pricing.VariantPricing
	switch r := rule.(type) {
	case discount.FreeShipping:
		found, err := s.addresses.PrimaryState(ctx, userID)
		if err != nil {
			return discount.CartSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load primary address")
		}
		state = found
	case discount.BuyXGetY:
		found, err := s.catalog.PricingFor(ctx, r.GetProducts)
		if err != nil {
			return discount.CartSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product pricing")
		}
		catalog = found
	}
	return discount.NewSnapshot(c, state, catalog), nil
}

// revertLocked undoes the coupon applied to a locked cart and returns the reloaded cart.
func (s *service) revertLocked(ctx context.Context, carts cart.CartRepository, locked *models.Cart) (*models.Cart, error) {
	if locked.AppliedCoupon != nil {
		rule, err := discount.NewRule(locked.AppliedCoupon)
		if err != nil {
			return nil, err
		}
		mutation := rule.Revert(discount.NewSnapshot(locked, "", nil))
		if err := carts.ApplyMutation(ctx, locked.ID, mutation); err != nil {
			return nil, err
		}
	}
	if err := carts.SetAppliedCoupon(ctx, locked.ID, nil); err != nil {
		return nil, err
	}
	return carts.FindByID(ctx, locked.ID)
}

// Revert removes the applied coupon from the user's cart.
func (s *service) Revert(ctx context.Context, userID uuid.UUID) (*ApplyResult, error) {
	if s.logg != nil {
		ctx = s.logg.WithUserID(ctx, userID.String())
	}
	current, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msgNothingApplied)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var (
		result  *ApplyResult
		removed *models.Coupon
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		locked, err := carts.Lock(ctx, current.ID)
		if err != nil {
			return err
		}
		if locked.AppliedCouponID == nil || locked.AppliedCoupon == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgNothingApplied)
		}
		removed = locked.AppliedCoupon

		if _, err := s.revertLocked(ctx, carts, locked); err != nil {
			return err
		}
		repriced, err := s.pricer.Reprice(ctx, carts, locked.ID)
		if err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCouponReverted,
			AggregateType: enums.AggregateCart,
			AggregateID:   locked.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleBakery.String()},
			Data: payloads.CouponRevertedEvent{
				CartID:     locked.ID,
				CouponID:   removed.ID,
				Code:       removed.Code,
				CouponType: removed.CouponType,
			},
		}); err != nil {
			return err
		}
		result = &ApplyResult{Message: MessageRemoved, Cart: cart.NewView(repriced)}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "revert coupon")
	}

	s.metrics.IncRevert(removed.CouponType.String())
	if s.logg != nil {
		logCtx := s.logg.WithCouponCode(s.logg.WithCartID(ctx, current.ID.String()), removed.Code)
		s.logg.Info(logCtx, "coupon.reverted")
	}
	return result, nil
}

// Redeem marks the user's coupon redeemed and lowers the usage counters while they exceed one.
func (s *service) Redeem(ctx context.Context, userID uuid.UUID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, msgCodeRequired)
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		uc, err := repo.FindUserCoupon(ctx, userID, code)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && uc.Coupon == nil) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgCouponNotFound)
		}
		if err != nil {
			return err
		}
		if uc.Redeemed && uc.Coupon.UsageCount != 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgAlreadyRedeemed)
		}

		now := s.now().UTC()
		if err := repo.MarkRedeemed(ctx, uc.ID, now); err != nil {
			return err
		}
		if err := repo.DecrementUsageAboveOne(ctx, uc.CouponID); err != nil {
			return err
		}
		if err := repo.DecrementUserUsageAboveOne(ctx, uc.ID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCouponRedeemed,
			AggregateType: enums.AggregateCoupon,
			AggregateID:   uc.CouponID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleBakery.String()},
			Data: payloads.CouponRedeemedEvent{
				CouponID:   uc.CouponID,
				UserID:     userID,
				Code:       uc.Coupon.Code,
				RedeemedAt: now,
			},
		})
	})
	if err != nil {
		return wrap(err, "redeem coupon")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithCouponCode(s.logg.WithUserID(ctx, userID.String()), code), "coupon.redeemed")
	}
	return nil
}

// Mine lists the user's unredeemed, unexpired coupons.
func (s *service) Mine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserCouponList, error) {
	rows, total, err := s.repo.ListMine(ctx, userID, s.now(), params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	out := &UserCouponList{Items: make([]UserCouponDTO, 0, len(rows)), Meta: pagination.NewMeta(params, total)}
	for _, row := range rows {
		out.Items = append(out.Items, toUserCouponDTO(row))
	}
	return out, nil
}

// wrap keeps typed errors and classifies the rest as dependency failures.
func wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
