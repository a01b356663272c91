package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/logger"
	"gorm.io/gorm"
)

const cartSessionIdleDays = 7

type saleWindowRefresher interface {
	RefreshSaleWindows(ctx context.Context, now time.Time) (int, error)
}

type couponExpirer interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// IdleCartPurger deletes abandoned anonymous carts.
type IdleCartPurger interface {
	DeleteIdleSessionCarts(ctx context.Context, idleSince time.Time) (int64, error)
}

// NewSaleWindowJob recomputes sale_active for every inventory row with a sale window.
func NewSaleWindowJob(logg *logger.Logger, products saleWindowRefresher, loc *time.Location) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if products == nil {
		return nil, fmt.Errorf("product service required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &saleWindowJob{logg: logg, products: products, loc: loc, now: time.Now}, nil
}

type saleWindowJob struct {
	logg     *logger.Logger
	products saleWindowRefresher
	loc      *time.Location
	now      func() time.Time
}

func (j *saleWindowJob) Name() string { return "sale-window-refresh" }

func (j *saleWindowJob) Run(ctx context.Context) error {
	changed, err := j.products.RefreshSaleWindows(ctx, j.now().In(j.loc))
	if err != nil {
		return fmt.Errorf("refresh sale windows: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_changed", changed), "sale windows refreshed")
	return nil
}

// NewCouponExpiryJob deactivates coupons whose end date has passed.
func NewCouponExpiryJob(logg *logger.Logger, coupons couponExpirer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	return &couponExpiryJob{logg: logg, coupons: coupons, now: time.Now}, nil
}

type couponExpiryJob struct {
	logg    *logger.Logger
	coupons couponExpirer
	now     func() time.Time
}

func (j *couponExpiryJob) Name() string { return "coupon-expiry" }

func (j *couponExpiryJob) Run(ctx context.Context) error {
	n, err := j.coupons.DeactivateExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate expired coupons: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "coupons_deactivated", n), "expired coupons deactivated")
	return nil
}

// CartSessionCleanupJobParams configure the anonymous cart purge.
type CartSessionCleanupJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Carts    func(tx *gorm.DB) IdleCartPurger
	IdleDays int
}

// NewCartSessionCleanupJob deletes anonymous carts untouched for IdleDays.
func NewCartSessionCleanupJob(params CartSessionCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository factory required")
	}
	return &cartSessionCleanupJob{
		logg:     params.Logger,
		db:       params.DB,
		carts:    params.Carts,
		idleDays: orDefault(params.IdleDays, cartSessionIdleDays),
		now:      time.Now,
	}, nil
}

type cartSessionCleanupJob struct {
	logg     *logger.Logger
	db       txRunner
	carts    func(tx *gorm.DB) IdleCartPurger
	idleDays int
	now      func() time.Time
}

func (j *cartSessionCleanupJob) Name() string { return "cart-session-cleanup" }

func (j *cartSessionCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-days(j.idleDays))
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.carts(tx).DeleteIdleSessionCarts(ctx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("cart session cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"cutoff": cutoff, "carts_deleted": deleted})
	j.logg.Info(logCtx, "idle session carts deleted")
	return nil
}
