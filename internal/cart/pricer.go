package cart

import (
	"context"
	"fmt"

	"github.com/crumbworks/bakery-backend/internal/discount"
	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
)

type settingsProvider interface {
	PricingConfig(ctx context.Context) (pricing.Config, error)
}

type stateLookup interface {
	PrimaryState(ctx context.Context, userID uuid.UUID) (string, error)
}

// Pricer prices carts under their applied coupon and the current pricing configuration.
type Pricer struct {
	settings  settingsProvider
	addresses stateLookup
}

func NewPricer(settings settingsProvider, addresses stateLookup) (*Pricer, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address lookup required")
	}
	return &Pricer{settings: settings, addresses: addresses}, nil
}

// Priced is a cart with its computed totals.
type Priced struct {
	Cart     *models.Cart
	Snapshot discount.CartSnapshot
	Rule     discount.Rule
	Config   pricing.Config
	Totals   discount.Totals
	Warnings []string
}

// Price computes the totals of a cart loaded with items, variants and the applied coupon.
func (p *Pricer) Price(ctx context.Context, cart *models.Cart) (*Priced, error) {
	cfg, err := p.settings.PricingConfig(ctx)
	if err != nil {
		return nil, err
	}

	var rule discount.Rule
	if cart.AppliedCouponID != nil && cart.AppliedCoupon != nil {
		rule, err = discount.NewRule(cart.AppliedCoupon)
		if err != nil {
			return nil, err
		}
	}

	state := ""
	if rule != nil && rule.Type() == enums.CouponTypeFreeShipping && cart.UserID != nil {
		state, err = p.addresses.PrimaryState(ctx, *cart.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load primary address")
		}
	}

	snap := discount.NewSnapshot(cart, state, nil)
	totals := discount.ComputeTotals(snap, rule, cfg)
	priced := &Priced{
		Cart:     cart,
		Snapshot: snap,
		Rule:     rule,
		Config:   cfg,
		Totals:   totals,
	}
	if totals.MoreUnitsNeeded > 0 {
		priced.Warnings = append(priced.Warnings, discount.MoreUnitsMessage(totals.MoreUnitsNeeded))
	}
	return priced, nil
}

// Reprice reloads the cart through repo, prices it and persists the resulting totals.
func (p *Pricer) Reprice(ctx context.Context, repo CartRepository, cartID uuid.UUID) (*Priced, error) {
	cart, err := repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	priced, err := p.Price(ctx, cart)
	if err != nil {
		return nil, err
	}
	if err := repo.SaveTotals(ctx, cartID, priced.Totals); err != nil {
		return nil, err
	}
	return priced, nil
}

// Config returns the pricing configuration in effect.
func (p *Pricer) Config(ctx context.Context) (pricing.Config, error) {
	return p.settings.PricingConfig(ctx)
}
