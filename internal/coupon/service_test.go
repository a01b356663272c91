package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/crumbworks/bakery-backend/internal/address"
	"github.com/crumbworks/bakery-backend/internal/cart"
	product "github.com/crumbworks/bakery-backend/internal/products"
	"github.com/crumbworks/bakery-backend/internal/settings"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/db"
	"github.com/crumbworks/bakery-backend/pkg/db/dbtest"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	dbtypes "github.com/crumbworks/bakery-backend/pkg/db/types"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/metrics"
	"github.com/crumbworks/bakery-backend/pkg/outbox"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

type noOrders struct{}

func (noOrders) ItemsForUser(context.Context, uuid.UUID, uuid.UUID) ([]models.OrderItem, error) {
	return nil, gorm.ErrRecordNotFound
}

type fixture struct {
	conn      *gorm.DB
	svc       Service
	repo      *Repository
	carts     *cart.Repository
	cartSvc   cart.Service
	addresses address.Service
	metrics   *metrics.CouponMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	for _, name := range []string{"Stockholm", "Uppsala"} {
		require.NoError(t, conn.Create(&models.State{Name: name}).Error)
	}

	settingsSvc, err := settings.NewService(settings.NewRepository(conn), nil, config.PricingConfig{
		VATPercentage:    "10",
		PlatformFee:      "5",
		PackingFee:       "5",
		ShippingCharges:  "20",
		OrderAcceptFrom:  "06:00",
		OrderAcceptUntil: "14:00",
	}, nil)
	require.NoError(t, err)
	addressSvc, err := address.NewService(db.Wrap(conn), address.NewRepository(conn))
	require.NoError(t, err)
	pricer, err := cart.NewPricer(settingsSvc, addressSvc)
	require.NoError(t, err)

	f := &fixture{
		conn:      conn,
		repo:      NewRepository(conn),
		carts:     cart.NewRepository(conn),
		addresses: addressSvc,
		metrics:   metrics.NewCouponMetrics(prometheus.NewRegistry()),
	}
	f.cartSvc, err = cart.NewService(cart.Deps{
		Tx:          db.Wrap(conn),
		Repo:        f.carts,
		Pricer:      pricer,
		Variants:    product.NewRepository(conn),
		Zips:        settingsSvc,
		Orders:      noOrders{},
		MaxQuantity: 10,
	})
	require.NoError(t, err)
	f.svc, err = NewService(Deps{
		Tx:        db.Wrap(conn),
		Repo:      f.repo,
		Carts:     f.carts,
		Pricer:    pricer,
		Catalog:   product.NewRepository(conn),
		Addresses: addressSvc,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), nil),
		Metrics:   f.metrics,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) user(t *testing.T, role enums.UserRole) uuid.UUID {
	t.Helper()
	u := &models.User{
		Email:        uuid.NewString() + "@bakery.test",
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	require.NoError(t, f.conn.Create(u).Error)
	return u.ID
}

func (f *fixture) variant(t *testing.T, price string) uuid.UUID {
	t.Helper()
	v := &models.ProductVariant{
		ProductName: "Bread",
		VariantName: "v-" + uuid.NewString()[:6],
		IsActive:    true,
		Inventory: &models.Inventory{
			SKU:          uuid.NewString(),
			RegularPrice: decimal.RequireFromString(price),
		},
	}
	require.NoError(t, f.conn.Create(v).Error)
	return v.ID
}

func (f *fixture) add(t *testing.T, userID, variantID uuid.UUID, qty int) *cart.CartView {
	t.Helper()
	view, err := f.cartSvc.AddItem(context.Background(), cart.Owner{UserID: &userID}, variantID, qty)
	require.NoError(t, err)
	return view
}

func (f *fixture) coupon(t *testing.T, c models.Coupon) *models.Coupon {
	t.Helper()
	if c.Code == "" {
		c.Code = "C-" + uuid.NewString()[:8]
	}
	c.IsActive = true
	c.StartsAt = fixedNow.Add(-24 * time.Hour)
	c.EndsAt = fixedNow.Add(30 * 24 * time.Hour)
	if c.CustomerEligibility == "" {
		c.CustomerEligibility = enums.EligibilityAllCustomers
	}
	require.NoError(t, f.conn.Create(&c).Error)
	return &c
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Coupon {
	t.Helper()
	c, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(decimal.RequireFromString(want)), "expected %s, got %s", want, got)
}

func requireMessage(t *testing.T, err error, want string) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, want, typed.Message())
}

func TestApplySameCouponTwiceIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	f.add(t, userID, f.variant(t, "12"), 2)
	c := f.coupon(t, models.Coupon{
		CouponType:    enums.CouponTypeAmountOffOrder,
		DiscountType:  enums.DiscountTypeAmount,
		DiscountValue: decimal.NewFromInt(5),
	})

	first, err := f.svc.Apply(ctx, userID, c.Code)
	require.NoError(t, err)
	require.Equal(t, "Coupon applied successfully.", first.Message)
	requireMoney(t, "24", first.Cart.TotalPrice)
	requireMoney(t, "19", first.Cart.DiscountedPrice)

	second, err := f.svc.Apply(ctx, userID, c.Code)
	require.NoError(t, err)
	require.Equal(t, "This coupon is already applied.", second.Message)
	requireMoney(t, first.Cart.DiscountedPrice.String(), second.Cart.DiscountedPrice)
	requireMoney(t, first.Cart.TotalWithVAT.String(), second.Cart.TotalWithVAT)
	require.Len(t, second.Cart.Items, len(first.Cart.Items))

	// every attempt is counted, the repeat included
	require.Equal(t, 2, f.reload(t, c.ID).UsageCount)

	var events int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventCouponApplied).Count(&events).Error)
	require.EqualValues(t, 1, events)
}

func TestApplyThenRevertRestoresCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	bread := f.variant(t, "12")
	bun := f.variant(t, "4")
	f.add(t, userID, bread, 2)
	before := f.add(t, userID, bun, 3)

	c := f.coupon(t, models.Coupon{
		CouponType:       enums.CouponTypeAmountOffProduct,
		DiscountType:     enums.DiscountTypePercentage,
		DiscountValue:    decimal.NewFromInt(50),
		AppliesTo:        enums.ApplyScopeSpecificProducts,
		SpecificProducts: dbtypes.UUIDArray{bread},
	})

	applied, err := f.svc.Apply(ctx, userID, c.Code)
	require.NoError(t, err)
	require.Equal(t, "Discount applied to eligible products successfully.", applied.Message)
	// bread 2 x 6 after 50% off, buns untouched
	requireMoney(t, "24", applied.Cart.DiscountedPrice)
	require.NotNil(t, applied.Cart.CouponCode)

	reverted, err := f.svc.Revert(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, MessageRemoved, reverted.Message)
	require.Nil(t, reverted.Cart.CouponCode)
	requireMoney(t, before.TotalPrice.String(), reverted.Cart.TotalPrice)
	requireMoney(t, before.TotalPrice.String(), reverted.Cart.DiscountedPrice)
	requireMoney(t, before.TotalWithVAT.String(), reverted.Cart.TotalWithVAT)
	require.Len(t, reverted.Cart.Items, 2)
	for _, item := range reverted.Cart.Items {
		require.Nil(t, item.DiscountedLinePrice)
	}

	stored, err := f.carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	for _, item := range stored.Items {
		require.False(t, item.DiscountedPrice.Valid)
	}
}

func TestBuyXGetYAddsDiscountedUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	croissant := f.variant(t, "10")
	coffee := f.variant(t, "8")
	f.add(t, userID, croissant, 2)

	c := f.coupon(t, models.Coupon{
		CouponType:           enums.CouponTypeBuyXGetY,
		AppliesTo:            enums.ApplyScopeSpecificProducts,
		BuyProducts:          dbtypes.UUIDArray{croissant},
		BuyProductsQuantity:  2,
		GetAppliesTo:         enums.ApplyScopeSpecificProducts,
		CustomerGetProducts:  dbtypes.UUIDArray{coffee},
		CustomerGetsQuantity: 1,
		CustomerGetsType:     enums.CustomerGetsFree,
	})

	applied, err := f.svc.Apply(ctx, userID, c.Code)
	require.NoError(t, err)
	require.Equal(t, "Buy X Get Y coupon applied successfully.", applied.Message)
	require.Len(t, applied.Cart.Items, 2)
	var free *cart.ItemView
	for i := range applied.Cart.Items {
		if applied.Cart.Items[i].VariantID == coffee {
			free = &applied.Cart.Items[i]
		}
	}
	require.NotNil(t, free)
	require.Equal(t, 1, free.Quantity)
	require.NotNil(t, free.DiscountedLinePrice)
	requireMoney(t, "0", *free.DiscountedLinePrice)
	requireMoney(t, "28", applied.Cart.TotalPrice)
	requireMoney(t, "20", applied.Cart.DiscountedPrice)

	reverted, err := f.svc.Revert(ctx, userID)
	require.NoError(t, err)
	require.Len(t, reverted.Cart.Items, 1)
	require.Equal(t, croissant, reverted.Cart.Items[0].VariantID)
	requireMoney(t, "20", reverted.Cart.TotalPrice)
}

func TestBuyXGetYNeedsEnoughBuyUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	croissant := f.variant(t, "10")
	f.add(t, userID, croissant, 1)

	c := f.coupon(t, models.Coupon{
		CouponType:           enums.CouponTypeBuyXGetY,
		BuyProducts:          dbtypes.UUIDArray{croissant},
		BuyProductsQuantity:  3,
		CustomerGetProducts:  dbtypes.UUIDArray{croissant},
		CustomerGetsQuantity: 1,
		CustomerGetsType:     enums.CustomerGetsFree,
	})
	_, err := f.svc.Apply(ctx, userID, c.Code)
	requireMessage(t, err, "Offer will be applicable after adding 2 more product.")

	stored, err := f.carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, stored.AppliedCouponID)
}

func TestUsageCeilingRejectsEveryUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bread := f.variant(t, "12")
	first := f.user(t, enums.UserRoleBakery)
	second := f.user(t, enums.UserRoleBakery)
	f.add(t, first, bread, 1)
	f.add(t, second, bread, 1)

	c := f.coupon(t, models.Coupon{
		CouponType:           enums.CouponTypeAmountOffOrder,
		DiscountType:         enums.DiscountTypeAmount,
		DiscountValue:        decimal.NewFromInt(2),
		MaximumDiscountUsage: enums.UsageLimitDiscountTimes,
		MaximumUsageValue:    1,
	})

	_, err := f.svc.Apply(ctx, first, c.Code)
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, second, c.Code)
	requireMessage(t, err, "This coupon can no longer be used.")
	// the rejected attempt is still counted
	require.Equal(t, 2, f.reload(t, c.ID).UsageCount)

	third := f.user(t, enums.UserRoleBakery)
	f.add(t, third, bread, 1)
	_, err = f.svc.Apply(ctx, third, c.Code)
	requireMessage(t, err, "This coupon can no longer be used.")
}

func TestPerCustomerLimitIgnoresApplyAndRevert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	f.add(t, userID, f.variant(t, "12"), 1)
	c := f.coupon(t, models.Coupon{
		CouponType:           enums.CouponTypeAmountOffOrder,
		DiscountType:         enums.DiscountTypeAmount,
		DiscountValue:        decimal.NewFromInt(2),
		MaximumDiscountUsage: enums.UsagePerCustomer,
		MaximumUsageValue:    1,
	})
	_, err := f.svc.Assign(ctx, c.ID, userID)
	require.NoError(t, err)

	_, err = f.svc.Apply(ctx, userID, c.Code)
	require.NoError(t, err)
	_, err = f.svc.Revert(ctx, userID)
	require.NoError(t, err)

	uc, err := f.repo.FindUserCoupon(ctx, userID, c.Code)
	require.NoError(t, err)
	require.Equal(t, 0, uc.MaximumUsage)

	again, err := f.svc.Apply(ctx, userID, c.Code)
	require.NoError(t, err)
	require.Equal(t, "Coupon applied successfully.", again.Message)
	requireMoney(t, "10", again.Cart.DiscountedPrice)
	require.Equal(t, 2, f.reload(t, c.ID).UsageCount)
}

func TestPerCustomerLimitRejectsExhaustedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bread := f.variant(t, "12")
	spent := f.user(t, enums.UserRoleBakery)
	fresh := f.user(t, enums.UserRoleBakery)
	f.add(t, spent, bread, 1)
	f.add(t, fresh, bread, 1)
	c := f.coupon(t, models.Coupon{
		CouponType:           enums.CouponTypeAmountOffOrder,
		DiscountType:         enums.DiscountTypeAmount,
		DiscountValue:        decimal.NewFromInt(2),
		MaximumDiscountUsage: enums.UsagePerCustomer,
		MaximumUsageValue:    1,
	})
	_, err := f.svc.Assign(ctx, c.ID, spent)
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, c.ID, fresh)
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.UserCoupon{}).
		Where("user_id = ? AND coupon_id = ?", spent, c.ID).
		UpdateColumn("maximum_usage", 1).Error)

	_, err = f.svc.Apply(ctx, spent, c.Code)
	requireMessage(t, err, "This coupon can no longer be used.")

	_, err = f.svc.Apply(ctx, fresh, c.Code)
	require.NoError(t, err)
}

func TestFreeShippingChecksPrimaryState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	f.add(t, userID, f.variant(t, "30"), 1)
	_, err := f.addresses.Create(ctx, userID, address.CreateInput{Line1: "Storgatan 2", City: "Stockholm", State: "Stockholm", ZipCode: "11122"})
	require.NoError(t, err)

	uppsalaOnly := f.coupon(t, models.Coupon{
		CouponType:          enums.CouponTypeFreeShipping,
		ShippingScope:       enums.ShippingScopeSpecificStates,
		States:              dbtypes.StringArray{"Uppsala"},
		ExcludeShippingRate: true,
	})
	_, err = f.svc.Apply(ctx, userID, uppsalaOnly.Code)
	requireMessage(t, err, "Free shipping is not available for this state.")
	stored, err := f.carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	requireMoney(t, "20", stored.ShippingCost)

	everywhere := f.coupon(t, models.Coupon{
		CouponType:          enums.CouponTypeFreeShipping,
		ShippingScope:       enums.ShippingScopeAllStates,
		ExcludeShippingRate: true,
	})
	applied, err := f.svc.Apply(ctx, userID, everywhere.Code)
	require.NoError(t, err)
	require.Equal(t, "Free shipping applied successfully.", applied.Message)
	requireMoney(t, "0", applied.Cart.ShippingCost)
	// 30 + 3 vat, no shipping
	requireMoney(t, "33", applied.Cart.TotalWithVAT)

	reverted, err := f.svc.Revert(ctx, userID)
	require.NoError(t, err)
	requireMoney(t, "0", reverted.Cart.ShippingCost)
}

func TestFreeShippingNeedsPrimaryAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	f.add(t, userID, f.variant(t, "30"), 1)
	c := f.coupon(t, models.Coupon{
		CouponType:          enums.CouponTypeFreeShipping,
		ShippingScope:       enums.ShippingScopeAllStates,
		ExcludeShippingRate: true,
	})
	_, err := f.svc.Apply(ctx, userID, c.Code)
	requireMessage(t, err, "No primary address found for the user.")
}

func TestApplyEligibilityAndWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	f.add(t, userID, f.variant(t, "12"), 1)

	_, err := f.svc.Apply(ctx, userID, "  ")
	requireMessage(t, err, "Coupon code is required.")

	_, err = f.svc.Apply(ctx, userID, "NOPE")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	requireMessage(t, err, "Invalid coupon code.")

	segment := f.coupon(t, models.Coupon{
		CouponType:          enums.CouponTypeAmountOffOrder,
		DiscountType:        enums.DiscountTypeAmount,
		DiscountValue:       decimal.NewFromInt(1),
		CustomerEligibility: enums.EligibilitySpecificCustomer,
	})
	_, err = f.svc.Apply(ctx, userID, segment.Code)
	requireMessage(t, err, "This coupon is not available for this user.")

	future := f.coupon(t, models.Coupon{
		CouponType:    enums.CouponTypeAmountOffOrder,
		DiscountType:  enums.DiscountTypeAmount,
		DiscountValue: decimal.NewFromInt(1),
	})
	require.NoError(t, f.conn.Model(&models.Coupon{}).Where("id = ?", future.ID).
		Update("starts_at", fixedNow.Add(48*time.Hour)).Error)
	_, err = f.svc.Apply(ctx, userID, future.Code)
	requireMessage(t, err, "This coupon is not active yet.")

	draft := f.coupon(t, models.Coupon{
		CouponType:    enums.CouponTypeAmountOffOrder,
		DiscountType:  enums.DiscountTypeAmount,
		DiscountValue: decimal.NewFromInt(1),
	})
	_, err = f.repo.SetFlags(ctx, []uuid.UUID{draft.ID}, false, false)
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, userID, draft.Code)
	requireMessage(t, err, "Invalid coupon code.")
}

func TestApplyMinimumRequirements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	f.add(t, userID, f.variant(t, "12"), 2)

	byAmount := f.coupon(t, models.Coupon{
		CouponType:                 enums.CouponTypeAmountOffOrder,
		DiscountType:               enums.DiscountTypeAmount,
		DiscountValue:              decimal.NewFromInt(1),
		MinimumPurchaseRequirement: enums.MinimumPurchase,
		MinimumPurchaseValue:       decimal.NewFromInt(100),
	})
	_, err := f.svc.Apply(ctx, userID, byAmount.Code)
	requireMessage(t, err, "Minimum purchase amount of 100.00 not met.")

	byItems := f.coupon(t, models.Coupon{
		CouponType:                 enums.CouponTypeAmountOffOrder,
		DiscountType:               enums.DiscountTypeAmount,
		DiscountValue:              decimal.NewFromInt(1),
		MinimumPurchaseRequirement: enums.MinimumItems,
		MinimumItemValue:           5,
	})
	_, err = f.svc.Apply(ctx, userID, byItems.Code)
	requireMessage(t, err, "Minimum quantity of 5 items not met.")
}

func TestApplyEmptyCart(t *testing.T) {
	f := newFixture(t)
	userID := f.user(t, enums.UserRoleBakery)
	c := f.coupon(t, models.Coupon{
		CouponType:    enums.CouponTypeAmountOffOrder,
		DiscountType:  enums.DiscountTypeAmount,
		DiscountValue: decimal.NewFromInt(1),
	})
	_, err := f.svc.Apply(context.Background(), userID, c.Code)
	requireMessage(t, err, "Your cart is empty.")
}

func TestApplyingAnotherCouponReplacesTheFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	f.add(t, userID, f.variant(t, "50"), 1)

	flat := f.coupon(t, models.Coupon{
		CouponType:    enums.CouponTypeAmountOffOrder,
		DiscountType:  enums.DiscountTypeAmount,
		DiscountValue: decimal.NewFromInt(5),
	})
	pct := f.coupon(t, models.Coupon{
		CouponType:    enums.CouponTypeAmountOffOrder,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
	})

	_, err := f.svc.Apply(ctx, userID, flat.Code)
	require.NoError(t, err)
	res, err := f.svc.Apply(ctx, userID, pct.Code)
	require.NoError(t, err)
	require.Equal(t, pct.Code, *res.Cart.CouponCode)
	requireMoney(t, "45", res.Cart.DiscountedPrice)
}

func TestRevertWithoutCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)

	_, err := f.svc.Revert(ctx, userID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	f.add(t, userID, f.variant(t, "5"), 1)
	_, err = f.svc.Revert(ctx, userID)
	requireMessage(t, err, "No coupon is currently applied to the cart.")
}

func TestRedeemDecrementsWhileAboveOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	c := f.coupon(t, models.Coupon{
		CouponType:    enums.CouponTypeAmountOffOrder,
		DiscountType:  enums.DiscountTypeAmount,
		DiscountValue: decimal.NewFromInt(1),
		UsageCount:    2,
	})
	_, err := f.svc.Assign(ctx, c.ID, userID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Redeem(ctx, userID, c.Code))
	require.Equal(t, 1, f.reload(t, c.ID).UsageCount)

	uc, err := f.repo.FindUserCoupon(ctx, userID, c.Code)
	require.NoError(t, err)
	require.True(t, uc.Redeemed)
	require.NotNil(t, uc.RedemptionDate)
	require.Equal(t, 1, uc.MaximumUsage)

	err = f.svc.Redeem(ctx, userID, c.Code)
	requireMessage(t, err, "Coupon has already been redeemed.")
	require.Equal(t, 1, f.reload(t, c.ID).UsageCount)

	err = f.svc.Redeem(ctx, userID, "MISSING")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRedeemedUserCouponCannotBeApplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	f.add(t, userID, f.variant(t, "12"), 1)
	c := f.coupon(t, models.Coupon{
		CouponType:    enums.CouponTypeAmountOffOrder,
		DiscountType:  enums.DiscountTypeAmount,
		DiscountValue: decimal.NewFromInt(1),
	})
	_, err := f.svc.Assign(ctx, c.ID, userID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Redeem(ctx, userID, c.Code))

	_, err = f.svc.Apply(ctx, userID, c.Code)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	requireMessage(t, err, "Coupon has already been redeemed.")
}

func TestMineListsUsableCoupons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, enums.UserRoleBakery)
	live := f.coupon(t, models.Coupon{CouponType: enums.CouponTypeFreeShipping, ShippingScope: enums.ShippingScopeAllStates})
	expired := f.coupon(t, models.Coupon{CouponType: enums.CouponTypeFreeShipping, ShippingScope: enums.ShippingScopeAllStates})
	require.NoError(t, f.conn.Model(&models.Coupon{}).Where("id = ?", expired.ID).Update("ends_at", fixedNow.Add(-time.Hour)).Error)

	for _, id := range []uuid.UUID{live.ID, expired.ID} {
		_, err := f.svc.Assign(ctx, id, userID)
		require.NoError(t, err)
	}
	_, err := f.svc.Assign(ctx, live.ID, userID)
	requireMessage(t, err, "Coupon already assigned to the user.")

	mine, err := f.svc.Mine(ctx, userID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	require.Equal(t, live.Code, mine.Items[0].Code)
	require.EqualValues(t, 1, mine.Meta.Total)
}
