package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/db/dbtest"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type memoryCache struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryCache) CacheKey(name string) string {
	return "test:cache:" + name
}

func defaultPricing() config.PricingConfig {
	return config.PricingConfig{
		VATPercentage:    "20",
		PlatformFee:      "5",
		PackingFee:       "5",
		ShippingCharges:  "20",
		ConfigTTL:        5 * time.Minute,
		OrderAcceptFrom:  "06:00",
		OrderAcceptUntil: "14:00",
	}
}

func newTestService(t *testing.T, cache cacheStore) (*Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, cache, defaultPricing(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestPricingConfigFallsBackToEnvDefaults(t *testing.T) {
	svc, _ := newTestService(t, nil)

	cfg, err := svc.PricingConfig(context.Background())
	if err != nil {
		t.Fatalf("pricing config: %v", err)
	}
	if !cfg.VATPercentage.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected vat 20, got %s", cfg.VATPercentage)
	}
	if cfg.AcceptFrom.String() != "06:00" || cfg.AcceptUntil.String() != "14:00" {
		t.Fatalf("unexpected window %s-%s", cfg.AcceptFrom, cfg.AcceptUntil)
	}
}

func TestPricingConfigUsesLatestRowAndCaches(t *testing.T) {
	cache := newMemoryCache()
	svc, repo := newTestService(t, cache)
	ctx := context.Background()

	older := &models.AdminConfiguration{
		VATPercentage:     decimal.NewFromInt(12),
		ShippingCharges:   decimal.NewFromInt(10),
		PlatformFee:       decimal.NewFromInt(1),
		PackingFee:        decimal.NewFromInt(1),
		OrderAcceptTime:   "07:00",
		OrderRestrictTime: "13:00",
		CreatedAt:         time.Now().Add(-time.Hour),
	}
	newer := &models.AdminConfiguration{
		VATPercentage:     decimal.NewFromInt(25),
		ShippingCharges:   decimal.NewFromInt(15),
		PlatformFee:       decimal.NewFromInt(2),
		PackingFee:        decimal.NewFromInt(3),
		OrderAcceptTime:   "05:30",
		OrderRestrictTime: "15:00",
		CreatedAt:         time.Now(),
	}
	for _, row := range []*models.AdminConfiguration{older, newer} {
		if err := repo.CreateConfiguration(ctx, row); err != nil {
			t.Fatalf("seed configuration: %v", err)
		}
	}

	cfg, err := svc.PricingConfig(ctx)
	if err != nil {
		t.Fatalf("pricing config: %v", err)
	}
	if !cfg.VATPercentage.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected latest vat 25, got %s", cfg.VATPercentage)
	}
	if cache.ttls["test:cache:pricing_config"] != 5*time.Minute {
		t.Fatalf("expected cached copy with ttl, got %v", cache.ttls)
	}

	cache.values["test:cache:pricing_config"] = `{"vat_percentage":"30","platform_fee":"0","packing_fee":"0","shipping_charges":"0","order_accept_time":"06:00","order_restrict_time":"14:00"}`
	cached, err := svc.PricingConfig(ctx)
	if err != nil {
		t.Fatalf("pricing config: %v", err)
	}
	if !cached.VATPercentage.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected cached vat 30, got %s", cached.VATPercentage)
	}
}

func TestUpdatePricingConfigInvalidatesCache(t *testing.T) {
	cache := newMemoryCache()
	svc, _ := newTestService(t, cache)
	ctx := context.Background()

	if _, err := svc.PricingConfig(ctx); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if _, ok := cache.values["test:cache:pricing_config"]; !ok {
		t.Fatal("expected primed cache")
	}

	_, err := svc.UpdatePricingConfig(ctx, UpdatePricingInput{
		VATPercentage:   decimal.NewFromInt(18),
		ShippingCharges: decimal.NewFromInt(25),
		PlatformFee:     decimal.Zero,
		PackingFee:      decimal.Zero,
		AcceptFrom:      "08:00",
		AcceptUntil:     "12:00",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := cache.values["test:cache:pricing_config"]; ok {
		t.Fatal("expected cache to be invalidated")
	}

	cfg, err := svc.PricingConfig(ctx)
	if err != nil {
		t.Fatalf("pricing config: %v", err)
	}
	if !cfg.VATPercentage.Equal(decimal.NewFromInt(18)) || cfg.AcceptUntil.String() != "12:00" {
		t.Fatalf("unexpected config after update: %+v", cfg)
	}
}

func TestUpdatePricingConfigRejectsBadWindow(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.UpdatePricingConfig(context.Background(), UpdatePricingInput{AcceptFrom: "25:00", AcceptUntil: "12:00"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPricingConfigIgnoresCacheErrors(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	svc, _ := newTestService(t, cache)

	if _, err := svc.PricingConfig(context.Background()); err != nil {
		t.Fatalf("expected db fallback, got %v", err)
	}
}

func TestZipCodeLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	row, err := svc.SaveZipCode(ctx, nil, ZipCodeInput{
		ZipCode:              "11122",
		City:                 "Stockholm",
		State:                "Stockholm",
		DeliveryAvailability: enums.DeliveryAvailable,
		DeliveryCost:         decimal.NewFromInt(49),
		MinOrderAmount:       decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("save zip: %v", err)
	}

	found, err := svc.ZipCode(ctx, " 11122 ")
	if err != nil {
		t.Fatalf("lookup zip: %v", err)
	}
	if found.ID != row.ID || !found.DeliveryCost.Equal(decimal.NewFromInt(49)) {
		t.Fatalf("unexpected zip row %+v", found)
	}

	if err := svc.DeleteZipCode(ctx, row.ID); err != nil {
		t.Fatalf("delete zip: %v", err)
	}
	if _, err := svc.ZipCode(ctx, "11122"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.DeleteZipCode(ctx, row.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestSaveZipCodeRejectsUnknownAvailability(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.SaveZipCode(context.Background(), nil, ZipCodeInput{ZipCode: "1", DeliveryAvailability: "sometimes"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
