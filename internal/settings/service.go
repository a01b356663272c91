package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crumbworks/bakery-backend/internal/pricing"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const pricingCacheName = "pricing_config"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(name string) string
}

type settingsRepository interface {
	LatestConfiguration(ctx context.Context) (*models.AdminConfiguration, error)
	CreateConfiguration(ctx context.Context, row *models.AdminConfiguration) error
	FindZipCode(ctx context.Context, zip string) (*models.ZipCodeConfig, error)
	FindZipCodeByID(ctx context.Context, id uuid.UUID) (*models.ZipCodeConfig, error)
	ListZipCodes(ctx context.Context) ([]models.ZipCodeConfig, error)
	SaveZipCode(ctx context.Context, row *models.ZipCodeConfig) error
	SoftDeleteZipCode(ctx context.Context, id uuid.UUID) (int64, error)
}

// Provider resolves the pricing configuration in effect for a request.
type Provider interface {
	PricingConfig(ctx context.Context) (pricing.Config, error)
}

// Service resolves pricing configuration and zip code delivery rules.
type Service struct {
	repo     settingsRepository
	cache    cacheStore
	ttl      time.Duration
	defaults pricing.Config
	logg     *logger.Logger
}

// NewService wires the settings service. cache may be nil, in which case every call reads the database.
func NewService(repo settingsRepository, cache cacheStore, cfg config.PricingConfig, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	defaults, err := DefaultsFromEnv(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		ttl:      cfg.ConfigTTL,
		defaults: defaults,
		logg:     logg,
	}, nil
}

// DefaultsFromEnv converts the env pricing settings into a pricing.Config.
func DefaultsFromEnv(cfg config.PricingConfig) (pricing.Config, error) {
	var out pricing.Config
	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"vat percentage", cfg.VATPercentage, &out.VATPercentage},
		{"platform fee", cfg.PlatformFee, &out.PlatformFee},
		{"packing fee", cfg.PackingFee, &out.PackingFee},
		{"shipping charges", cfg.ShippingCharges, &out.ShippingCharges},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return pricing.Config{}, fmt.Errorf("invalid %s %q: %w", f.name, f.value, err)
		}
		*f.dst = d
	}
	var err error
	if out.AcceptFrom, err = pricing.ParseTimeOfDay(cfg.OrderAcceptFrom); err != nil {
		return pricing.Config{}, err
	}
	if out.AcceptUntil, err = pricing.ParseTimeOfDay(cfg.OrderAcceptUntil); err != nil {
		return pricing.Config{}, err
	}
	return out, nil
}

// PricingConfig returns the cached configuration, the latest admin row, or the env defaults, in that order.
func (s *Service) PricingConfig(ctx context.Context) (pricing.Config, error) {
	if cfg, ok := s.readCache(ctx); ok {
		return cfg, nil
	}
	row, err := s.repo.LatestConfiguration(ctx)
	if err != nil {
		return pricing.Config{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing configuration")
	}
	cfg := s.defaults
	if row != nil {
		cfg, err = fromRow(row)
		if err != nil {
			return pricing.Config{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode pricing configuration")
		}
	}
	s.writeCache(ctx, cfg)
	return cfg, nil
}

// UpdatePricingInput carries an admin configuration change.
type UpdatePricingInput struct {
	VATPercentage   decimal.Decimal
	ShippingCharges decimal.Decimal
	PlatformFee     decimal.Decimal
	PackingFee      decimal.Decimal
	AcceptFrom      string
	AcceptUntil     string
}

// UpdatePricingConfig appends a configuration row and drops the cached copy.
func (s *Service) UpdatePricingConfig(ctx context.Context, input UpdatePricingInput) (pricing.Config, error) {
	from, err := pricing.ParseTimeOfDay(input.AcceptFrom)
	if err != nil {
		return pricing.Config{}, pkgerrors.New(pkgerrors.CodeValidation, "order accept time must be HH:MM")
	}
	until, err := pricing.ParseTimeOfDay(input.AcceptUntil)
	if err != nil {
		return pricing.Config{}, pkgerrors.New(pkgerrors.CodeValidation, "order restrict time must be HH:MM")
	}
	for _, v := range []decimal.Decimal{input.VATPercentage, input.ShippingCharges, input.PlatformFee, input.PackingFee} {
		if v.IsNegative() {
			return pricing.Config{}, pkgerrors.New(pkgerrors.CodeValidation, "pricing values must be non-negative")
		}
	}
	if input.VATPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return pricing.Config{}, pkgerrors.New(pkgerrors.CodeValidation, "vat percentage cannot exceed 100")
	}

	row := &models.AdminConfiguration{
		VATPercentage:     input.VATPercentage,
		ShippingCharges:   input.ShippingCharges,
		PlatformFee:       input.PlatformFee,
		PackingFee:        input.PackingFee,
		OrderAcceptTime:   from.String(),
		OrderRestrictTime: until.String(),
	}
	if err := s.repo.CreateConfiguration(ctx, row); err != nil {
		return pricing.Config{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save pricing configuration")
	}
	s.invalidate(ctx)

	cfg, _ := fromRow(row)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "vat_percentage", cfg.VATPercentage.String()), "settings.pricing_updated")
	}
	return cfg, nil
}

// ZipCode returns the delivery rule for zip.
func (s *Service) ZipCode(ctx context.Context, zip string) (*models.ZipCodeConfig, error) {
	row, err := s.repo.FindZipCode(ctx, zip)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Zip code not found.")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load zip code")
	}
	return row, nil
}

func (s *Service) ListZipCodes(ctx context.Context) ([]models.ZipCodeConfig, error) {
	rows, err := s.repo.ListZipCodes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list zip codes")
	}
	return rows, nil
}

// ZipCodeInput carries an admin zip code rule.
type ZipCodeInput struct {
	ZipCode              string
	City                 string
	State                string
	DeliveryAvailability enums.DeliveryAvailability
	DeliveryThreshold    decimal.Decimal
	DeliveryCost         decimal.Decimal
	MinOrderAmount       decimal.Decimal
}

// SaveZipCode creates a zip code rule, or updates the one identified by id.
func (s *Service) SaveZipCode(ctx context.Context, id *uuid.UUID, input ZipCodeInput) (*models.ZipCodeConfig, error) {
	if !input.DeliveryAvailability.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery availability")
	}
	row := &models.ZipCodeConfig{}
	if id != nil {
		existing, err := s.repo.FindZipCodeByID(ctx, *id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Zip code not found.")
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load zip code")
		}
		row = existing
	}
	row.ZipCode = input.ZipCode
	row.City = input.City
	row.State = input.State
	row.DeliveryAvailability = input.DeliveryAvailability
	row.DeliveryThreshold = input.DeliveryThreshold
	row.DeliveryCost = input.DeliveryCost
	row.MinOrderAmount = input.MinOrderAmount
	if err := s.repo.SaveZipCode(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save zip code")
	}
	return row, nil
}

func (s *Service) DeleteZipCode(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.SoftDeleteZipCode(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete zip code")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Zip code not found.")
	}
	return nil
}

func fromRow(row *models.AdminConfiguration) (pricing.Config, error) {
	from, err := pricing.ParseTimeOfDay(row.OrderAcceptTime)
	if err != nil {
		return pricing.Config{}, err
	}
	until, err := pricing.ParseTimeOfDay(row.OrderRestrictTime)
	if err != nil {
		return pricing.Config{}, err
	}
	return pricing.Config{
		VATPercentage:   row.VATPercentage,
		PlatformFee:     row.PlatformFee,
		PackingFee:      row.PackingFee,
		ShippingCharges: row.ShippingCharges,
		AcceptFrom:      from,
		AcceptUntil:     until,
	}, nil
}

func (s *Service) readCache(ctx context.Context) (pricing.Config, bool) {
	if s.cache == nil {
		return pricing.Config{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey(pricingCacheName))
	if err != nil || raw == "" {
		return pricing.Config{}, false
	}
	var cfg pricing.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.warn(ctx, "settings.cache_decode_failed", err)
		return pricing.Config{}, false
	}
	return cfg, true
}

func (s *Service) writeCache(ctx context.Context, cfg pricing.Config) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey(pricingCacheName), string(data), s.ttl); err != nil {
		s.warn(ctx, "settings.cache_write_failed", err)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.CacheKey(pricingCacheName)); err != nil {
		s.warn(ctx, "settings.cache_invalidate_failed", err)
	}
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
