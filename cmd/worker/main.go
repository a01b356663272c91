package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/crumbworks/bakery-backend/internal/address"
	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/internal/consumers/registration"
	"github.com/crumbworks/bakery-backend/internal/coupon"
	product "github.com/crumbworks/bakery-backend/internal/products"
	"github.com/crumbworks/bakery-backend/internal/settings"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/db"
	"github.com/crumbworks/bakery-backend/pkg/instance"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/migrate"
	"github.com/crumbworks/bakery-backend/pkg/outbox"
	"github.com/crumbworks/bakery-backend/pkg/outbox/idempotency"
	"github.com/crumbworks/bakery-backend/pkg/pubsub"
	"github.com/crumbworks/bakery-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	registrationConsumer, err := buildRegistrationConsumer(cfg, logg, dbClient, redisClient, pubsubClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build registration consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Logger: logg,
		DB:     dbClient,
		Redis:  redisClient,
		PubSub: pubsubClient,
		Consumers: map[string]consumer{
			registration.ConsumerName: registrationConsumer,
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"subscription": cfg.PubSub.UsersSubscription,
		"instance":     instance.ID(),
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

func buildRegistrationConsumer(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, pubsubClient *pubsub.Client) (*registration.Consumer, error) {
	conn := dbClient.DB()

	settingsSvc, err := settings.NewService(settings.NewRepository(conn), redisClient, cfg.Pricing, logg)
	if err != nil {
		return nil, err
	}
	addressSvc, err := address.NewService(dbClient, address.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	pricer, err := cart.NewPricer(settingsSvc, addressSvc)
	if err != nil {
		return nil, err
	}
	couponSvc, err := coupon.NewService(coupon.Deps{
		Tx:        dbClient,
		Repo:      coupon.NewRepository(conn),
		Carts:     cart.NewRepository(conn),
		Pricer:    pricer,
		Catalog:   product.NewRepository(conn),
		Addresses: addressSvc,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}

	guard, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		return nil, err
	}
	subscription := pubsubClient.UsersSubscription()
	if subscription == nil {
		return nil, errors.New("users subscription not configured")
	}
	return registration.NewConsumer(couponSvc, subscription, guard, logg)
}
