package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/crumbworks/bakery-backend/internal/address"
	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/internal/coupon"
	"github.com/crumbworks/bakery-backend/internal/cron"
	product "github.com/crumbworks/bakery-backend/internal/products"
	"github.com/crumbworks/bakery-backend/internal/settings"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/db"
	"github.com/crumbworks/bakery-backend/pkg/instance"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/metrics"
	"github.com/crumbworks/bakery-backend/pkg/migrate"
	"github.com/crumbworks/bakery-backend/pkg/outbox"
	"github.com/crumbworks/bakery-backend/pkg/redis"
)

const lockKeyFormat = "cron-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	jobs, err := buildJobs(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(cron.RedisLockParams{
		Client:   redisClient,
		Key:      redisClient.LockKey(fmt.Sprintf(lockKeyFormat, envOrLocal(cfg.App.Env))),
		TTL:      cfg.Cron.LockTTL,
		Instance: instance.ID(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        len(jobs),
		"instance":    instance.ID(),
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) ([]cron.Job, error) {
	conn := dbClient.DB()

	productRepo := product.NewRepository(conn)
	productSvc, err := product.NewService(productRepo, logg)
	if err != nil {
		return nil, err
	}
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
		Catalog:   productRepo,
		Addresses: addressSvc,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}

	saleWindows, err := cron.NewSaleWindowJob(logg, productSvc, cfg.App.Location())
	if err != nil {
		return nil, err
	}
	couponExpiry, err := cron.NewCouponExpiryJob(logg, couponSvc)
	if err != nil {
		return nil, err
	}
	cartCleanup, err := cron.NewCartSessionCleanupJob(cron.CartSessionCleanupJobParams{
		Logger: logg,
		DB:     dbClient,
		Carts: func(tx *gorm.DB) cron.IdleCartPurger {
			return cart.NewRepository(tx)
		},
		IdleDays: int(cfg.Cron.CartSessionIdle / (24 * time.Hour)),
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Events:        outbox.NewRepository(conn),
		DLQ:           outbox.NewDLQRepository(conn),
		RetentionDays: int(cfg.Outbox.Retention / (24 * time.Hour)),
		MinAttempts:   cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	return []cron.Job{saleWindows, couponExpiry, cartCleanup, retention}, nil
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
