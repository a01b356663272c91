package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crumbworks/bakery-backend/api/routes"
	"github.com/crumbworks/bakery-backend/internal/address"
	"github.com/crumbworks/bakery-backend/internal/auth"
	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/internal/checkout"
	"github.com/crumbworks/bakery-backend/internal/coupon"
	"github.com/crumbworks/bakery-backend/internal/orders"
	product "github.com/crumbworks/bakery-backend/internal/products"
	"github.com/crumbworks/bakery-backend/internal/settings"
	"github.com/crumbworks/bakery-backend/internal/users"
	"github.com/crumbworks/bakery-backend/pkg/auth/session"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/db"
	"github.com/crumbworks/bakery-backend/pkg/instance"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/metrics"
	"github.com/crumbworks/bakery-backend/pkg/migrate"
	"github.com/crumbworks/bakery-backend/pkg/outbox"
	"github.com/crumbworks/bakery-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := buildServices(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry *prometheus.Registry) (routes.Services, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return routes.Services{}, err
	}

	settingsSvc, err := settings.NewService(settings.NewRepository(conn), redisClient, cfg.Pricing, logg)
	if err != nil {
		return routes.Services{}, err
	}
	addressSvc, err := address.NewService(dbClient, address.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	productRepo := product.NewRepository(conn)
	productSvc, err := product.NewService(productRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}
	ordersRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, emitter, logg)
	if err != nil {
		return routes.Services{}, err
	}

	pricer, err := cart.NewPricer(settingsSvc, addressSvc)
	if err != nil {
		return routes.Services{}, err
	}
	cartRepo := cart.NewRepository(conn)
	cartSessions := cart.NewSessions(redisClient, cfg.Pricing.CartSessionTTL)
	cartSvc, err := cart.NewService(cart.Deps{
		Tx:          dbClient,
		Repo:        cartRepo,
		Pricer:      pricer,
		Variants:    productRepo,
		Zips:        settingsSvc,
		Orders:      ordersRepo,
		Sessions:    cartSessions,
		MaxQuantity: cfg.Pricing.MaxQuantityPerItem,
		Logger:      logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	couponSvc, err := coupon.NewService(coupon.Deps{
		Tx:        dbClient,
		Repo:      coupon.NewRepository(conn),
		Carts:     cartRepo,
		Pricer:    pricer,
		Catalog:   productRepo,
		Addresses: addressSvc,
		Outbox:    emitter,
		Metrics:   metrics.NewCouponMetrics(registry),
		Logger:    logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	userRepo := users.NewRepository(conn)
	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Tx:        dbClient,
		Carts:     cartRepo,
		Pricer:    pricer,
		Orders:    ordersRepo,
		Users:     userRepo,
		Addresses: address.NewRepository(conn),
		Outbox:    emitter,
		Location:  cfg.App.Location(),
		Logger:    logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Carts:          cartSvc,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	registerSvc, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Tx:             dbClient,
		Users:          userRepo,
		Outbox:         emitter,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		DB:           dbClient,
		Redis:        redisClient,
		Sessions:     sessionManager,
		CartSessions: cartSessions,
		RateLimiter:  redisClient,
		Idempotency:  redisClient,
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		Auth:      authSvc,
		Register:  registerSvc,
		Cart:      cartSvc,
		Coupons:   couponSvc,
		Checkout:  checkoutSvc,
		Orders:    ordersSvc,
		Addresses: addressSvc,
		Products:  productSvc,
		Settings:  settingsSvc,
	}, nil
}
