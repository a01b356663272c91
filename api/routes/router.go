package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crumbworks/bakery-backend/api/controllers"
	"github.com/crumbworks/bakery-backend/api/middleware"
	"github.com/crumbworks/bakery-backend/internal/address"
	"github.com/crumbworks/bakery-backend/internal/auth"
	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/internal/checkout"
	"github.com/crumbworks/bakery-backend/internal/coupon"
	"github.com/crumbworks/bakery-backend/internal/orders"
	product "github.com/crumbworks/bakery-backend/internal/products"
	"github.com/crumbworks/bakery-backend/pkg/auth/session"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	pkgredis "github.com/crumbworks/bakery-backend/pkg/redis"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type cartSessions interface {
	Mint(ctx context.Context) (string, error)
	Touch(ctx context.Context, sessionID string) error
}

// Services holds everything the router hands to controllers and middleware.
// Nil stores disable the middleware that depends on them.
type Services struct {
	DB           controllers.Pinger
	Redis        controllers.Pinger
	Sessions     session.AccessSessionChecker
	CartSessions cartSessions
	RateLimiter  rateLimiter
	Idempotency  pkgredis.IdempotencyStore
	Metrics      http.Handler

	Auth      auth.Service
	Register  auth.RegisterService
	Cart      cart.Service
	Coupons   coupon.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Addresses address.Service
	Products  product.Service
	Settings  controllers.SettingsService
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	loginPolicy := middleware.AuthRateLimitPolicy{
		Name:       "login",
		Window:     cfg.AuthRateLimit.LoginWindow,
		IPLimit:    cfg.AuthRateLimit.LoginIPLimit,
		EmailLimit: cfg.AuthRateLimit.LoginEmailLimit,
	}
	registerPolicy := middleware.AuthRateLimitPolicy{
		Name:       "register",
		Window:     cfg.AuthRateLimit.RegisterWindow,
		IPLimit:    cfg.AuthRateLimit.RegisterIPLimit,
		EmailLimit: cfg.AuthRateLimit.RegisterEmailLimit,
	}
	limit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if svc.RateLimiter == nil {
			return passthrough
		}
		return middleware.AuthRateLimit(policy, svc.RateLimiter, logg)
	}
	idempotency := passthrough
	if svc.Idempotency != nil {
		idempotency = middleware.Idempotency(svc.Idempotency, logg)
	}
	cartSession := passthrough
	if svc.CartSessions != nil {
		cartSession = middleware.CartSession(svc.CartSessions, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, map[string]controllers.Pinger{
			"postgres": svc.DB,
			"redis":    svc.Redis,
		}))
	})
	if svc.Metrics != nil {
		r.Handle("/metrics", svc.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(svc.Products, logg, false))
		r.Get("/products/{variantId}", controllers.ProductGet(svc.Products, logg))
		r.Get("/states", controllers.StateList(svc.Addresses, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(limit(loginPolicy)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(limit(registerPolicy), idempotency).Post("/register", controllers.AuthRegister(svc.Register, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, svc.Sessions, logg)).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		// Guests shop with an X-Cart-Session id; signed-in users use their own cart.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, svc.Sessions, logg))
			r.Use(cartSession)
			r.Get("/cart", controllers.CartGet(svc.Cart, logg))
			r.Post("/cart/summary", controllers.CartSummary(svc.Cart, logg))
			r.Post("/cart/items", controllers.CartAddItem(svc.Cart, logg))
			r.Delete("/cart/items", controllers.CartClear(svc.Cart, logg))
			r.Put("/cart/items/{itemId}", controllers.CartSetItemQuantity(svc.Cart, logg))
			r.Delete("/cart/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, svc.Sessions, logg))
			r.Use(middleware.RequireRole(enums.UserRoleBakery, logg))
			r.Use(idempotency)

			r.Post("/cart/reorder/{orderId}", controllers.CartReorder(svc.Cart, logg))

			r.Route("/coupons", func(r chi.Router) {
				r.Post("/apply", controllers.CouponApply(svc.Coupons, logg))
				r.Delete("/apply", controllers.CouponRevert(svc.Coupons, logg))
				r.Get("/mine", controllers.CouponMine(svc.Coupons, logg))
				r.Post("/{code}/redeem", controllers.CouponRedeem(svc.Coupons, logg))
			})

			r.Post("/checkout", controllers.Checkout(svc.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrderGet(svc.Orders, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(svc.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svc.Addresses, logg))
				r.Post("/{id}/primary", controllers.AddressSetPrimary(svc.Addresses, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(limit(loginPolicy)).Post("/auth/login", controllers.AdminAuthLogin(svc.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, svc.Sessions, logg))
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Use(idempotency)

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminCouponList(svc.Coupons, logg))
				r.Post("/", controllers.AdminCouponCreate(svc.Coupons, logg))
				r.Get("/generate-code", controllers.AdminCouponGenerateCode(svc.Coupons, logg))
				r.Post("/bulk/copy", controllers.AdminCouponBulkCopy(svc.Coupons, logg))
				r.Post("/bulk/status", controllers.AdminCouponBulkStatus(svc.Coupons, logg))
				r.Post("/bulk/delete", controllers.AdminCouponBulkDelete(svc.Coupons, logg))
				r.Get("/{id}", controllers.AdminCouponGet(svc.Coupons, logg))
				r.Patch("/{id}", controllers.AdminCouponUpdate(svc.Coupons, logg))
				r.Post("/{id}/assign", controllers.AdminCouponAssign(svc.Coupons, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(svc.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderGet(svc.Orders, logg))
				r.Patch("/{orderId}", controllers.AdminOrderUpdateStatus(svc.Orders, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(svc.Products, logg, true))
				r.Post("/", controllers.AdminProductCreate(svc.Products, logg))
				r.Put("/{variantId}", controllers.AdminProductUpdate(svc.Products, logg))
			})

			r.Route("/settings/pricing", func(r chi.Router) {
				r.Get("/", controllers.AdminPricingGet(svc.Settings, logg))
				r.Put("/", controllers.AdminPricingUpdate(svc.Settings, logg))
			})

			r.Route("/zip-codes", func(r chi.Router) {
				r.Get("/", controllers.AdminZipCodeList(svc.Settings, logg))
				r.Post("/", controllers.AdminZipCodeSave(svc.Settings, logg, false))
				r.Put("/{id}", controllers.AdminZipCodeSave(svc.Settings, logg, true))
				r.Delete("/{id}", controllers.AdminZipCodeDelete(svc.Settings, logg))
			})
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
