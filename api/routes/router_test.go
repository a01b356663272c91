package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crumbworks/bakery-backend/internal/cart"
	"github.com/crumbworks/bakery-backend/internal/checkout"
	"github.com/crumbworks/bakery-backend/internal/coupon"
	pkgAuth "github.com/crumbworks/bakery-backend/pkg/auth"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubCartSessions struct{}

func (stubCartSessions) Mint(context.Context) (string, error) { return "minted-session", nil }

func (stubCartSessions) Touch(context.Context, string) error { return nil }

type stubCart struct {
	cart.Service
	owner cart.Owner
}

func (s *stubCart) Get(_ context.Context, owner cart.Owner) (*cart.CartView, error) {
	s.owner = owner
	return &cart.CartView{ID: uuid.New()}, nil
}

type stubCoupons struct {
	coupon.Service
	listed bool
}

func (s *stubCoupons) List(_ context.Context, input coupon.ListInput) (*coupon.CouponList, error) {
	s.listed = true
	return &coupon.CouponList{Meta: pagination.NewMeta(input.Pagination, 0)}, nil
}

type stubCheckout struct{ calls int }

func (s *stubCheckout) Execute(context.Context, uuid.UUID, checkout.Input) (*checkout.Result, error) {
	s.calls++
	return &checkout.Result{Accepted: true}, nil
}

type memoryIdempotency struct{ data map[string]string }

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "bakery", ExpirationMinutes: 10},
	}
}

func testServices() (Services, *stubCart, *stubCoupons, *stubCheckout) {
	c := &stubCart{}
	cp := &stubCoupons{}
	co := &stubCheckout{}
	return Services{
		DB:           stubPinger{},
		Redis:        stubPinger{},
		Sessions:     stubSessionChecker{},
		CartSessions: stubCartSessions{},
		Idempotency:  &memoryIdempotency{data: map[string]string{}},
		Cart:         c,
		Coupons:      cp,
		Checkout:     co,
	}, c, cp, co
}

func newTestRouter(svc Services) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(testConfig(), logg, svc)
}

func buildToken(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	svc, _, _, _ := testServices()
	resp := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestBakeryRoutesRequireToken(t *testing.T) {
	svc, _, _, _ := testServices()
	resp := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/coupons/mine", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	svc, _, coupons, _ := testServices()
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/coupons", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, enums.UserRoleBakery))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bakery user got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/coupons", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !coupons.listed {
		t.Fatalf("expected admin list to succeed, got %d", resp.Code)
	}
}

func TestAnonymousCartGetsSession(t *testing.T) {
	svc, carts, _, _ := testServices()
	resp := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("X-Cart-Session"); got != "minted-session" {
		t.Fatalf("expected minted session header, got %q", got)
	}
	if carts.owner.SessionID != "minted-session" {
		t.Fatalf("unexpected owner %+v", carts.owner)
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	svc, _, _, checkouts := testServices()
	router := newTestRouter(svc)
	token := buildToken(t, enums.UserRoleBakery)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest || checkouts.calls != 0 {
		t.Fatalf("expected 400 without key, got %d calls=%d", resp.Code, checkouts.calls)
	}

	for i := 0; i < 2; i++ {
		req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "order-1")
		resp = httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d", i, resp.Code)
		}
	}
	if checkouts.calls != 1 {
		t.Fatalf("expected replay to skip checkout, got %d calls", checkouts.calls)
	}
}
