package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crumbworks/bakery-backend/api/middleware"
	"github.com/crumbworks/bakery-backend/internal/cart"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubCartService struct {
	cart.Service
	owner    cart.Owner
	quantity int
	zip      string
	calls    int
	err      error
}

func (s *stubCartService) view() (*cart.CartView, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &cart.CartView{ID: uuid.New(), TotalPrice: decimal.NewFromInt(12)}, nil
}

func (s *stubCartService) Get(_ context.Context, owner cart.Owner) (*cart.CartView, error) {
	s.owner = owner
	return s.view()
}

func (s *stubCartService) AddItem(_ context.Context, owner cart.Owner, _ uuid.UUID, quantity int) (*cart.CartView, error) {
	s.owner = owner
	s.quantity = quantity
	return s.view()
}

func (s *stubCartService) SetItemQuantity(_ context.Context, owner cart.Owner, _ uuid.UUID, quantity int) (*cart.CartView, error) {
	s.owner = owner
	s.quantity = quantity
	return s.view()
}

func (s *stubCartService) Summary(_ context.Context, owner cart.Owner, zip string) (*cart.CartView, error) {
	s.owner = owner
	s.zip = zip
	return s.view()
}

func (s *stubCartService) Reorder(context.Context, uuid.UUID, uuid.UUID) (*cart.CartView, error) {
	return s.view()
}

func TestCartGetUsesAnonymousSession(t *testing.T) {
	svc := &stubCartService{}
	req := newRequest(t, http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
	resp := httptest.NewRecorder()

	CartGet(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.owner.SessionID != "sess-1" || svc.owner.UserID != nil {
		t.Fatalf("unexpected owner %+v", svc.owner)
	}
	var view cart.CartView
	decodeData(t, resp, &view)
	if !view.TotalPrice.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("unexpected total %s", view.TotalPrice)
	}
}

func TestCartGetPrefersUser(t *testing.T) {
	svc := &stubCartService{}
	userID := uuid.New()
	req := asUser(newRequest(t, http.MethodGet, "/api/v1/cart", nil), userID)
	req = req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))

	CartGet(svc, nil).ServeHTTP(httptest.NewRecorder(), req)

	if svc.owner.UserID == nil || *svc.owner.UserID != userID || svc.owner.SessionID != "" {
		t.Fatalf("unexpected owner %+v", svc.owner)
	}
}

func TestCartRequiresOwner(t *testing.T) {
	svc := &stubCartService{}
	resp := httptest.NewRecorder()

	CartGet(svc, nil).ServeHTTP(resp, newRequest(t, http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatal("service should not be called")
	}
}

func TestCartAddItemValidatesQuantity(t *testing.T) {
	svc := &stubCartService{}
	req := asUser(newRequest(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"variant_id": uuid.NewString(),
		"quantity":   0,
	}), uuid.New())
	resp := httptest.NewRecorder()

	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatal("service should not be called")
	}
}

func TestCartAddItemSurfacesCapMessage(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeValidation, "You can only order a maximum of 10 items per product.")}
	req := asUser(newRequest(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"variant_id": uuid.NewString(),
		"quantity":   11,
	}), uuid.New())
	resp := httptest.NewRecorder()

	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if got := decodeError(t, resp).Message; got != "You can only order a maximum of 10 items per product." {
		t.Fatalf("unexpected message %q", got)
	}
	if svc.quantity != 11 {
		t.Fatalf("expected quantity 11 got %d", svc.quantity)
	}
}

func TestCartSetItemQuantityAcceptsZero(t *testing.T) {
	svc := &stubCartService{quantity: -1}
	req := asUser(newRequest(t, http.MethodPut, "/api/v1/cart/items/x", map[string]any{"quantity": 0}), uuid.New())
	req = withParams(req, map[string]string{"itemId": uuid.NewString()})
	resp := httptest.NewRecorder()

	CartSetItemQuantity(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.quantity != 0 {
		t.Fatalf("expected quantity 0 got %d", svc.quantity)
	}
}

func TestCartSetItemQuantityRejectsBadItemID(t *testing.T) {
	svc := &stubCartService{}
	req := asUser(newRequest(t, http.MethodPut, "/api/v1/cart/items/x", map[string]any{"quantity": 2}), uuid.New())
	req = withParams(req, map[string]string{"itemId": "nope"})
	resp := httptest.NewRecorder()

	CartSetItemQuantity(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartSummaryBodyIsOptional(t *testing.T) {
	svc := &stubCartService{zip: "unset"}
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/summary", nil), uuid.New())

	CartSummary(svc, nil).ServeHTTP(httptest.NewRecorder(), req)
	if svc.zip != "" {
		t.Fatalf("expected empty zip got %q", svc.zip)
	}

	req = asUser(newRequest(t, http.MethodPost, "/api/v1/cart/summary", map[string]string{"delivery_zip": "10001"}), uuid.New())
	CartSummary(svc, nil).ServeHTTP(httptest.NewRecorder(), req)
	if svc.zip != "10001" {
		t.Fatalf("expected zip 10001 got %q", svc.zip)
	}
}

func TestCartReorderRequiresUser(t *testing.T) {
	svc := &stubCartService{}
	req := newRequest(t, http.MethodPost, "/api/v1/cart/reorder/x", nil)
	req = req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
	req = withParams(req, map[string]string{"orderId": uuid.NewString()})
	resp := httptest.NewRecorder()

	CartReorder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartNilService(t *testing.T) {
	resp := httptest.NewRecorder()
	CartGet(nil, nil).ServeHTTP(resp, newRequest(t, http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
