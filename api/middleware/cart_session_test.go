package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
)

type stubCartSessions struct {
	known   map[string]bool
	minted  int
	mintErr error
}

func (s *stubCartSessions) Mint(context.Context) (string, error) {
	if s.mintErr != nil {
		return "", s.mintErr
	}
	s.minted++
	id := "minted-session"
	s.known[id] = true
	return id, nil
}

func (s *stubCartSessions) Touch(_ context.Context, id string) error {
	if !s.known[id] {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid cart session.")
	}
	return nil
}

func TestCartSessionMintsWhenMissing(t *testing.T) {
	sessions := &stubCartSessions{known: map[string]bool{}}
	var seen context.Context
	handler := CartSession(sessions, nil)(captureContext(&seen))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if sessions.minted != 1 {
		t.Fatalf("expected one minted session, got %d", sessions.minted)
	}
	if got := resp.Header().Get(CartSessionHeader); got != "minted-session" {
		t.Fatalf("expected session header, got %q", got)
	}
	if CartSessionFromContext(seen) != "minted-session" {
		t.Fatalf("session missing from context")
	}
}

func TestCartSessionRejectsUnknownID(t *testing.T) {
	sessions := &stubCartSessions{known: map[string]bool{}}
	var seen context.Context
	handler := CartSession(sessions, nil)(captureContext(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, "stale")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if seen != nil {
		t.Fatal("handler should not run")
	}
}

func TestCartSessionFailsWhenSessionCannotBeRegistered(t *testing.T) {
	sessions := &stubCartSessions{
		known:   map[string]bool{},
		mintErr: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "register cart session"),
	}
	var seen context.Context
	handler := CartSession(sessions, nil)(captureContext(&seen))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if got := resp.Header().Get(CartSessionHeader); got != "" {
		t.Fatalf("expected no session header for an unregistered id, got %q", got)
	}
	if seen != nil {
		t.Fatal("handler should not run")
	}
}

func TestCartSessionSkipsAuthenticatedUsers(t *testing.T) {
	sessions := &stubCartSessions{known: map[string]bool{}}
	var seen context.Context
	handler := CartSession(sessions, nil)(captureContext(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if sessions.minted != 0 {
		t.Fatal("authenticated requests must not mint sessions")
	}
	if CartSessionFromContext(seen) != "" {
		t.Fatal("unexpected cart session on authenticated request")
	}
}
