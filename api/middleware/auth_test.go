package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/crumbworks/bakery-backend/pkg/auth"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/google/uuid"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "bakery", ExpirationMinutes: 15}

type stubSessionChecker struct {
	ok  bool
	err error
}

func (s stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func mintToken(t *testing.T, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Role: role, JTI: "session-1"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func captureContext(seen *context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.Context()
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthSeedsContext(t *testing.T) {
	userID := uuid.New()
	var seen context.Context
	handler := Auth(testJWT, stubSessionChecker{ok: true}, nil)(captureContext(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, userID, enums.UserRoleBakery))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if UserIDFromContext(seen) != userID.String() {
		t.Fatalf("unexpected user id %q", UserIDFromContext(seen))
	}
	if RoleFromContext(seen) != string(enums.UserRoleBakery) {
		t.Fatalf("unexpected role %q", RoleFromContext(seen))
	}
	if AccessIDFromContext(seen) != "session-1" {
		t.Fatalf("unexpected access id %q", AccessIDFromContext(seen))
	}
}

func TestAuthRejects(t *testing.T) {
	cases := map[string]struct {
		header  string
		checker stubSessionChecker
		status  int
	}{
		"missing header":    {header: "", checker: stubSessionChecker{ok: true}, status: http.StatusUnauthorized},
		"garbage token":     {header: "Bearer nope", checker: stubSessionChecker{ok: true}, status: http.StatusUnauthorized},
		"revoked session":   {header: "valid", checker: stubSessionChecker{ok: false}, status: http.StatusUnauthorized},
		"redis unreachable": {header: "valid", checker: stubSessionChecker{err: errors.New("down")}, status: http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var seen context.Context
			handler := Auth(testJWT, tc.checker, nil)(captureContext(&seen))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
			switch tc.header {
			case "":
			case "valid":
				req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New(), enums.UserRoleBakery))
			default:
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
			if seen != nil {
				t.Fatal("handler should not run")
			}
		})
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	var seen context.Context
	handler := OptionalAuth(testJWT, stubSessionChecker{ok: true}, nil)(captureContext(&seen))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if UserIDFromContext(seen) != "" {
		t.Fatal("expected anonymous context")
	}

	bad := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	bad.Header.Set("Authorization", "Bearer nope")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, bad)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", resp.Code)
	}
}

func TestRequireRole(t *testing.T) {
	var seen context.Context
	handler := RequireRole(enums.UserRoleAdmin, nil)(captureContext(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleBakery)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleAdmin)))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}
