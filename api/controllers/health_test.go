package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthReady("test", nil, map[string]Pinger{"postgres": stubPinger{}, "redis": stubPinger{}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Bakery-Env") != "test" {
		t.Fatal("expected env header")
	}
}

func TestHealthReadyDependencyDown(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthReady("test", nil, map[string]Pinger{"postgres": stubPinger{}, "redis": stubPinger{err: errors.New("dial tcp")}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
