package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	clock := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	rl.now = func() time.Time { return clock }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Error("third request within the minute should be limited")
	}
	if !rl.Allow("b") {
		t.Error("other clients are counted separately")
	}

	clock = clock.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("a new window should reset the count")
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	clock := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerMinute: 5, StaleAfter: 10 * time.Minute})
	rl.now = func() time.Time { return clock }

	rl.Allow("old")
	clock = clock.Add(11 * time.Minute)
	rl.Allow("fresh")

	if n := rl.cleanupStaleEntries(); n != 1 {
		t.Errorf("cleanupStaleEntries() = %d, want 1", n)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients() = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_MiddlewareOnlyLimitsListedMethods(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	ip := func(*http.Request) string { return "client" }
	h := rl.Middleware(ip, nil, http.MethodPost)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := func(method string) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/api/transactions/gold", nil))
		return rr.Code
	}

	if codes(http.MethodPost) != http.StatusNoContent {
		t.Fatal("first POST should pass")
	}
	if got := codes(http.MethodPost); got != http.StatusTooManyRequests {
		t.Errorf("second POST = %d, want 429", got)
	}
	if got := codes(http.MethodGet); got != http.StatusNoContent {
		t.Errorf("GET should not be limited, got %d", got)
	}
}
