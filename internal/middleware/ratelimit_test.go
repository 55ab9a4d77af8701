package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/jotter/internal/auth"
)

func TestRateLimiterAllowBurst(t *testing.T) {
	rl := NewRateLimiter(1, 5)
	now := time.Now()
	rl.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if !rl.Allow("key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("key") {
		t.Error("6th request should be denied")
	}
	if !rl.Allow("other") {
		t.Error("other keys have their own bucket")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	if !rl.Allow("key") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("key") {
		t.Fatal("bucket should be empty")
	}

	now = now.Add(150 * time.Millisecond)
	if !rl.Allow("key") {
		t.Error("bucket should refill after 100ms at 10 rps")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("stale")
	now = now.Add(10 * time.Minute)
	rl.Allow("active")

	rl.Cleanup(5 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["stale"]; ok {
		t.Error("stale entry should have been cleaned up")
	}
	if _, ok := rl.entries["active"]; !ok {
		t.Error("active entry should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	keyFunc := func(r *http.Request) string { return "test" }

	handler := RateLimit(rl, keyFunc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := RealIP(req); got != "10.0.0.1" {
		t.Errorf("RealIP = %q, want %q", got, "10.0.0.1")
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := RealIP(req); got != "203.0.113.5" {
		t.Errorf("RealIP = %q, want %q", got, "203.0.113.5")
	}

	req.Header.Set("CF-Connecting-IP", "198.51.100.7")
	if got := RealIP(req); got != "198.51.100.7" {
		t.Errorf("RealIP = %q, want %q", got, "198.51.100.7")
	}
}

func TestUserOrIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := UserOrIP(req); got != "ip:10.0.0.1" {
		t.Errorf("UserOrIP = %q", got)
	}
	req = req.WithContext(auth.WithAuth(context.Background(), auth.AuthContext{UserID: "u1"}))
	if got := UserOrIP(req); got != "user:u1" {
		t.Errorf("UserOrIP = %q", got)
	}
}
