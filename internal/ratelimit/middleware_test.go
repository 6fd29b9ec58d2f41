package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMiddlewareEnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	lim, err := NewRedisLimiter(client, "2-M", "test-ratelimit")
	if err != nil {
		t.Fatalf("build limiter: %v", err)
	}
	handler := Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "static" },
	}

	wrapped := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req.Clone(req.Context()))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected request %d allowed, got %d", i, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req.Clone(req.Context()))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the limit is hit, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "2" {
		t.Fatalf("unexpected limit header %q", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on rejection")
	}
}

func TestMiddlewareFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	lim, err := NewRedisLimiter(client, "1-S", "test-ratelimit")
	if err != nil {
		t.Fatalf("build limiter: %v", err)
	}
	// Kill the backend after construction so the rate check itself errors.
	mr.Close()
	var limiterErr error
	handler := Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "key" },
		OnError: func(err error) { limiterErr = err },
	}

	wrapped := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/resource", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected request to pass on limiter error, got %d", rr.Code)
	}
	if limiterErr == nil {
		t.Fatal("expected OnError to receive the limiter error")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:41234"
	if ip := ClientIP(req); ip != "192.0.2.10" {
		t.Fatalf("unexpected ip %q", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 192.0.2.10")
	if ip := ClientIP(req); ip != "203.0.113.7" {
		t.Fatalf("unexpected forwarded ip %q", ip)
	}
}
