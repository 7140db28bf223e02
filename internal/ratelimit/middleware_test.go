package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func leadCaptureHandler(t *testing.T, client *redis.Client, max int) http.Handler {
	t.Helper()
	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:leads:"},
		Config: Config{
			Key:    func(r *http.Request) string { return r.RemoteAddr },
			Window: time.Minute,
			Max:    max,
		},
	}
	return handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
}

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	counted := leadCaptureHandler(t, client, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads", nil)
	req.RemoteAddr = "203.0.113.9:51544"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		counted.ServeHTTP(rr, req.Clone(req.Context()))
		if rr.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, req.Clone(req.Context()))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once window is exhausted, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "2" {
		t.Fatalf("unexpected limit header: %q", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header: %q", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
	if !strings.Contains(rr.Body.String(), "RATE_LIMITED") {
		t.Fatalf("expected canonical error body, got %q", rr.Body.String())
	}

	// A different client IP gets its own counter.
	other := req.Clone(req.Context())
	other.RemoteAddr = "198.51.100.7:40210"
	rr = httptest.NewRecorder()
	counted.ServeHTTP(rr, other)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected other client to be allowed, got %d", rr.Code)
	}
}

func TestHandlerMiddlewareNilKeyPassesThrough(t *testing.T) {
	handler := Handler{Config: Config{Window: time.Minute, Max: 1}}
	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		counted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected passthrough without a key func, got %d", rr.Code)
		}
	}
}

func TestHandlerMiddlewareFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()

	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:leads:"},
		Config: Config{
			Key:    func(*http.Request) string { return "203.0.113.9" },
			Window: time.Minute,
			Max:    1,
		},
	}

	var observed error
	handler.OnError = func(err error) { observed = err }

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/leads", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected handler to proceed when redis is down, got %d", rr.Code)
	}
	if observed == nil {
		t.Fatal("expected OnError callback to receive the redis error")
	}
}
