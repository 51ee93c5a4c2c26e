package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/citybeat-app/server/internal/config"
)

func rateLimitedHandler(limiter *RateLimiter, tier RateLimitTier) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return limiter.Tier(tier)(inner)
}

func doRequest(handler http.Handler, path, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitEnforced(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 2})
	defer limiter.Stop()
	handler := rateLimitedHandler(limiter, TierPublic)

	for i := 0; i < 2; i++ {
		if code := doRequest(handler, "/api/v1/venues", "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, code)
		}
	}
	if code := doRequest(handler, "/api/v1/venues", "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("over-limit request: status = %d, want 429", code)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 1})
	defer limiter.Stop()
	handler := rateLimitedHandler(limiter, TierPublic)

	if code := doRequest(handler, "/api/v1/venues", "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first client: status = %d", code)
	}
	if code := doRequest(handler, "/api/v1/venues", "10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("same IP, new port: status = %d, want 429", code)
	}
	if code := doRequest(handler, "/api/v1/venues", "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("different IP: status = %d, want 200", code)
	}
}

func TestRateLimitTiers(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 1, LoginPerMinute: 1})
	defer limiter.Stop()

	publicHandler := rateLimitedHandler(limiter, TierPublic)
	loginHandler := rateLimitedHandler(limiter, TierLogin)

	if code := doRequest(publicHandler, "/api/v1/venues", "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("public: status = %d", code)
	}
	// The login tier keeps its own bucket for the same client.
	if code := doRequest(loginHandler, "/api/v1/auth/login", "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("login: status = %d", code)
	}
}

func TestRateLimitLoginTierOnRoute(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 100, LoginPerMinute: 1})
	defer limiter.Stop()

	// Wired the way the router wires it: the login route carries the login
	// tier directly, so the aggressive limit applies regardless of how
	// generous the public tier is.
	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/auth/login", limiter.Tier(TierLogin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("first login attempt: status = %d", code)
	}
	for i := 0; i < 2; i++ {
		if code := post(); code != http.StatusTooManyRequests {
			t.Fatalf("login attempt %d: status = %d, want 429", i+2, code)
		}
	}
}

func TestRateLimitDisabledTier(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{})
	defer limiter.Stop()
	handler := rateLimitedHandler(limiter, TierPublic)

	for i := 0; i < 10; i++ {
		if code := doRequest(handler, "/api/v1/venues", "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, zero config must disable limiting", i, code)
		}
	}
}

func TestRateLimitRetryAfterHeader(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{PublicPerMinute: 1})
	defer limiter.Stop()
	handler := rateLimitedHandler(limiter, TierPublic)

	doRequest(handler, "/api/v1/venues", "10.0.0.1:1234")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q", got)
	}
}
