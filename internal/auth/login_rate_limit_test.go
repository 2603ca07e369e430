package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimiterAllowsUpToMax(t *testing.T) {
	limiter := NewLoginRateLimiter(3, time.Minute)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.allow("203.0.113.1", now)
		assert.True(t, allowed, "hit %d", i+1)
	}

	allowed, retryAfter := limiter.allow("203.0.113.1", now)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	// A different address is unaffected.
	allowed, _ = limiter.allow("203.0.113.2", now)
	assert.True(t, allowed)
}

func TestLoginRateLimiterWindowSlides(t *testing.T) {
	limiter := NewLoginRateLimiter(2, time.Minute)
	start := time.Now().UTC()

	limiter.allow("203.0.113.1", start)
	limiter.allow("203.0.113.1", start)

	allowed, _ := limiter.allow("203.0.113.1", start.Add(30*time.Second))
	assert.False(t, allowed)

	allowed, _ = limiter.allow("203.0.113.1", start.Add(61*time.Second))
	assert.True(t, allowed)
}

func TestLoginRateLimiterMiddleware(t *testing.T) {
	limiter := NewLoginRateLimiter(1, time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := limiter.Middleware(next)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "203.0.113.1:4000"

	first := httptest.NewRecorder()
	guarded.ServeHTTP(first, req)
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	guarded.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
