package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareit/shareit-backend/pkg/config"
	pkgredis "github.com/shareit/shareit-backend/pkg/redis"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	h := RateLimit(RateLimitPolicy{Limit: 2, Window: time.Minute}, limiter, nil)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set(SharerUserHeader, "5")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, int64(3), limiter.counts["user:5"])
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limiter := &fakeLimiter{}
	h := RateLimit(RateLimitPolicy{Limit: 10, Window: time.Minute}, limiter, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	req.RemoteAddr = "10.0.0.9:4321"
	h.ServeHTTP(httptest.NewRecorder(), req)

	forwarded := httptest.NewRequest(http.MethodPost, "/users", nil)
	forwarded.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), forwarded)

	assert.Equal(t, int64(1), limiter.counts["ip:10.0.0.9"])
	assert.Equal(t, int64(1), limiter.counts["ip:203.0.113.7"])
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	h := RateLimit(RateLimitPolicy{Limit: 1, Window: time.Minute}, limiter, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabledWithoutPolicy(t *testing.T) {
	limiter := &fakeLimiter{}
	h := RateLimit(RateLimitPolicy{}, limiter, nil)(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bookings", nil))
	assert.Empty(t, limiter.counts)
}

func TestRateLimitWithRedis(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client, err := pkgredis.New(context.Background(), config.RedisConfig{Address: s.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()

	h := RateLimit(RateLimitPolicy{Limit: 1, Window: time.Minute}, client, nil)(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req.Header.Set(SharerUserHeader, "3")
	h.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/requests", nil)
	req.Header.Set(SharerUserHeader, "3")
	h.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "Too many requests")
}
