package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shareit/shareit-backend/api/responses"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
	"github.com/shareit/shareit-backend/pkg/logger"
	pkgredis "github.com/shareit/shareit-backend/pkg/redis"
)

// RateLimitPolicy bounds requests per acting user within a fixed window.
type RateLimitPolicy struct {
	Limit  int64
	Window time.Duration
}

// RateLimit applies a fixed window limit keyed by the X-Sharer-User-Id header,
// falling back to the client IP for calls without one. Counter failures are
// logged and let the request through.
func RateLimit(policy RateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || policy.Limit <= 0 || policy.Window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := rateLimitScope(r)
			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, policy.Limit, policy.Window)
			if err != nil {
				logError(r.Context(), logg, "rate limit check failed", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := policy.Limit - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(policy.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("Too many requests, limit is %d per %s", policy.Limit, policy.Window)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitScope(r *http.Request) string {
	if raw := strings.TrimSpace(r.Header.Get(SharerUserHeader)); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return "user:" + strconv.FormatInt(id, 10)
		}
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
