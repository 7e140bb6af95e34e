package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shareit/shareit-backend/pkg/metrics"
)

// Metrics records request counts and latency by chi route pattern. The
// pattern is read after the handler runs so nested routers have resolved it.
// Raw paths are never used as labels.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			pattern := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				pattern = rctx.RoutePattern()
			}
			m.Observe(r.Method, pattern, rec.Status(), time.Since(start))
		})
	}
}
