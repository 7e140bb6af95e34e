package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shareit/shareit-backend/api/controllers"
	"github.com/shareit/shareit-backend/api/controllers/gateway"
	"github.com/shareit/shareit-backend/api/middleware"
	"github.com/shareit/shareit-backend/pkg/config"
	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/metrics"
	pkgredis "github.com/shareit/shareit-backend/pkg/redis"
)

// GatewayDeps carries the gateway router's collaborators. Upstream doubles
// as the readiness check for the server. Redis, Metrics and Gatherer are
// optional.
type GatewayDeps struct {
	Config   *config.GatewayConfig
	Logger   *logger.Logger
	Upstream interface {
		gateway.Forwarder
		controllers.Pinger
	}
	Redis    *pkgredis.Client
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

// NewGatewayRouter builds the public validating router served by cmd/gateway.
func NewGatewayRouter(deps GatewayDeps) http.Handler {
	cfg, logg, fwd := deps.Config, deps.Logger, deps.Upstream

	var limiter pkgredis.RateLimiter
	if cfg.RateLimit.Enabled && deps.Redis != nil {
		limiter = deps.Redis
	}
	policy := middleware.RateLimitPolicy{
		Limit:  int64(cfg.RateLimit.Limit),
		Window: cfg.RateLimit.Window,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := []controllers.NamedPinger{{Name: "server", Pinger: fwd}}
	if deps.Redis != nil {
		readiness = append(readiness, controllers.NamedPinger{Name: "redis", Pinger: deps.Redis})
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, readiness...))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(policy, limiter, logg))

		r.Get("/users", gateway.UserList(fwd, logg))
		r.Post("/users", gateway.UserCreate(fwd, logg))
		r.Get("/users/{userId}", gateway.UserGet(fwd, logg))
		r.Patch("/users/{userId}", gateway.UserUpdate(fwd, logg))
		r.Delete("/users/{userId}", gateway.UserDelete(fwd, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.SharerUser(logg))

			r.Get("/items", gateway.ItemListOwned(fwd, logg))
			r.Post("/items", gateway.ItemCreate(fwd, logg))
			r.Get("/items/search", gateway.ItemSearch(fwd, logg))
			r.Get("/items/{itemId}", gateway.ItemGet(fwd, logg))
			r.Patch("/items/{itemId}", gateway.ItemUpdate(fwd, logg))
			r.Delete("/items/{itemId}", gateway.ItemDelete(fwd, logg))
			r.Post("/items/{itemId}/comment", gateway.ItemComment(fwd, logg))

			r.Post("/bookings", gateway.BookingCreate(fwd, deps.Now, logg))
			r.Get("/bookings", gateway.BookingList(fwd, "/bookings", logg))
			r.Get("/bookings/owner", gateway.BookingList(fwd, "/bookings/owner", logg))
			r.Get("/bookings/{bookingId}", gateway.BookingGet(fwd, logg))
			r.Patch("/bookings/{bookingId}", gateway.BookingDecide(fwd, logg))

			r.Post("/requests", gateway.RequestCreate(fwd, logg))
			r.Get("/requests", gateway.RequestListOwn(fwd, logg))
			r.Get("/requests/all", gateway.RequestListOthers(fwd, logg))
			r.Get("/requests/{requestId}", gateway.RequestGet(fwd, logg))
		})
	})

	return r
}
