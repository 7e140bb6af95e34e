package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shareit/shareit-backend/api/controllers"
	"github.com/shareit/shareit-backend/api/middleware"
	"github.com/shareit/shareit-backend/internal/bookings"
	"github.com/shareit/shareit-backend/internal/items"
	"github.com/shareit/shareit-backend/internal/requests"
	"github.com/shareit/shareit-backend/internal/users"
	"github.com/shareit/shareit-backend/pkg/config"
	"github.com/shareit/shareit-backend/pkg/db"
	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/metrics"
	pkgredis "github.com/shareit/shareit-backend/pkg/redis"
)

// ServerDeps carries everything the server router wires into handlers.
// Redis, Metrics and Gatherer are optional.
type ServerDeps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *pkgredis.Client
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Users    users.Service
	Items    items.Service
	Bookings bookings.Service
	Requests requests.Service
}

// NewServerRouter builds the business API served by cmd/server.
func NewServerRouter(deps ServerDeps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := []controllers.NamedPinger{{Name: "db", Pinger: deps.DB}}
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

	var store pkgredis.IdempotencyStore
	if cfg.Idempotency.Enabled && deps.Redis != nil {
		store = deps.Redis
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(store, cfg.Idempotency.TTL, logg))

		r.Get("/users", controllers.UserList(deps.Users, logg))
		r.Post("/users", controllers.UserCreate(deps.Users, logg))
		r.Get("/users/{userId}", controllers.UserGet(deps.Users, logg))
		r.Patch("/users/{userId}", controllers.UserUpdate(deps.Users, logg))
		r.Delete("/users/{userId}", controllers.UserDelete(deps.Users, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.SharerUser(logg))

			r.Get("/items", controllers.ItemListOwned(deps.Items, logg))
			r.Post("/items", controllers.ItemCreate(deps.Items, logg))
			r.Get("/items/search", controllers.ItemSearch(deps.Items, logg))
			r.Get("/items/{itemId}", controllers.ItemGet(deps.Items, logg))
			r.Patch("/items/{itemId}", controllers.ItemUpdate(deps.Items, logg))
			r.Delete("/items/{itemId}", controllers.ItemDelete(deps.Items, logg))
			r.Post("/items/{itemId}/comment", controllers.ItemComment(deps.Items, logg))

			r.Post("/bookings", controllers.BookingCreate(deps.Bookings, logg))
			r.Get("/bookings", controllers.BookingList(deps.Bookings, bookings.RoleBooker, logg))
			r.Get("/bookings/owner", controllers.BookingList(deps.Bookings, bookings.RoleOwner, logg))
			r.Get("/bookings/{bookingId}", controllers.BookingGet(deps.Bookings, logg))
			r.Patch("/bookings/{bookingId}", controllers.BookingDecide(deps.Bookings, logg))

			r.Post("/requests", controllers.RequestCreate(deps.Requests, logg))
			r.Get("/requests", controllers.RequestListOwn(deps.Requests, logg))
			r.Get("/requests/all", controllers.RequestListOthers(deps.Requests, logg))
			r.Get("/requests/{requestId}", controllers.RequestGet(deps.Requests, logg))
		})
	})

	return r
}
