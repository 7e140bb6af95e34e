package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shareit/shareit-backend/api"
	"github.com/shareit/shareit-backend/api/routes"
	"github.com/shareit/shareit-backend/internal/bookings"
	"github.com/shareit/shareit-backend/internal/items"
	"github.com/shareit/shareit-backend/internal/requests"
	"github.com/shareit/shareit-backend/internal/users"
	"github.com/shareit/shareit-backend/pkg/config"
	"github.com/shareit/shareit-backend/pkg/db"
	"github.com/shareit/shareit-backend/pkg/instance"
	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/metrics"
	"github.com/shareit/shareit-backend/pkg/migrate"
	"github.com/shareit/shareit-backend/pkg/outbox"
	"github.com/shareit/shareit-backend/pkg/redis"
)

const serviceName = "server"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	deps, err := buildServices(dbClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}
	deps.Config = cfg
	deps.Logger = logg
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Metrics = metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, serviceName)
	deps.Gatherer = prometheus.DefaultGatherer

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"driver":   dbClient.Driver(),
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting shareit server")

	if err := api.Serve(ctx, addr, routes.NewServerRouter(deps), logg); err != nil {
		logg.Error(ctx, "server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "shareit server stopped")
}

func buildServices(dbClient *db.Client, logg *logger.Logger) (routes.ServerDeps, error) {
	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	itemsRepo := items.NewRepository(conn)
	bookingsRepo := bookings.NewRepository(conn)
	requestsRepo := requests.NewRepository(conn)

	usersSvc, err := users.NewService(usersRepo)
	if err != nil {
		return routes.ServerDeps{}, err
	}
	itemsSvc, err := items.NewService(items.ServiceParams{
		Repo:     itemsRepo,
		Users:    usersRepo,
		Bookings: bookingsRepo,
		Requests: requestsRepo,
	})
	if err != nil {
		return routes.ServerDeps{}, err
	}
	bookingsSvc, err := bookings.NewService(bookings.ServiceParams{
		Repo:   bookingsRepo,
		Users:  usersRepo,
		Items:  itemsRepo,
		Tx:     dbClient,
		Outbox: outbox.NewService(outbox.NewRepository(conn), logg),
	})
	if err != nil {
		return routes.ServerDeps{}, err
	}
	requestsSvc, err := requests.NewService(requestsRepo, usersRepo, itemsRepo)
	if err != nil {
		return routes.ServerDeps{}, err
	}

	return routes.ServerDeps{
		Users:    usersSvc,
		Items:    itemsSvc,
		Bookings: bookingsSvc,
		Requests: requestsSvc,
	}, nil
}
