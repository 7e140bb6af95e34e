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
	"github.com/shareit/shareit-backend/pkg/config"
	"github.com/shareit/shareit-backend/pkg/instance"
	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/metrics"
	"github.com/shareit/shareit-backend/pkg/redis"
	"github.com/shareit/shareit-backend/pkg/upstream"
)

const serviceName = "gateway"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.LoadGateway()
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

	serverClient, err := upstream.NewClient(cfg.Upstream.ServerURL, upstream.WithTimeout(cfg.Upstream.Timeout))
	if err != nil {
		logg.Error(ctx, "failed to create upstream client", err)
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
	} else if cfg.RateLimit.Enabled {
		logg.Warn(ctx, "rate limiting enabled without redis, requests will not be limited")
	}

	router := routes.NewGatewayRouter(routes.GatewayDeps{
		Config:   cfg,
		Logger:   logg,
		Upstream: serverClient,
		Redis:    redisClient,
		Metrics:  metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, serviceName),
		Gatherer: prometheus.DefaultGatherer,
	})

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"server_url": cfg.Upstream.ServerURL,
		"instance":   instance.ID(),
	})
	logg.Info(ctx, "starting shareit gateway")

	if err := api.Serve(ctx, addr, router, logg); err != nil {
		logg.Error(ctx, "gateway stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "shareit gateway stopped")
}
