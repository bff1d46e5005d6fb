package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/raka-dev/backend-guru/internal/booking"
	"github.com/raka-dev/backend-guru/internal/config"
	"github.com/raka-dev/backend-guru/internal/listing"
	"github.com/raka-dev/backend-guru/internal/obs"
	"github.com/raka-dev/backend-guru/internal/pricing"
	"github.com/raka-dev/backend-guru/internal/tasks"
	"github.com/raka-dev/backend-guru/internal/trip"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "guru")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	listingService, err := listing.NewService(listing.ServiceConfig{
		Repo:         listing.PGRepo{Pool: pool},
		Currency:     cfg.CurrencyCode,
		DefaultLimit: cfg.ListingDefaultLimit,
		MaxLimit:     cfg.ListingMaxLimit,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise listing service")
	}

	engine := pricing.NewEngine(pricing.Config{
		Unit:                  booking.Unit(cfg.BookingUnit),
		ProviderCommissionPct: decimal.NewFromFloat(cfg.ProviderCommissionPct),
		CustomerCommissionPct: decimal.NewFromFloat(cfg.CustomerCommissionPct),
		MaxItems:              cfg.MaxLineItems,
	})

	tripService, err := trip.NewService(trip.ServiceConfig{
		Repo:        trip.PGRepo{Pool: pool},
		Listings:    listingService,
		Engine:      engine,
		ExpireAfter: cfg.BookingExpireAfter,
		Logger:      &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise booking service")
	}

	taskRedis, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for tasks")
	}
	srv := asynq.NewServer(taskRedis, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 10),
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingExpire, trip.NewExpireHandler(tripService, &logger))

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	logger.Info().Msg("worker starting")
	if err := srv.Run(mux); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(dialCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
