package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/cassiomorais/qrpay/internal/infrastructure/config"
	"github.com/cassiomorais/qrpay/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/qrpay/internal/infrastructure/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Redis   *redis.Client
	Metrics *observability.Metrics
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("service", serviceName).Msg("Starting")

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracer(serviceName, cfg.InstanceID, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			go func() {
				<-ctx.Done()
				if err := shutdown(context.Background()); err != nil {
					logger.Warn().Err(err).Msg("Tracer shutdown failed")
				}
			}()
			logger.Info().Msg("Tracing enabled")
		}
	}

	metrics := observability.NewMetrics(metricsNamespace, nil)
	logger.Info().Msg("Metrics initialized")

	redisClient, err := infraRedis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Redis:   redisClient,
		Metrics: metrics,
	}, nil
}

func (a *App) Close() {
	a.Redis.Close()
}
