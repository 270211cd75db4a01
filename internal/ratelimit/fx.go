package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/config"
	"github.com/smallbiznis/foundr/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewPolicies),
	fx.Provide(NewStore),
	fx.Provide(provideLimiter),
)

// NewStore picks the counter backend. Redis is required when several replicas
// serve traffic; memory is only correct for a single process.
func NewStore(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, log *zap.Logger) (Store, error) {
	rl := cfg.RateLimit
	switch rl.Backend {
	case "", config.RateLimitBackendMemory:
		log.Info("rate limiter using in-memory store")
		return NewMemoryStore(clk), nil
	case config.RateLimitBackendRedis:
	default:
		return nil, fmt.Errorf("unsupported rate limit backend %q", rl.Backend)
	}

	addr := strings.TrimSpace(rl.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: rl.RedisPassword,
		DB:       rl.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			log.Info("rate limiter using redis store", zap.String("addr", addr))
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return NewRedisStore(client), nil
}

func provideLimiter(store Store, clk clock.Clock, m *metrics.Metrics) *Limiter {
	return NewLimiter(store, clk).WithMetrics(m)
}
