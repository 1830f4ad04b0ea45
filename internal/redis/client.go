// Package redis wraps the go-redis client used for idempotency caching
// and readiness checks.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config holds connection parameters.
type Config struct {
	Addr              string
	Password          string
	DB                int
	ConnectRetries    int
	ConnectRetryDelay time.Duration
}

// NewClient connects to Redis, retrying the initial ping so the service
// survives a slower-starting Redis container.
func NewClient(ctx context.Context, cfg Config, logger zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", retries).
			Msg("redis not ready, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectRetryDelay):
		}
	}

	return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
}
