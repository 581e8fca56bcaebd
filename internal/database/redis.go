package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/knowledge-base-api/internal/config"
	"github.com/rs/zerolog"
)

// NewRedis creates a Redis client for the token denylist. Returns nil when
// no address is configured; callers treat a nil client as "denylist off".
func NewRedis(cfg *config.RedisConfig, log zerolog.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Warn().Msg("REDIS_ADDR not set, token denylist disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Redis connection established")
	return client, nil
}
