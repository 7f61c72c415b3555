// Package cache owns the shared Redis connection used for browser
// credential storage and the navbar fragment cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xuxiaoleilancy/ai-codehub/internal/config"
)

const (
	StatusDisabled = "disabled"
	StatusOK       = "ok"
	StatusError    = "error"
)

// NewRedisClient returns nil without error when redis is disabled; callers
// then fall back to in-process storage.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// Status reports the reachability of client for health checks. A nil
// client is disabled, not failing.
func Status(ctx context.Context, client *redis.Client) (string, error) {
	if client == nil {
		return StatusDisabled, nil
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return StatusError, err
	}
	return StatusOK, nil
}
