/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for day aggregates and
// activity summaries served by the API.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/models"
)

// Default TTL values for different cache types
const (
	DefaultDayTTL      = 5 * time.Minute
	DefaultActivityTTL = 1 * time.Hour
)

// Key prefixes for Redis cache
const (
	KeyDay      = "campday:cache:day:"      // + day_id
	KeyActivity = "campday:cache:activity:" // + activity_id
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DayTTL      time.Duration
	ActivityTTL time.Duration

	// If true, disable caching on Redis errors
	DisableOnError bool
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		DayTTL:         DefaultDayTTL,
		ActivityTTL:    DefaultActivityTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance. When Redis is unreachable the cache runs
// disabled and every lookup is a miss.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	componentLogger := logger.With().Str("component", "cache").Logger()

	if cfg.RedisAddr == "" {
		componentLogger.Info().Msg("Redis not configured, running without caching")
		return &Cache{logger: componentLogger, config: cfg, disabled: true}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		componentLogger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{logger: componentLogger, config: cfg, disabled: true}, nil
	}

	componentLogger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")
	return &Cache{client: client, logger: componentLogger, config: cfg}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// GetDay retrieves a cached day aggregate.
func (c *Cache) GetDay(ctx context.Context, dayID string) (*models.Day, bool) {
	var day models.Day
	found, err := c.get(ctx, KeyDay+dayID, &day)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("day_id", dayID).Msg("day cache hit")
	return &day, true
}

// SetDay caches a day aggregate.
func (c *Cache) SetDay(ctx context.Context, day *models.Day) error {
	c.logger.Debug().Str("day_id", day.ID).Int("slots", len(day.Slots)).Msg("caching day")
	return c.set(ctx, KeyDay+day.ID, day, c.config.DayTTL)
}

// InvalidateDay removes a day aggregate from cache.
func (c *Cache) InvalidateDay(ctx context.Context, dayID string) error {
	c.logger.Debug().Str("day_id", dayID).Msg("invalidating day cache")
	return c.delete(ctx, KeyDay+dayID)
}

// GetActivity retrieves a cached activity summary.
func (c *Cache) GetActivity(ctx context.Context, activityID string) (*models.ActivitySummary, bool) {
	var summary models.ActivitySummary
	found, err := c.get(ctx, KeyActivity+activityID, &summary)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("activity_id", activityID).Msg("activity cache hit")
	return &summary, true
}

// SetActivity caches an activity summary.
func (c *Cache) SetActivity(ctx context.Context, summary models.ActivitySummary) error {
	c.logger.Debug().Str("activity_id", summary.ID).Msg("caching activity")
	return c.set(ctx, KeyActivity+summary.ID, summary, c.config.ActivityTTL)
}

// InvalidateActivity removes an activity summary from cache.
func (c *Cache) InvalidateActivity(ctx context.Context, activityID string) error {
	c.logger.Debug().Str("activity_id", activityID).Msg("invalidating activity cache")
	return c.delete(ctx, KeyActivity+activityID)
}
