package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RyzenMagsino/Carwash/internal/application"
	"github.com/RyzenMagsino/Carwash/pkg/config"
)

const statsKey = "carwash:booking:stats"

// RedisStatsCache caches the dashboard booking stats in Redis with a short
// TTL, so stat reads do not hit the database on every tab render.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatsCache creates a RedisStatsCache with the given TTL.
func NewRedisStatsCache(cfg config.RedisConfig, ttl time.Duration) *RedisStatsCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStatsCache{client: client, ttl: ttl}
}

// GetStats returns the cached stats, or (nil, nil) on a miss.
func (c *RedisStatsCache) GetStats(ctx context.Context) (*application.BookingStatsDTO, error) {
	data, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read stats from redis: %w", err)
	}

	var stats application.BookingStatsDTO
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode cached stats: %w", err)
	}
	return &stats, nil
}

// SetStats stores the stats with the cache TTL.
func (c *RedisStatsCache) SetStats(ctx context.Context, stats *application.BookingStatsDTO) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write stats to redis: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}
