package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "stock:summary:"

// RedisSummaryCache caches medicine stock summaries in Redis. Entries are
// best effort: a miss or a Redis failure always falls back to the database
// row, and the TTL bounds staleness if an invalidation is ever lost.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache creates a summary cache from Redis configuration
func NewRedisSummaryCache(cfg *config.RedisConfig) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSummaryCache{client: client, ttl: cfg.SummaryTTL}, nil
}

// NewRedisSummaryCacheWithClient creates a cache over an existing client
func NewRedisSummaryCacheWithClient(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

// Get returns the cached summary, or nil on a miss
func (c *RedisSummaryCache) Get(ctx context.Context, medicineID uuid.UUID) (*inventory.MedicineStockSummary, error) {
	data, err := c.client.Get(ctx, summaryKeyPrefix+medicineID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read summary from cache: %w", err)
	}

	var summary inventory.MedicineStockSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		// A corrupt entry behaves like a miss; the caller repopulates it.
		return nil, nil
	}
	return &summary, nil
}

// Set stores a summary with the configured TTL
func (c *RedisSummaryCache) Set(ctx context.Context, summary *inventory.MedicineStockSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKeyPrefix+summary.MedicineID.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write summary to cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary for a medicine
func (c *RedisSummaryCache) Invalidate(ctx context.Context, medicineID uuid.UUID) error {
	if err := c.client.Del(ctx, summaryKeyPrefix+medicineID.String()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summary cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}
