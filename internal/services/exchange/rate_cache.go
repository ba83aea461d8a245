package exchange

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const rateKeyPrefix = "rates:"

// RedisRateCache keeps resolved rates in Redis for a fixed TTL
type RedisRateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRateCache creates a Redis backed rate cache
func NewRedisRateCache(client *redis.Client, ttl time.Duration) *RedisRateCache {
	return &RedisRateCache{client: client, ttl: ttl}
}

// Get returns the cached rate and whether it was present
func (c *RedisRateCache) Get(ctx context.Context, pair string) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, rateKeyPrefix+pair).Result()
	if err == redis.Nil {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	rate, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, err
	}
	return rate, true, nil
}

// Set caches rate for pair
func (c *RedisRateCache) Set(ctx context.Context, pair string, rate decimal.Decimal) error {
	return c.client.Set(ctx, rateKeyPrefix+pair, rate.String(), c.ttl).Err()
}

// Delete drops the cached rate for pair
func (c *RedisRateCache) Delete(ctx context.Context, pair string) error {
	return c.client.Del(ctx, rateKeyPrefix+pair).Err()
}
