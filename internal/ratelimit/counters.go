package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore increments short-lived named counters. Used to dedupe
// repeated hits within a window, like product view counting.
type CounterStore interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounters implements CounterStore on Redis.
type RedisCounters struct {
	Client *redis.Client
	Prefix string
}

// Incr increments the counter and sets its expiry on first touch.
func (c RedisCounters) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	redisKey := c.Prefix + key
	pipe := c.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
