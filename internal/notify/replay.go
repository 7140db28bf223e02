package notify

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisReplayProtector implements ReplayProtector with SETNX keyed by
// endpoint and event, so a re-enqueued delivery that already went out within
// the TTL is suppressed instead of hitting the subscriber twice.
// A nil client disables the guard, which single-worker deployments can live
// with.
type RedisReplayProtector struct {
	Client *redis.Client
}

// Acquire claims the delivery key for the provided TTL. Returns false when a
// previous delivery already holds it.
func (r RedisReplayProtector) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.Client == nil {
		return true, nil
	}
	return r.Client.SetNX(ctx, key, "1", ttl).Result()
}

// Release frees the key early, used when the delivery attempt failed and the
// retry should be allowed through.
func (r RedisReplayProtector) Release(ctx context.Context, key string) error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Del(ctx, key).Err()
}
