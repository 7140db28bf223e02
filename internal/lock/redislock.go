package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when the caller still owns it, so a
// holder whose TTL expired cannot release a lock someone else re-acquired.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker serializes work on a shared key via Redis SETNX. The worker uses it
// to keep concurrent deliveries for the same webhook endpoint and event from
// racing each other.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
}

// WithLock runs fn while holding the key. The lock is released when fn
// returns, success or not. Acquisition blocks, polling every RetryBackoff,
// until the context is cancelled.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	owner := uuid.NewString()

	for {
		acquired, err := l.R.SetNX(ctx, key, owner, ttl).Result()
		if err != nil {
			return err
		}
		if acquired {
			// Release on a fresh context so a cancelled ctx still frees the key.
			defer func() {
				_ = l.R.Eval(context.Background(), releaseScript, []string{key}, owner).Err()
			}()
			return fn(ctx)
		}

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
