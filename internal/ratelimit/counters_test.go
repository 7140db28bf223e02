package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisCountersIncr(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	counters := RedisCounters{Client: client, Prefix: "views:"}
	ctx := context.Background()

	n, err := counters.Incr(ctx, "product:42", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = counters.Incr(ctx, "product:42", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	mr.FastForward(2 * time.Minute)

	n, err = counters.Incr(ctx, "product:42", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
