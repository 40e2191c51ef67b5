package rotacloud_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-export/rotacloud"
)

func countingLoader(calls *int, body string, err error) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return []byte(body), nil
	}
}

func TestRunCache_ErrorsAreRetried(t *testing.T) {
	c := rotacloud.NewRunCache(nil, nil)
	ctx := context.Background()
	calls := 0

	_, err := c.Fetch(ctx, "k", time.Minute, countingLoader(&calls, "", errors.New("down")))
	require.Error(t, err)
	body, err := c.Fetch(ctx, "k", time.Minute, countingLoader(&calls, "ok", nil))
	require.NoError(t, err)

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, c.Len())
}

func TestRunCache_CancelledContext(t *testing.T) {
	c := rotacloud.NewRunCache(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer close(block)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.Fetch(ctx, "k", time.Minute, func(context.Context) ([]byte, error) {
		<-block
		return nil, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisCache_NilClientPassesThrough(t *testing.T) {
	c := rotacloud.NewRedisCache(nil, "", nil, nil)
	calls := 0

	for i := 0; i < 2; i++ {
		_, err := c.Fetch(context.Background(), "k", time.Minute, countingLoader(&calls, "x", nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, calls)
}

func TestRedisCache_ExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := rotacloud.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "p", nil, nil)
	ctx := context.Background()
	calls := 0

	_, err := c.Fetch(ctx, "roles/1", 10*time.Minute, countingLoader(&calls, `{"name":"A"}`, nil))
	require.NoError(t, err)
	_, err = c.Fetch(ctx, "roles/1", 10*time.Minute, countingLoader(&calls, `{"name":"A"}`, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	mr.FastForward(11 * time.Minute)
	_, err = c.Fetch(ctx, "roles/1", 10*time.Minute, countingLoader(&calls, `{"name":"A"}`, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRedisCache_UnavailableRedisFallsBackToLoader(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	c := rotacloud.NewRedisCache(rdb, "p", nil, nil)
	mr.Close()
	calls := 0

	body, err := c.Fetch(context.Background(), "k", time.Minute, countingLoader(&calls, "fresh", nil))

	require.NoError(t, err)
	assert.Equal(t, "fresh", string(body))
	assert.Equal(t, 1, calls)
}
