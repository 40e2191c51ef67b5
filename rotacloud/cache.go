package rotacloud

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/warp/payroll-export/metrics"
)

// Cache stores raw response bodies by request key. On a miss Fetch calls
// load and stores its result. Loader errors are returned and never cached.
type Cache interface {
	Fetch(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error)
}

// =============================================================================
// RUN CACHE - Memo for the lifetime of one run
// =============================================================================

// RunCache memoizes bodies for one run and collapses concurrent identical
// requests into a single call. Misses fall through to next when set.
type RunCache struct {
	next    Cache
	metrics *metrics.Metrics

	mu     sync.RWMutex
	bodies map[string][]byte
	group  singleflight.Group
}

func NewRunCache(next Cache, m *metrics.Metrics) *RunCache {
	return &RunCache{next: next, metrics: m, bodies: make(map[string][]byte)}
}

func (c *RunCache) Fetch(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.RLock()
	body, ok := c.bodies[key]
	c.mu.RUnlock()
	c.metrics.CacheLookup("run", ok)
	if ok {
		return body, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.mu.RLock()
		done, ok := c.bodies[key]
		c.mu.RUnlock()
		if ok {
			return done, nil
		}
		var (
			b   []byte
			err error
		)
		if c.next != nil {
			b, err = c.next.Fetch(ctx, key, ttl, load)
		} else {
			b, err = load(ctx)
		}
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.bodies[key] = b
		c.mu.Unlock()
		return b, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Len returns the number of memoized bodies.
func (c *RunCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bodies)
}

// =============================================================================
// REDIS CACHE - Shared across runs and processes
// =============================================================================

// RedisCache keeps bodies in Redis with a per-endpoint TTL. A nil client
// passes straight through to the loader. Redis failures are logged and
// treated as a miss; the scheduling API stays the source of truth.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRedisCache(client *redis.Client, prefix string, m *metrics.Metrics, logger *slog.Logger) *RedisCache {
	if prefix == "" {
		prefix = "rotacloud"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, prefix: prefix, metrics: m, logger: logger}
}

func (c *RedisCache) Fetch(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}
	full := c.prefix + ":" + key

	body, err := c.client.Get(ctx, full).Bytes()
	if err == nil {
		c.metrics.CacheLookup("redis", true)
		return body, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("redis read failed, calling upstream", slog.String("key", full), slog.Any("error", err))
	}
	c.metrics.CacheLookup("redis", false)

	body, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, full, body, ttl).Err(); err != nil {
		c.logger.Warn("redis write failed", slog.String("key", full), slog.Any("error", err))
	}
	return body, nil
}

var (
	_ Cache = (*RunCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
