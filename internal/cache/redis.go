// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"postboard/internal/middleware"
	"postboard/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const (
	UserKeyPrefix = "user:%d"
	UserTTL       = 5 * time.Minute
)

// UserKey is the cache key of a single user record.
func UserKey(id int64) string {
	return fmt.Sprintf(UserKeyPrefix, id)
}

// Cache is a read-through cache in front of the database. A nil *Cache is
// valid and behaves as a permanent miss, so callers never branch on whether
// Redis is configured.
type Cache struct {
	client *redis.Client
}

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) && !errors.Is(err, redis.TxFailedErr) {
			observability.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// New connects to addr (host:port or redis:// URL). An empty addr returns a
// nil *Cache and no error. An unreachable server is logged and also yields a
// nil *Cache: the API keeps serving from the database.
func New(ctx context.Context, addr string) (*Cache, error) {
	if addr == "" {
		return nil, nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	// Plain Redis servers reject the maintenance notifications handshake.
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}

	c := NewFromClient(redis.NewClient(opts))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without cache", slog.String("error", err.Error()))
		_ = c.Close()
		return nil, nil
	}

	middleware.Logger.Info("Redis connected successfully")
	return c, nil
}

// NewFromClient wraps an existing client and instruments it.
func NewFromClient(client *redis.Client) *Cache {
	client.AddHook(metricsHook{})
	return &Cache{client: client}
}

// Aside implements cache-aside: dst is filled from key when present, otherwise
// fn loads it and the result is stored for ttl. Errors from fn are returned
// untouched and never cached. Redis failures degrade to calling fn.
//
// The store is skipped when key was invalidated while fn ran, so a load that
// raced a write never re-populates the entry with the old value.
func (c *Cache) Aside(ctx context.Context, key string, dst any, ttl time.Duration, fn func() error) error {
	if c == nil || c.client == nil {
		return fn()
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dst); jsonErr == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return nil
		}
		// A stale or foreign payload is treated as a miss and overwritten below.
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "Cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()

	gen, genErr := generation(ctx, c.client, key)

	if err := fn(); err != nil {
		return err
	}
	if genErr != nil {
		return nil
	}

	payload, err := json.Marshal(dst)
	if err != nil {
		return nil
	}
	if err := c.storeIfUnchanged(ctx, key, gen, payload, ttl); err != nil {
		if errors.Is(err, errInvalidated) || errors.Is(err, redis.TxFailedErr) {
			observability.CacheLookups.WithLabelValues("stale").Inc()
			return nil
		}
		middleware.Logger.WarnContext(ctx, "Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

var errInvalidated = errors.New("cache key invalidated during load")

// GenerationKey holds the invalidation counter of key.
func GenerationKey(key string) string {
	return "gen:" + key
}

// generationTTL outlives any in-flight load by a wide margin.
const generationTTL = 24 * time.Hour

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, cmd getter, key string) (string, error) {
	gen, err := cmd.Get(ctx, GenerationKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return gen, err
}

func (c *Cache) storeIfUnchanged(ctx context.Context, key, gen string, payload []byte, ttl time.Duration) error {
	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != gen {
			return errInvalidated
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}, GenerationKey(key))
}

// Invalidate removes key and bumps its generation so loads already in flight
// do not store their result. Failures are logged; the entry expires on its own.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(key))
		pipe.Expire(ctx, GenerationKey(key), generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Cache invalidation failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// InvalidateUser drops the cached record of user id.
func (c *Cache) InvalidateUser(ctx context.Context, id int64) {
	c.Invalidate(ctx, UserKey(id))
}

// Ping checks connectivity. A nil cache is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
