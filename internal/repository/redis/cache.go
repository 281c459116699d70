package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	redisx "github.com/Maheshi13/UNIVISTA-Project/internal/redis"
)

// Cache is a read-through JSON cache. A nil *Cache is valid and behaves as
// a cache that never hits, so services can run without redis in tests.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

func (c *Cache) set(ctx context.Context, key string, b []byte, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T

	b, ok, err := c.get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}

	if err := json.Unmarshal(b, &out); err != nil {
		// A corrupt entry behaves like a miss; the loader overwrites it.
		return out, false, nil
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, c *Cache, key string, val any, ttl time.Duration) error {
	if c == nil {
		return nil
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.set(ctx, key, b, ttl)
}

// GetOrSetJSON returns the cached value for key, loading and caching it on
// a miss. Concurrent misses for the same key share one loader call.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil {
		return loader(ctx)
	}

	if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
		return v, err
	}

	got, err, _ := c.sf.Do(key, func() (any, error) {
		// Another flight may have filled the key while we queued.
		if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
			return v, err
		}

		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		_ = SetJSON(ctx, c, key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := got.(T)
	if !ok {
		var zero T
		return zero, errors.New("cache: unexpected value type")
	}
	return v, nil
}

// InvalidateEvent drops every cache entry an event mutation can stale: the
// event summary, its availability counters, and the approved listings for
// its faculty and for the unfiltered view.
func (c *Cache) InvalidateEvent(ctx context.Context, eventID, faculty string) error {
	return c.Del(
		ctx,
		redisx.KeyEventSummary(eventID),
		redisx.KeyEventAvailability(eventID),
		redisx.KeyApprovedEvents(faculty),
		redisx.KeyApprovedEvents(""),
	)
}
