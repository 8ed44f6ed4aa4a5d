// Package querycache caches per-user server data between requests. Reads
// are retried once on network failure; mutations never are.
package querycache

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime  = 60 * time.Second
	DefaultRetryDelay = 250 * time.Millisecond
	keySeparator      = "/"
)

type Cache struct {
	items      *ttlcache.Cache[string, any]
	group      singleflight.Group
	epoch      atomic.Uint64
	retryDelay time.Duration
	logger     zerolog.Logger
}

type Option func(*Cache)

func WithRetryDelay(d time.Duration) Option {
	return func(c *Cache) {
		c.retryDelay = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New returns a cache whose entries go stale after staleTime. Call Close to
// stop the expiry loop.
func New(staleTime time.Duration, opts ...Option) *Cache {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	c := &Cache{
		items: ttlcache.New[string, any](
			ttlcache.WithTTL[string, any](staleTime),
			ttlcache.WithDisableTouchOnHit[string, any](),
		),
		retryDelay: DefaultRetryDelay,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.items.Start()
	return c
}

func (c *Cache) Close() {
	c.items.Stop()
}

// Key joins parts into a cache key. Invalidating a prefix key drops every
// key built from the same leading parts.
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = strings.ReplaceAll(fmt.Sprint(p), keySeparator, "_")
	}
	return strings.Join(s, keySeparator)
}

// Cloner is implemented by values that hold slices or maps. Query hands
// every caller its own copy so a caller cannot corrupt the cached entry.
type Cloner[T any] interface {
	Clone() T
}

func cloned[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// Query returns the cached value for key while it is fresh; otherwise it
// calls fetch, retrying once when the failure is a network error. A value
// fetched while InvalidateAll ran is returned but not cached.
//
// Callers of the same key share one fetch. It runs detached from their
// contexts, so one caller giving up does not fail the others; each caller
// stops waiting when its own ctx ends. Values are shared with the cache
// unless T implements Cloner.
func Query[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if item := c.items.Get(key); item != nil {
		if v, ok := item.Value().(T); ok {
			return cloned(v), nil
		}
	}

	epoch := c.epoch.Load()
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("%d|%s", epoch, key), func() (any, error) {
		res, err := fetch(shared)
		if err != nil && errors.Retryable(err) {
			c.logger.Debug().Str("key", key).Err(err).Msg("query failed, retrying once")
			if werr := c.wait(shared); werr != nil {
				return nil, werr
			}
			res, err = fetch(shared)
		}
		if err != nil {
			return nil, err
		}
		if c.epoch.Load() == epoch {
			c.items.Set(key, res, ttlcache.DefaultTTL)
		}
		return res, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}
	out, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", key, res.Val)
	}
	return cloned(out), nil
}

// Mutate runs fn exactly once and, on success, invalidates the given key
// prefixes.
func Mutate[T any](ctx context.Context, c *Cache, fn func(context.Context) (T, error), invalidate ...string) (T, error) {
	res, err := fn(ctx)
	if err != nil {
		return res, err
	}
	c.Invalidate(invalidate...)
	return res, nil
}

func (c *Cache) wait(ctx context.Context) error {
	if c.retryDelay <= 0 {
		return nil
	}
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Invalidate drops every key equal to, or nested under, one of prefixes.
func (c *Cache) Invalidate(prefixes ...string) {
	if len(prefixes) == 0 {
		return
	}
	for _, key := range c.items.Keys() {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+keySeparator) {
				c.items.Delete(key)
				break
			}
		}
	}
}

// InvalidateAll empties the cache and discards in-flight results. It runs on
// every change of principal.
func (c *Cache) InvalidateAll() {
	c.epoch.Add(1)
	c.items.DeleteAll()
}

// Has reports whether key holds a fresh value.
func (c *Cache) Has(key string) bool {
	return c.items.Get(key) != nil
}

func (c *Cache) Len() int {
	return c.items.Len()
}
