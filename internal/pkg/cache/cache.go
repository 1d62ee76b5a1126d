package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalscout_cache_hits_total",
		Help: "Cache lookups served from the backend",
	}, []string{"table"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalscout_cache_misses_total",
		Help: "Cache lookups that had to populate the entry",
	}, []string{"table"})
	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalscout_cache_backend_errors_total",
		Help: "Backend read/write failures (treated as misses)",
	}, []string{"table"})
)

// DefaultLoadTimeout bounds a shared load once it is detached from its caller.
const DefaultLoadTimeout = 30 * time.Second

// Backend stores encoded values with a TTL.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache memoises loader results in a Backend. Concurrent loads of the same key
// share one call to the loader.
type Cache struct {
	backend     Backend
	prefix      string
	group       singleflight.Group
	loadTimeout time.Duration
}

// New returns a cache over backend. prefix is prepended to every key.
func New(backend Backend, prefix string) *Cache {
	return &Cache{backend: backend, prefix: prefix, loadTimeout: DefaultLoadTimeout}
}

// Key builds a cache key from a function name and its arguments.
func Key(name string, args ...any) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// Load returns the value cached under key, calling load on a miss and storing
// its result for ttl. Loader errors are returned and never cached. A nil cache
// calls load directly.
//
// The loader is shared by concurrent callers of the same key, so it runs on a
// context detached from the caller's cancellation and bounded by the load
// timeout. A caller whose own ctx ends stops waiting without affecting the others.
func Load[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.backend == nil {
		return load(ctx)
	}

	table := tableOf(key)
	fullKey := c.prefix + key

	if v, ok := get[T](ctx, c, fullKey, table); ok {
		cacheHits.WithLabelValues(table).Inc()
		return v, nil
	}
	cacheMisses.WithLabelValues(table).Inc()

	ch := c.group.DoChan(fullKey, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		// another caller may have populated the entry while we waited
		if v, ok := get[T](lctx, c, fullKey, table); ok {
			return v, nil
		}
		v, err := load(lctx)
		if err != nil {
			return v, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return v, fmt.Errorf("cache: encode %s: %w", key, err)
		}
		if err := c.backend.Set(lctx, fullKey, data, ttl); err != nil {
			cacheErrors.WithLabelValues(table).Inc()
			slog.Warn("cache: set failed", "key", key, "error", err)
		}
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

// Invalidate drops key from the backend.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Delete(ctx, c.prefix+key)
}

func get[T any](ctx context.Context, c *Cache, fullKey, table string) (T, bool) {
	var v T
	data, ok, err := c.backend.Get(ctx, fullKey)
	if err != nil {
		cacheErrors.WithLabelValues(table).Inc()
		slog.Warn("cache: get failed", "key", fullKey, "error", err)
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		cacheErrors.WithLabelValues(table).Inc()
		slog.Warn("cache: decode failed", "key", fullKey, "error", err)
		return v, false
	}
	return v, true
}

func tableOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
