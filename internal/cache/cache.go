package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// RenderFunc produces the content for a cache miss.
type RenderFunc func(ctx context.Context) (string, error)

// Cache is the read-through layer over a Store. Concurrent misses for
// the same key are coalesced into a single render; storage failures
// degrade to miss-and-rerender and are never surfaced to callers.
type Cache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group

	now func() time.Time // overridable in tests
}

func New(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl, now: time.Now}
}

// GetOrRender returns the cached content for key when a valid entry
// exists, otherwise invokes renderFn exactly once per key across
// concurrent callers and stores its result with the configured TTL.
// A renderFn failure is propagated to every coalesced waiter and
// nothing is cached.
func (c *Cache) GetOrRender(ctx context.Context, key string, renderFn RenderFunc) (string, error) {
	if content, ok := c.lookup(key); ok {
		slog.Debug("cache hit", "key", key)
		return content, nil
	}
	slog.Debug("cache miss", "key", key)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A coalesced waiter may arrive after the leader already
		// populated the store.
		if content, ok := c.lookup(key); ok {
			return content, nil
		}

		// Renders are expensive and their result benefits later
		// callers, so an abandoned request does not cancel the render;
		// the renderer enforces its own timeout.
		content, err := renderFn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		ent := Entry{
			Content:    content,
			StoredAt:   c.now().Unix(),
			TTLSeconds: int(c.ttl / time.Second),
		}
		if err := c.store.Put(key, ent); err != nil {
			slog.Warn("cache write failed, serving unstored result", "key", key, "error", err)
		}
		return content, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// lookup reads the store, treating errors and expired entries as
// absent.
func (c *Cache) lookup(key string) (string, bool) {
	ent, ok, err := c.store.Get(key)
	if err != nil {
		slog.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return "", false
	}
	if !ok || !ent.Valid(c.now()) {
		return "", false
	}
	return ent.Content, true
}

// Invalidate removes an entry unconditionally. Idempotent.
func (c *Cache) Invalidate(key string) {
	if err := c.store.Delete(key); err != nil {
		slog.Warn("cache invalidation failed", "key", key, "error", err)
	}
}

// PurgeExpired sweeps out expired entries and returns how many were
// removed. Reads already treat expired entries as absent, so this is
// maintenance, not correctness.
func (c *Cache) PurgeExpired() int {
	keys, err := c.store.Keys()
	if err != nil {
		slog.Warn("cache purge failed to list keys", "error", err)
		return 0
	}

	purged := 0
	now := c.now()
	for _, key := range keys {
		ent, ok, err := c.store.Get(key)
		if err != nil || !ok || ent.Valid(now) {
			continue
		}
		if err := c.store.Delete(key); err != nil {
			slog.Warn("cache purge failed to delete", "key", key, "error", err)
			continue
		}
		purged++
	}
	return purged
}
