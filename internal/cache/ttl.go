// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NV24212/ATC24-IFR/internal/metrics"
)

// Entry is a cached value with its expiry.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// TTLCache is a keyed cache whose entries expire independently.
//
// A read at or after an entry's ExpiresAt is a miss. Expired entries are
// dropped lazily on the next write to the same key, so the map never holds
// more keys than callers have used.
//
// Thread Safety: safe for concurrent use. Concurrent misses on one key are
// not collapsed; each caller runs its own fetch and the last store wins.
type TTLCache[V any] struct {
	name    string
	mu      sync.RWMutex
	entries map[string]Entry[V]
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Keys   int   `json:"keys"`
}

// HitRate returns hits / (hits + misses) as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// NewTTLCache creates an empty cache. name labels the cache_hits_total and
// cache_misses_total series.
//
// Example:
//
//	controllers := cache.NewTTLCache[upstream.Snapshot]("upstream")
//	snap, err := controllers.GetOrFetch(ctx, "controllers", 30*time.Second, fetchControllers)
func NewTTLCache[V any](name string) *TTLCache[V] {
	return &TTLCache[V]{
		name:    name,
		entries: make(map[string]Entry[V]),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *TTLCache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Get returns the value for key when present and unexpired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()

	if !ok || !now.Before(entry.ExpiresAt) {
		c.misses.Add(1)
		metrics.RecordCacheLookup(c.name, false)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	metrics.RecordCacheLookup(c.name, true)
	return entry.Value, true
}

// Set stores value under key until now+ttl, replacing any previous entry.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry[V]{Value: value, ExpiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// GetOrFetch returns the cached value for key, or calls fetch, stores its
// result for ttl and returns it.
//
// A fetch error is returned as-is and nothing is stored, so the next call
// fetches again. fetch runs on the caller's goroutine with the caller's ctx
// and without any cache lock held.
func (c *TTLCache[V]) GetOrFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (V, error),
) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.Set(key, v, ttl)
	return v, nil
}

// Stats returns current counters.
func (c *TTLCache[V]) Stats() Stats {
	c.mu.RLock()
	keys := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Keys:   keys,
	}
}
