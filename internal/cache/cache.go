// Package cache provides the per-entity-type read-through/write-through
// snapshot cache that shields the database from read load.
//
// Every cached value has been read from or written to the backing store
// at some point; entries are never speculative. Writes are
// last-writer-wins. Bulk "list all" queries bypass the cache entirely so
// rarely accessed rows are not retained.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kevinmiles/Enceladus-API/internal/metrics"
)

// Default capacities per entity type. Threads are low-cardinality (a
// handful are live at any time); the rest are bounded high enough that
// eviction only matters under unusual load.
const (
	ThreadCapacity      = 5
	SectionCapacity     = 50
	EventCapacity       = 100
	UserCapacity        = 100
	PresetEventCapacity = 100
)

// Cache is a size-bounded LRU map from entity id to last-known snapshot.
// The underlying LRU serializes individual map operations; no lock is
// ever held across a store round trip.
type Cache[V any] struct {
	entity string
	lru    *lru.Cache[int32, V]
}

// New creates a cache for one entity type. The entity name is used as a
// metrics label only.
func New[V any](entity string, capacity int) (*Cache[V], error) {
	l, err := lru.New[int32, V](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{entity: entity, lru: l}, nil
}

// Get returns the cached snapshot for id, if present.
func (c *Cache[V]) Get(id int32) (V, bool) {
	v, ok := c.lru.Get(id)
	if ok {
		metrics.CacheHitsTotal.WithLabelValues(c.entity).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(c.entity).Inc()
	}
	return v, ok
}

// GetOrLoad returns the cached snapshot for id, reading through to load
// on a miss and inserting the result. Two concurrent misses on the same
// id may both call load and both insert; the overwrite is idempotent and
// accepted in preference to a single-flight mechanism. Store errors are
// passed through unchanged and nothing is inserted.
func (c *Cache[V]) GetOrLoad(ctx context.Context, id int32, load func(context.Context, int32) (V, error)) (V, error) {
	if v, ok := c.Get(id); ok {
		return v, nil
	}

	v, err := load(ctx, id)
	if err != nil {
		var zero V
		return zero, err
	}

	c.lru.Add(id, v)
	return v, nil
}

// Put unconditionally overwrites the snapshot for id. Called after every
// successful create or update.
func (c *Cache[V]) Put(id int32, v V) {
	c.lru.Add(id, v)
}

// Invalidate removes the entry for id if present. Calling it for an
// absent id is a no-op, not an error.
func (c *Cache[V]) Invalidate(id int32) {
	metrics.CacheInvalidationsTotal.WithLabelValues(c.entity).Inc()
	c.lru.Remove(id)
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
