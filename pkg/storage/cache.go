package storage

import (
	"github.com/hashicorp/golang-lru"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/metrics"
)

// locksCache bounded cache of the taken locks records by build id.
// Callers serialize access per build id.
type locksCache struct {
	entries *lru.Cache
}

func newLocksCache(size int) (*locksCache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &locksCache{entries: entries}, nil
}

// get returns the cached record or loads it. Failed loads are not cached.
func (c *locksCache) get(buildID uint64, load func() (map[string]meta.Lock, error)) (map[string]meta.Lock, error) {
	if value, ok := c.entries.Get(buildID); ok {
		metrics.LoadCounter.WithLabelValues(metrics.ResultHit).Inc()
		return value.(map[string]meta.Lock), nil
	}

	metrics.LoadCounter.WithLabelValues(metrics.ResultMiss).Inc()
	locks, err := load()
	if err != nil {
		return nil, err
	}

	c.entries.Add(buildID, locks)
	return locks, nil
}

func (c *locksCache) put(buildID uint64, locks map[string]meta.Lock) {
	c.entries.Add(buildID, locks)
}

func (c *locksCache) invalidate(buildID uint64) {
	c.entries.Remove(buildID)
}

func (c *locksCache) len() int {
	return c.entries.Len()
}
