package tiptop

import (
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/psfkit/tiptop/fits"
)

// ResultCache memoizes successful simulation results, keyed by the xxh3
// hash of the serialized configuration text. The simulation is
// deterministic for a given config, so identical text always maps to an
// equivalent result.
//
// Cached files are shared between callers and must be treated as
// read-only. Safe for concurrent use.
type ResultCache struct {
	mu         sync.RWMutex
	maxEntries int
	entries    map[uint64]*fits.File
}

// NewResultCache creates a cache bounded to maxEntries results.
// maxEntries <= 0 means unbounded.
func NewResultCache(maxEntries int) *ResultCache {
	return &ResultCache{
		maxEntries: maxEntries,
		entries:    make(map[uint64]*fits.File),
	}
}

// Len returns the number of cached results.
func (rc *ResultCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.entries)
}

// Clear drops every cached result.
func (rc *ResultCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries = make(map[uint64]*fits.File)
}

func (rc *ResultCache) get(iniText string) (*fits.File, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	f, ok := rc.entries[xxh3.HashString(iniText)]
	return f, ok
}

func (rc *ResultCache) put(iniText string, f *fits.File) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.maxEntries > 0 && len(rc.entries) >= rc.maxEntries {
		// evict an arbitrary entry; results have no useful recency order
		for k := range rc.entries {
			delete(rc.entries, k)
			break
		}
	}
	rc.entries[xxh3.HashString(iniText)] = f
}
