package service

import (
	"sync"

	"github.com/cauldronwatch/backend/internal/analysis"
)

type cacheEntry struct {
	fingerprint uint64
	noiseFloor  float64
	result      analysis.VesselAnalysis
}

// Cache memoises per-vessel reconciliation keyed by the fingerprint of the
// vessel's readings. A vessel whose readings changed is recomputed.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int
	misses  int
}

func NewCache() *Cache {
	return &Cache{entries: map[string]cacheEntry{}}
}

// Get returns the cached analysis or computes and stores it. A nil cache
// always computes.
func (c *Cache) Get(vesselID string, fingerprint uint64, noiseFloor float64, compute func() analysis.VesselAnalysis) analysis.VesselAnalysis {
	if c == nil {
		return compute()
	}
	c.mu.Lock()
	e, ok := c.entries[vesselID]
	c.mu.Unlock()
	if ok && e.fingerprint == fingerprint && e.noiseFloor == noiseFloor {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e.result
	}

	result := compute()
	c.mu.Lock()
	c.misses++
	c.entries[vesselID] = cacheEntry{fingerprint: fingerprint, noiseFloor: noiseFloor, result: result}
	c.mu.Unlock()
	return result
}

// Stats reports hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
