package refs

import "sync"

// Cache holds reference images loaded during a run, keyed by workspace
// key. It is owned by the resolver and passed nowhere else; the mutex
// exists only because pre-existing references load in parallel.
type Cache struct {
	mu    sync.RWMutex
	byKey map[string]*Reference
}

// NewCache creates an empty reference cache.
func NewCache() *Cache {
	return &Cache{byKey: map[string]*Reference{}}
}

// Get returns the cached reference for a key.
func (c *Cache) Get(key string) (*Reference, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.byKey[key]
	return ref, ok
}

// Put stores a reference, keeping the first load for a key.
func (c *Cache) Put(ref *Reference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byKey[ref.Key]; !ok {
		c.byKey[ref.Key] = ref
	}
}
