package jwks

import (
	"sort"
	"sync/atomic"
)

// Cache is the in-memory tier of the key cache. Reads never block; LoadAll
// swaps the whole snapshot at once so a reader sees either the old set or
// the new one, never a mix.
type Cache struct {
	snapshot atomic.Pointer[map[string]SigningKey]
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	c := &Cache{}
	empty := map[string]SigningKey{}
	c.snapshot.Store(&empty)
	return c
}

// Get returns the key with the given kid.
func (c *Cache) Get(kid string) (SigningKey, bool) {
	key, ok := (*c.snapshot.Load())[kid]
	return key, ok
}

// LoadAll replaces the cache contents with keys. Kids absent from keys are
// dropped.
func (c *Cache) LoadAll(keys KeySet) {
	index := keys.Index()
	c.snapshot.Store(&index)
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	return len(*c.snapshot.Load())
}

// Keys returns the cached kids in sorted order.
func (c *Cache) Keys() []string {
	current := *c.snapshot.Load()
	kids := make([]string, 0, len(current))
	for kid := range current {
		kids = append(kids, kid)
	}
	sort.Strings(kids)
	return kids
}
