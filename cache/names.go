package cache

import (
	"sync"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = pqerr.Newf(pqerr.InvalidArgument, "name cache is closed")

type entry struct {
	name string
	refs int
}

// NameCache interns column names so that repeated batches of the same
// columns share one string per name. Every Acquire must be paired with a
// Release; a name is dropped when its last reference goes away.
type NameCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	hits, misses uint64
}

// NewNameCache returns an empty cache.
func NewNameCache() *NameCache {
	return &NameCache{entries: make(map[string]*entry)}
}

// Acquire returns the interned copy of name and takes a reference on it.
func (c *NameCache) Acquire(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	if e, ok := c.entries[name]; ok {
		e.refs++
		c.hits++
		return e.name, nil
	}
	// Copy so the cache never pins a caller's larger buffer.
	e := &entry{name: string(append([]byte(nil), name...)), refs: 1}
	c.entries[e.name] = e
	c.misses++
	return e.name, nil
}

// AcquireAll interns every name in order.
func (c *NameCache) AcquireAll(names []string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		s, err := c.Acquire(n)
		if err != nil {
			c.ReleaseAll(out[:i])
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Release drops one reference on name. Releasing an unknown name is a
// no-op.
func (c *NameCache) Release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(c.entries, name)
	}
}

// ReleaseAll releases every name.
func (c *NameCache) ReleaseAll(names []string) {
	for _, n := range names {
		c.Release(n)
	}
}

// Refs returns the number of live references on name.
func (c *NameCache) Refs(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[name]; ok {
		return e.refs
	}
	return 0
}

// Stats holds cache statistics.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// Stats returns cache statistics.
func (c *NameCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Close drops every entry regardless of references. Later calls to Acquire
// fail; Release keeps working as a no-op.
func (c *NameCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[string]*entry)
}
