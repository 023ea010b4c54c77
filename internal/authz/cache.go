// Package authz holds the bounded decision cache placed in front of the ACL
// rule engine. The cache is scoped to one ACL snapshot: a policy swap builds
// a fresh cache, so entries can never outlive the rules that produced them.
package authz

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the decision cache when no size is configured.
const DefaultSize = 256

type key struct {
	identity string
	path     string
}

// Cache memoizes access decisions keyed by (principal identity, normalized
// path). Entries for one principal are never visible to another: the
// identity string is part of the key. Eviction is least-recently-used at
// capacity. Safe for concurrent use.
type Cache struct {
	entries *lru.Cache[key, bool]
}

// NewCache creates a decision cache bounded to size entries. A size below 1
// falls back to [DefaultSize].
func NewCache(size int) *Cache {
	if size < 1 {
		size = DefaultSize
	}
	// lru.New only fails on a non-positive size, which is guarded above.
	entries, _ := lru.New[key, bool](size)
	return &Cache{entries: entries}
}

// Get returns the memoized decision for (identity, path) and whether one
// was present.
func (c *Cache) Get(identity, path string) (allowed, ok bool) {
	return c.entries.Get(key{identity: identity, path: path})
}

// Add memoizes a decision.
func (c *Cache) Add(identity, path string, allowed bool) {
	c.entries.Add(key{identity: identity, path: path}, allowed)
}

// Len returns the number of cached decisions.
func (c *Cache) Len() int { return c.entries.Len() }
