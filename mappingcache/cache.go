// Package mappingcache wraps mapping.Build with a process-wide cache: one
// closure computed per (filter identity, root annotation type), reused
// across every subsequent query against that root, until Clear is called.
package mappingcache

import (
	"fmt"
	"sync"
	"weak"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/annograph/annograph/annofilter"
	"github.com/annograph/annograph/annotype"
	"github.com/annograph/annograph/mapping"
	"github.com/annograph/annograph/repeatable"
	"github.com/annograph/annograph/resolver"
)

// defaultSize bounds each filter identity's own LRU bucket. A process that
// queries thousands of distinct root annotation types under one filter
// will evict the least recently used closures rather than grow unbounded.
const defaultSize = 512

// cacheKey identifies one cached closure: the root type's name plus a weak
// reference to its resolved descriptor, so a descriptor re-registered under
// the same name gets its own entry. The key itself holds no strong
// reference, but the cached *mapping.Closure does (its mappings point at
// the descriptors they were built from), so a cached root descriptor stays
// reachable until its entry is evicted or Cleared.
type cacheKey struct {
	rootType string
	rootDesc weak.Pointer[annotype.AnnotationType]
}

// Cache is AnnotationTypeMappings: a process-wide cache of built closures,
// bucketed per annofilter.Filter identity since two different filters over
// the same root type legitimately produce two different closures.
type Cache struct {
	resolver   resolver.TypeResolver
	containers *repeatable.Containers

	mu       sync.Mutex
	byFilter map[string]*lru.Cache[cacheKey, *mapping.Closure]
}

// New returns a Cache that builds closures against r and containers on
// first use, per filter/root-type pair.
func New(r resolver.TypeResolver, containers *repeatable.Containers) *Cache {
	return &Cache{
		resolver:   r,
		containers: containers,
		byFilter:   make(map[string]*lru.Cache[cacheKey, *mapping.Closure]),
	}
}

// Get returns the cached closure for (filter, rootType), building and
// publishing it on a cache miss.
func (c *Cache) Get(filter annofilter.Filter, rootType string) (*mapping.Closure, error) {
	rootDesc, ok := c.resolver.Resolve(rootType)
	if !ok {
		return nil, fmt.Errorf("annograph: root annotation type %q is not resolvable", rootType)
	}
	key := cacheKey{rootType: rootType, rootDesc: weak.Make(rootDesc)}
	bucket := c.bucketFor(filter)

	if closure, ok := bucket.Get(key); ok {
		return closure, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if closure, ok := bucket.Get(key); ok {
		return closure, nil
	}
	closure, err := mapping.Build(c.resolver, filter, c.containers, rootType)
	if err != nil {
		return nil, err
	}
	bucket.Add(key, closure)
	return closure, nil
}

func (c *Cache) bucketFor(filter annofilter.Filter) *lru.Cache[cacheKey, *mapping.Closure] {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.byFilter[filter.Identity()]
	if ok {
		return b
	}
	b, _ = lru.New[cacheKey, *mapping.Closure](defaultSize)
	c.byFilter[filter.Identity()] = b
	return b
}

// Clear discards every cached closure across every filter identity this
// Cache has ever served, for tests and type-registry teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.byFilter {
		b.Purge()
	}
}
