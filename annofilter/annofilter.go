// Package annofilter implements AnnotationFilter: a predicate excluding
// uninteresting annotation type names from meta-annotation closures (e.g.
// platform-reserved annotations that would otherwise bloat every closure
// with the same handful of bookkeeping types).
package annofilter

import "strings"

// Filter reports, for a candidate annotation type name, whether it should
// be excluded from meta-annotation closures (a match means filtered out).
type Filter interface {
	Matches(typeName string) bool
	// Identity is a stable string distinguishing this filter for cache
	// keying purposes (mappingcache keys its cache per filter identity).
	Identity() string
}

// none matches nothing; every meta-annotation participates in the closure.
type none struct{}

func (none) Matches(string) bool { return false }
func (none) Identity() string    { return "none" }

// None returns the filter that excludes nothing.
func None() Filter { return none{} }

// prefixSet excludes any type name starting with one of a fixed set of
// package-style prefixes.
type prefixSet struct {
	id       string
	prefixes []string
}

func (p prefixSet) Matches(typeName string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(typeName, prefix) {
			return true
		}
	}
	return false
}

func (p prefixSet) Identity() string { return p.id }

// PackagePrefixes returns a filter that excludes any type name beginning
// with one of the given prefixes. identity must be unique per distinct
// prefix set, since mappingcache uses it as part of the cache key.
func PackagePrefixes(identity string, prefixes ...string) Filter {
	cp := make([]string, len(prefixes))
	copy(cp, prefixes)
	return prefixSet{id: identity, prefixes: cp}
}

// names excludes an explicit, fixed set of fully qualified type names.
type names struct {
	id  string
	set map[string]struct{}
}

func (n names) Matches(typeName string) bool {
	_, found := n.set[typeName]
	return found
}

func (n names) Identity() string { return n.id }

// Names returns a filter that excludes exactly the given type names.
func Names(identity string, typeNames ...string) Filter {
	set := make(map[string]struct{}, len(typeNames))
	for _, n := range typeNames {
		set[n] = struct{}{}
	}
	return names{id: identity, set: set}
}

// composite ORs a set of filters together: a name is excluded if any
// member filter excludes it.
type composite struct {
	id      string
	filters []Filter
}

func (c composite) Matches(typeName string) bool {
	for _, f := range c.filters {
		if f.Matches(typeName) {
			return true
		}
	}
	return false
}

func (c composite) Identity() string { return c.id }

// Any combines filters so that a type name is excluded if any of them
// would exclude it individually.
func Any(identity string, filters ...Filter) Filter {
	cp := make([]Filter, len(filters))
	copy(cp, filters)
	return composite{id: identity, filters: cp}
}
