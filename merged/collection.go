package merged

import (
	"github.com/annograph/annograph/annofilter"
	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/mappingcache"
	"github.com/annograph/annograph/repeatable"
	"github.com/annograph/annograph/scanner"
)

// Annotations aggregates the annotations found on a source element, or an
// explicit instance list, made iterable/queryable as MergedAnnotation
// views. It is single-threaded by convention: predicates returned by
// FirstRunOf/Unique are stateful and single-use.
type Annotations struct {
	source     string
	aggregates [][]attrvalue.AnnotationInstance
	cache      *mappingcache.Cache
	filter     annofilter.Filter
	containers *repeatable.Containers
}

// From builds an Annotations from scanning element with s under strategy.
func From(s scanner.Scanner, element any, strategy scanner.Strategy, cache *mappingcache.Cache, containers *repeatable.Containers, filter annofilter.Filter) *Annotations {
	return &Annotations{
		source:     "element",
		aggregates: s.Aggregates(element, strategy),
		cache:      cache,
		filter:     filter,
		containers: containers,
	}
}

// FromInstances builds an Annotations from a single explicit list of
// directly-declared instances. The list becomes aggregate 0; there is no
// inherited level.
func FromInstances(source string, instances []attrvalue.AnnotationInstance, cache *mappingcache.Cache, containers *repeatable.Containers, filter annofilter.Filter) *Annotations {
	return &Annotations{
		source:     source,
		aggregates: [][]attrvalue.AnnotationInstance{instances},
		cache:      cache,
		filter:     filter,
		containers: containers,
	}
}

// Source returns the tag this collection was built with.
func (a *Annotations) Source() string { return a.source }

func (a *Annotations) expand(agg []attrvalue.AnnotationInstance) []attrvalue.AnnotationInstance {
	var out []attrvalue.AnnotationInstance
	for _, inst := range agg {
		if a.containers != nil {
			if elems, ok := a.containers.Unwrap(inst); ok {
				out = append(out, elems...)
				continue
			}
		}
		out = append(out, inst)
	}
	return out
}

// IsPresent reports whether some annotation in some aggregate, after
// meta-expansion, contains a mapping whose type is typeName and that is
// not filtered out.
func (a *Annotations) IsPresent(typeName string) bool {
	for _, agg := range a.aggregates {
		for _, inst := range a.expand(agg) {
			closure, err := a.cache.Get(a.filter, inst.TypeName)
			if err != nil {
				continue
			}
			if _, ok := closure.Lookup(typeName); ok {
				return true
			}
		}
	}
	return false
}

// Selector chooses between two candidates of the same queried type:
// Selector(candidate, current) reports whether candidate should replace
// current as the running best match.
type Selector func(candidate, current MergedAnnotation) bool

// Nearest is the default selector: minimise (depth, aggregateIndex)
// lexicographically.
func Nearest(candidate, current MergedAnnotation) bool {
	if candidate.Depth() != current.Depth() {
		return candidate.Depth() < current.Depth()
	}
	return candidate.AggregateIndex() < current.AggregateIndex()
}

// HighestAggregateIndex prefers annotations from superclasses/interfaces
// over the element itself, for inheritance-flavored queries.
func HighestAggregateIndex(candidate, current MergedAnnotation) bool {
	if candidate.AggregateIndex() != current.AggregateIndex() {
		return candidate.AggregateIndex() > current.AggregateIndex()
	}
	return candidate.Depth() < current.Depth()
}

// GetOption configures a Get query.
type GetOption func(*getConfig)

type getConfig struct {
	predicate func(MergedAnnotation) bool
	selector  Selector
}

// WithPredicate filters candidates before selection.
func WithPredicate(p func(MergedAnnotation) bool) GetOption {
	return func(c *getConfig) { c.predicate = p }
}

// WithSelector overrides the default Nearest selector.
func WithSelector(s Selector) GetOption {
	return func(c *getConfig) { c.selector = s }
}

// Get returns the best candidate MergedAnnotation of typeName across every
// aggregate. Unmatched returns Missing.
func (a *Annotations) Get(typeName string, opts ...GetOption) MergedAnnotation {
	cfg := getConfig{selector: Nearest}
	for _, o := range opts {
		o(&cfg)
	}
	var best MergedAnnotation
	for _, cand := range a.candidates(typeName) {
		if cfg.predicate != nil && !cfg.predicate(cand) {
			continue
		}
		if best == nil || cfg.selector(cand, best) {
			best = cand
		}
	}
	if best == nil {
		return Missing
	}
	return best
}

func (a *Annotations) candidates(typeName string) []MergedAnnotation {
	var out []MergedAnnotation
	for i, agg := range a.aggregates {
		for _, inst := range a.expand(agg) {
			closure, err := a.cache.Get(a.filter, inst.TypeName)
			if err != nil {
				continue
			}
			mp, ok := closure.Lookup(typeName)
			if !ok {
				continue
			}
			out = append(out, newMapped(mp, inst, i, a.cache, a.filter, a.containers))
		}
	}
	return out
}

// Stream returns the flat sequence of every mapping reachable from every
// instance: aggregate
// ascending, declaration order within aggregate, mapping depth ascending
// (BFS, root first) within each directly-declared annotation.
func (a *Annotations) Stream() []MergedAnnotation {
	var out []MergedAnnotation
	for i, agg := range a.aggregates {
		for _, inst := range a.expand(agg) {
			closure, err := a.cache.Get(a.filter, inst.TypeName)
			if err != nil {
				continue
			}
			for _, mp := range closure.Mappings() {
				out = append(out, newMapped(mp, inst, i, a.cache, a.filter, a.containers))
			}
		}
	}
	return out
}

// Iterator is a stateful cursor over Stream().
type Iterator struct {
	items []MergedAnnotation
	pos   int
}

func (it *Iterator) HasNext() bool { return it.pos < len(it.items) }

func (it *Iterator) Next() MergedAnnotation {
	v := it.items[it.pos]
	it.pos++
	return v
}

// Iterator returns a fresh, single-use cursor over Stream().
func (a *Annotations) Iterator() *Iterator {
	return &Iterator{items: a.Stream()}
}
