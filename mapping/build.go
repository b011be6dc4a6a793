package mapping

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/annograph/annograph/annofilter"
	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/repeatable"
	"github.com/annograph/annograph/resolver"
)

// Closure is the built, ordered BFS closure for one root annotation type:
// index 0 is always the root, siblings appear in BFS order, keyed for
// O(1) lookup by annotation type name. The process-wide cache layer on top
// lives in package mappingcache.
type Closure struct {
	Root     *Mapping
	ordered  []*Mapping
	byType   map[string]*Mapping
}

// Mappings returns the closure in BFS order, root first.
func (c *Closure) Mappings() []*Mapping { return c.ordered }

// Lookup returns the mapping for typeName within this closure, if the
// closure reaches it (i.e. it is the root, or a non-filtered,
// non-cyclic meta-annotation of something in the closure).
func (c *Closure) Lookup(typeName string) (*Mapping, bool) {
	m, ok := c.byType[typeName]
	return m, ok
}

// Build performs the BFS closure construction for (filter, rootType),
// followed by the single afterAllMappingsSet post-pass.
func Build(r resolver.TypeResolver, filter annofilter.Filter, containers *repeatable.Containers, rootType string) (*Closure, error) {
	rootDescriptor, ok := r.Resolve(rootType)
	if !ok {
		return nil, fmt.Errorf("annograph: root annotation type %q is not resolvable", rootType)
	}

	root := newMapping(rootDescriptor, nil, 0, nil)
	byType := map[string]*Mapping{rootType: root}
	queue := []*Mapping{root}
	var ordered []*Mapping

	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		ordered = append(ordered, m)

		for _, ma := range m.AnnotationType.MetaAnnotations {
			if filter.Matches(ma.TypeName) {
				glog.V(1).Infof("annograph: filter excludes meta-annotation %q declared on %q", ma.TypeName, m.AnnotationType.Name)
				continue
			}

			if elements, isContainer := containers.Unwrap(ma); isContainer {
				for _, elem := range elements {
					if err := enqueueChild(r, filter, m, elem.TypeName, elem.Values, byType, &queue); err != nil {
						return nil, err
					}
				}
				continue
			}

			if err := enqueueChild(r, filter, m, ma.TypeName, ma.Values, byType, &queue); err != nil {
				return nil, err
			}
		}
	}

	for _, m := range ordered {
		if err := m.afterAllMappingsSet(); err != nil {
			return nil, err
		}
	}

	return &Closure{Root: root, ordered: ordered, byType: byType}, nil
}

// enqueueChild applies global first-occurrence-wins dedup: each annotation
// type appears at most once per closure. A type along m's own ancestor
// chain has, by construction, already been visited earlier in BFS order
// and so is already present in byType, which is what breaks
// meta-annotation cycles.
func enqueueChild(r resolver.TypeResolver, filter annofilter.Filter, parent *Mapping, typeName string, declared map[string]attrvalue.Value, byType map[string]*Mapping, queue *[]*Mapping) error {
	if filter.Matches(typeName) {
		glog.V(1).Infof("annograph: filter excludes meta-annotation %q declared on %q", typeName, parent.AnnotationType.Name)
		return nil
	}
	if _, seen := byType[typeName]; seen {
		glog.V(1).Infof("annograph: %q already present in closure, breaking cycle at %q", typeName, parent.AnnotationType.Name)
		return nil
	}
	childType, ok := r.Resolve(typeName)
	if !ok {
		glog.V(1).Infof("annograph: resolver miss for meta-annotation %q declared on %q, pruning branch", typeName, parent.AnnotationType.Name)
		return nil
	}
	child := newMapping(childType, parent, parent.Depth+1, declared)
	byType[typeName] = child
	*queue = append(*queue, child)
	return nil
}
