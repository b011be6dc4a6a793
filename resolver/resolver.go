// Package resolver defines the TypeResolver contract the core consumes
// (name -> AnnotationType descriptor, or absent) plus a small in-memory
// reference implementation.
package resolver

import (
	"github.com/golang/glog"

	"github.com/annograph/annograph/annotype"
)

// TypeResolver maps an annotation type name to its metadata. A resolver
// miss (ok == false) is not an error: the BFS closure builder prunes that
// branch silently.
type TypeResolver interface {
	Resolve(name string) (*annotype.AnnotationType, bool)
}

// MapResolver is a simple in-memory TypeResolver backed by a map, the
// reference implementation consumers can use directly in tests or small
// programs that don't need a reflection- or IDL-backed resolver.
type MapResolver struct {
	types map[string]*annotype.AnnotationType
}

var _ TypeResolver = (*MapResolver)(nil)

// NewMapResolver returns an empty resolver ready for Register calls.
func NewMapResolver() *MapResolver {
	return &MapResolver{types: make(map[string]*annotype.AnnotationType)}
}

// Register adds or replaces the descriptor for t.Name.
func (r *MapResolver) Register(t *annotype.AnnotationType) {
	r.types[t.Name] = t
}

// Resolve implements TypeResolver.
func (r *MapResolver) Resolve(name string) (*annotype.AnnotationType, bool) {
	t, ok := r.types[name]
	if !ok {
		glog.V(1).Infof("resolver: no descriptor registered for annotation type %q", name)
		return nil, false
	}
	return t, true
}
