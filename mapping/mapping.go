// Package mapping implements AnnotationTypeMapping: one node in the
// meta-annotation closure for some root annotation type, together with the
// BFS closure builder and the attribute-mapping read-path plan. The
// process-wide cache that sits on top of a built closure lives
// in package mappingcache.
package mapping

import (
	"github.com/annograph/annograph/annotype"
	"github.com/annograph/annograph/attrvalue"
)

// Alias is a resolved alias reference: rather than keep a string type name
// around for every read, the build pass resolves it once to
// the ancestor Mapping it actually points at.
type Alias struct {
	Target    *Mapping
	Attribute string
}

// Mapping is one node in a root's closure: the type it is for, its depth
// from the root, its parent in the same closure (nil for the root), the
// raw attributes declared at the meta-annotation declaration site, and the
// alias/mirror/convention plan computed by the post-pass build step.
type Mapping struct {
	AnnotationType *annotype.AnnotationType
	Depth          int
	Parent         *Mapping

	// DeclaredAttributes is the value the *parent* annotation passed when
	// declaring this meta-annotation. Always empty for the root — the
	// root's attribute values come from the per-query root bundle passed
	// to Resolve, never from this field.
	DeclaredAttributes map[string]attrvalue.Value

	Aliases             map[string]Alias
	MirrorSets          [][]string
	mirrorSetIndex      map[string]int
	ConventionOverrides map[string]*Mapping
}

func newMapping(t *annotype.AnnotationType, parent *Mapping, depth int, declared map[string]attrvalue.Value) *Mapping {
	return &Mapping{
		AnnotationType:      t,
		Depth:               depth,
		Parent:              parent,
		DeclaredAttributes:  declared,
		Aliases:             make(map[string]Alias),
		ConventionOverrides: make(map[string]*Mapping),
	}
}

// IsRoot reports whether m is the root mapping of its closure (depth 0).
func (m *Mapping) IsRoot() bool {
	return m.Parent == nil
}

// Root walks up to the root mapping of m's closure.
func (m *Mapping) Root() *Mapping {
	cur := m
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// Path renders the root -> … -> m chain of type names, used in
// configuration error messages.
func (m *Mapping) Path() []string {
	var rev []string
	for cur := m; cur != nil; cur = cur.Parent {
		rev = append(rev, cur.AnnotationType.Name)
	}
	path := make([]string, len(rev))
	for i, name := range rev {
		path[len(rev)-1-i] = name
	}
	return path
}

// strictAncestorOfType searches m's parent chain (excluding m itself) for
// a mapping of the given annotation type name: an alias's target must be
// the root or a strict ancestor.
func (m *Mapping) strictAncestorOfType(name string) *Mapping {
	for cur := m.Parent; cur != nil; cur = cur.Parent {
		if cur.AnnotationType.Name == name {
			return cur
		}
	}
	return nil
}

// mirrorSetFor returns the mirror set containing attr, if any.
func (m *Mapping) mirrorSetFor(attr string) ([]string, bool) {
	idx, ok := m.mirrorSetIndex[attr]
	if !ok {
		return nil, false
	}
	return m.MirrorSets[idx], true
}
