package mapping

import (
	"fmt"

	"github.com/annograph/annograph/annotype"
	"github.com/annograph/annograph/attrvalue"
)

// afterAllMappingsSet is the single post-pass run once BFS discovery
// finishes: it builds
// m's aliases map, mirror sets, and convention overrides. It only ever
// looks at m's own attributes and m's ancestor chain (already fully wired
// by the time BFS finishes), never at sibling branches.
func (m *Mapping) afterAllMappingsSet() error {
	selfPairs, err := m.buildAliases()
	if err != nil {
		return err
	}
	if err := m.buildMirrorSets(selfPairs); err != nil {
		return err
	}
	m.buildConventionOverrides()
	return nil
}

// buildAliases resolves each attribute's explicit AliasFor declaration.
// Aliases targeting another annotation in the
// closure populate m.Aliases; aliases targeting this same annotation
// (possibly the same attribute) are instead returned as self-alias pairs
// for buildMirrorSets to close transitively.
func (m *Mapping) buildAliases() ([][2]string, error) {
	var selfPairs [][2]string
	for _, d := range m.AnnotationType.Attributes {
		if d.AliasFor == nil {
			continue
		}
		targetType := d.AliasFor.Annotation
		targetAttr := d.AliasFor.Attribute
		if targetAttr == "" {
			targetAttr = d.Name
		}
		if targetType == "" {
			if m.Parent == nil {
				return nil, &ConfigError{
					Annotation: m.AnnotationType.Name, Attribute: d.Name, Path: m.Path(),
					Reason: "AliasFor with no explicit annotation has no immediate parent to default to (this is the root mapping)",
				}
			}
			targetType = m.Parent.AnnotationType.Name
		}

		if targetType == m.AnnotationType.Name {
			if targetAttr == d.Name {
				// Trivial self-reference: a mirror set of size 1 needs no
				// enforcement, so it is simply not recorded.
				continue
			}
			selfPairs = append(selfPairs, [2]string{d.Name, targetAttr})
			continue
		}

		ancestor := m.strictAncestorOfType(targetType)
		if ancestor == nil {
			return nil, &ConfigError{
				Annotation: m.AnnotationType.Name, Attribute: d.Name, Path: m.Path(),
				Reason: fmt.Sprintf("alias target %q is not the root or an ancestor of %q", targetType, m.AnnotationType.Name),
			}
		}
		targetDescriptor, ok := ancestor.AnnotationType.Descriptor(targetAttr)
		if !ok {
			return nil, &ConfigError{
				Annotation: m.AnnotationType.Name, Attribute: d.Name, Path: m.Path(),
				Reason: fmt.Sprintf("alias target attribute %q does not exist on %q", targetAttr, targetType),
			}
		}
		if !kindsCompatible(d, targetDescriptor) {
			return nil, &ConfigError{
				Annotation: m.AnnotationType.Name, Attribute: d.Name, Path: m.Path(),
				Reason: fmt.Sprintf("alias target %s.%s has incompatible kind %s (expected %s)", targetType, targetAttr, targetDescriptor.Kind, d.Kind),
			}
		}
		if targetDescriptor.AliasFor == nil && !defaultsCompatible(d, targetDescriptor) {
			return nil, &ConfigError{
				Annotation: m.AnnotationType.Name, Attribute: d.Name, Path: m.Path(),
				Reason: fmt.Sprintf("alias target %s.%s has a different default value and no further override is possible", targetType, targetAttr),
			}
		}
		m.Aliases[d.Name] = Alias{Target: ancestor, Attribute: targetAttr}
	}
	return selfPairs, nil
}

// buildMirrorSets takes the transitive closure of the self-alias pairs
// collected by buildAliases, validating that every pair of members in a
// resulting set shares a compatible kind and an equal declared default.
func (m *Mapping) buildMirrorSets(selfPairs [][2]string) error {
	if len(selfPairs) == 0 {
		return nil
	}
	parent := map[string]string{}
	find := func(x string) string {
		for parent[x] != x && parent[x] != "" {
			x = parent[x]
		}
		return x
	}
	var union func(a, b string)
	union = func(a, b string) {
		if _, ok := parent[a]; !ok {
			parent[a] = a
		}
		if _, ok := parent[b]; !ok {
			parent[b] = b
		}
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, p := range selfPairs {
		union(p[0], p[1])
	}

	groups := map[string][]string{}
	for attr := range parent {
		root := find(attr)
		groups[root] = append(groups[root], attr)
	}

	m.mirrorSetIndex = map[string]int{}
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		first, ok := m.AnnotationType.Descriptor(members[0])
		if !ok {
			return &ConfigError{Annotation: m.AnnotationType.Name, Attribute: members[0], Path: m.Path(), Reason: "mirror member attribute does not exist"}
		}
		for _, other := range members[1:] {
			d, ok := m.AnnotationType.Descriptor(other)
			if !ok {
				return &ConfigError{Annotation: m.AnnotationType.Name, Attribute: other, Path: m.Path(), Reason: "mirror member attribute does not exist"}
			}
			if !kindsCompatible(first, d) {
				return &ConfigError{
					Annotation: m.AnnotationType.Name, Attribute: other, Path: m.Path(),
					Reason: fmt.Sprintf("mirror member %s has incompatible kind %s with mirror member %s (%s)", other, d.Kind, members[0], first.Kind),
				}
			}
			if !defaultsCompatible(first, d) {
				return &ConfigError{
					Annotation: m.AnnotationType.Name, Attribute: other, Path: m.Path(),
					Reason: fmt.Sprintf("mirror members %s and %s declare different default values", members[0], other),
				}
			}
		}
		idx := len(m.MirrorSets)
		m.MirrorSets = append(m.MirrorSets, members)
		for _, attr := range members {
			m.mirrorSetIndex[attr] = idx
		}
	}
	return nil
}

// buildConventionOverrides marks convention-inherited attributes: for every
// attribute not named "value" and not already explicitly aliased, if the
// nearest strict ancestor declares an attribute of the same name and
// compatible kind, it is marked as convention-overridden by that ancestor.
func (m *Mapping) buildConventionOverrides() {
	for _, d := range m.AnnotationType.Attributes {
		if d.Name == "value" {
			continue
		}
		if _, explicit := m.Aliases[d.Name]; explicit {
			continue
		}
		for cur := m.Parent; cur != nil; cur = cur.Parent {
			anc, ok := cur.AnnotationType.Descriptor(d.Name)
			if ok && kindsCompatible(d, anc) {
				m.ConventionOverrides[d.Name] = cur
				break
			}
		}
	}
}

func kindsCompatible(a, b annotype.AttributeDescriptor) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == attrvalue.KindArray {
		return a.ElementKind == b.ElementKind
	}
	return true
}

func defaultsCompatible(a, b annotype.AttributeDescriptor) bool {
	return attrvalue.Equal(a.Default, b.Default)
}
