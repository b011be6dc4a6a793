// Package repeatable implements RepeatableContainers: the policy object
// that detects and transparently unwraps a container annotation holding an
// array of a repeatable inner annotation.
package repeatable

import (
	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/resolver"
)

// DefaultMarker is the meta-annotation type name Standard-form discovery
// looks for on a candidate contained type, analogous to
// java.lang.annotation.Repeatable. It can be overridden with WithMarker.
const DefaultMarker = "Repeatable"

type mode int

const (
	modeNone mode = iota
	modeStandard
	modeExplicit
)

// Containers is RepeatableContainers: for any AnnotationInstance, it
// answers whether the instance is a container whose "value" attribute is
// an array of contained-type instances, and if so, returns that array.
type Containers struct {
	mode     mode
	resolver resolver.TypeResolver
	marker   string
	explicit map[string]string // container type name -> contained type name
}

// Option configures a Containers built via Standard.
type Option func(*Containers)

// WithMarker overrides the meta-annotation type name Standard-form
// discovery treats as marking a type repeatable (default DefaultMarker).
func WithMarker(typeName string) Option {
	return func(c *Containers) { c.marker = typeName }
}

// None returns a Containers that never unwraps anything.
func None() *Containers {
	return &Containers{mode: modeNone}
}

// Standard returns a Containers that discovers container/contained pairs
// reflectively via r: C has
// exactly one attribute named "value" of kind Array<Nested>, whose nested
// type A declares the marker meta-annotation naming C as its container.
func Standard(r resolver.TypeResolver, opts ...Option) *Containers {
	c := &Containers{mode: modeStandard, resolver: r, marker: DefaultMarker}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Explicit returns a Containers configured from caller-supplied
// container->contained type name pairs, bypassing reflective discovery
// entirely.
func Explicit(pairs map[string]string) *Containers {
	cp := make(map[string]string, len(pairs))
	for k, v := range pairs {
		cp[k] = v
	}
	return &Containers{mode: modeExplicit, explicit: cp}
}

// Unwrap reports whether instance is a repeatable container and, if so,
// returns its contained elements in declared array order. Containers never
// participate in mapping as first-class annotations themselves: once
// unwrapped, only the elements are mapped.
func (c *Containers) Unwrap(instance attrvalue.AnnotationInstance) ([]attrvalue.AnnotationInstance, bool) {
	switch c.mode {
	case modeNone:
		return nil, false
	case modeExplicit:
		if _, ok := c.explicit[instance.TypeName]; !ok {
			return nil, false
		}
	case modeStandard:
		if !c.isStandardContainer(instance.TypeName) {
			return nil, false
		}
	default:
		return nil, false
	}
	return elementsOf(instance)
}

func elementsOf(instance attrvalue.AnnotationInstance) ([]attrvalue.AnnotationInstance, bool) {
	v, ok := instance.Get("value")
	if !ok {
		return nil, false
	}
	arr, ok := v.(attrvalue.ArrayValue)
	if !ok {
		return nil, false
	}
	result := make([]attrvalue.AnnotationInstance, 0, len(arr.Elements))
	for _, e := range arr.Elements {
		nested, ok := e.(attrvalue.NestedValue)
		if !ok {
			return nil, false
		}
		result = append(result, nested.Instance)
	}
	return result, true
}

func (c *Containers) isStandardContainer(containerType string) bool {
	ct, ok := c.resolver.Resolve(containerType)
	if !ok || len(ct.Attributes) != 1 {
		return false
	}
	d := ct.Attributes[0]
	if d.Name != "value" || !d.IsArray() || d.ElementKind != attrvalue.KindNested || d.NestedType == "" {
		return false
	}
	at, ok := c.resolver.Resolve(d.NestedType)
	if !ok {
		return false
	}
	for _, ma := range at.MetaAnnotations {
		if ma.TypeName != c.marker {
			continue
		}
		ref, ok := ma.Get("value")
		if !ok {
			continue
		}
		if cref, ok := ref.(attrvalue.ClassRefValue); ok && cref.Name == containerType {
			return true
		}
	}
	return false
}
