package mapping

import (
	"fmt"

	"github.com/annograph/annograph/attrvalue"
)

// ResolveOptions tweaks the attribute read path.
type ResolveOptions struct {
	// NonMerged disables explicit-alias and convention-override
	// resolution, keeping only mirror enforcement and the
	// declared-site/default fall-throughs — the semantics of
	// MergedAnnotation.WithNonMergedAttributes.
	NonMerged bool
}

// source records which of the four resolution steps produced a raw value,
// needed only to implement the mirror-conflict "shadow" exception below.
type source int

const (
	sourceAlias source = iota
	sourceConvention
	sourceDeclared
	sourceDefault
)

// Resolve resolves attr against the root bundle: the total four-step order
// (alias, convention, declared, default), followed by array coercion and
// mirror enforcement.
func (m *Mapping) Resolve(attr string, root attrvalue.AnnotationInstance, opts ResolveOptions) (attrvalue.Value, error) {
	if set, ok := m.mirrorSetFor(attr); ok {
		return m.enforceMirror(attr, set, root, opts)
	}
	v, _, err := m.resolveChain(attr, root, opts)
	return v, err
}

func (m *Mapping) resolveChain(attr string, root attrvalue.AnnotationInstance, opts ResolveOptions) (attrvalue.Value, source, error) {
	d, ok := m.AnnotationType.Descriptor(attr)
	if !ok {
		return nil, 0, &MissingAttributeError{Annotation: m.AnnotationType.Name, Attribute: attr}
	}

	if !opts.NonMerged {
		if alias, ok := m.Aliases[attr]; ok {
			v, _, err := alias.Target.resolveChain(alias.Attribute, root, opts)
			if err != nil {
				return nil, 0, err
			}
			return attrvalue.CoerceArray(d.Kind, d.ElementKind, v), sourceAlias, nil
		}
		if ancestor, ok := m.ConventionOverrides[attr]; ok {
			v, _, err := ancestor.resolveChain(attr, root, opts)
			if err != nil {
				return nil, 0, err
			}
			return attrvalue.CoerceArray(d.Kind, d.ElementKind, v), sourceConvention, nil
		}
	}

	// The root mapping's DeclaredAttributes is always empty: the
	// per-query root bundle stands in for it here.
	if m.IsRoot() {
		if v, ok := root.Get(attr); ok {
			return attrvalue.CoerceArray(d.Kind, d.ElementKind, v), sourceDeclared, nil
		}
	} else if v, ok := m.DeclaredAttributes[attr]; ok {
		return attrvalue.CoerceArray(d.Kind, d.ElementKind, v), sourceDeclared, nil
	}

	if d.Default == nil {
		return nil, 0, &ConfigError{
			Annotation: m.AnnotationType.Name, Attribute: attr, Path: m.Path(),
			Reason: "attribute has no explicit value at this site and no declared default",
		}
	}
	return attrvalue.CoerceArray(d.Kind, d.ElementKind, d.Default), sourceDefault, nil
}

// enforceMirror applies mirror enforcement for the mirror set containing
// attr.
func (m *Mapping) enforceMirror(attr string, set []string, root attrvalue.AnnotationInstance, opts ResolveOptions) (attrvalue.Value, error) {
	type resolvedMember struct {
		value  attrvalue.Value
		source source
	}
	resolved := make(map[string]resolvedMember, len(set))
	for _, name := range set {
		v, src, err := m.resolveChain(name, root, opts)
		if err != nil {
			return nil, err
		}
		resolved[name] = resolvedMember{v, src}
	}

	var nonDefault []string
	for _, name := range set {
		d, _ := m.AnnotationType.Descriptor(name)
		if !attrvalue.IsDefaultLike(resolved[name].value, d.Default) {
			nonDefault = append(nonDefault, name)
		}
	}

	requested, _ := m.AnnotationType.Descriptor(attr)
	switch len(nonDefault) {
	case 0:
		return requested.Default, nil
	case 1:
		return resolved[nonDefault[0]].value, nil
	}

	first := resolved[nonDefault[0]].value
	agree := true
	for _, name := range nonDefault[1:] {
		if !attrvalue.Equal(resolved[name].value, first) {
			agree = false
			break
		}
	}
	if agree {
		return first, nil
	}

	// Shadow exception: if excluding every nonDefault member whose value
	// was this mapping's own declared-site override resolves the
	// disagreement, the ancestor-derived value wins without error.
	var ancestorDerived []string
	for _, name := range nonDefault {
		if resolved[name].source != sourceDeclared {
			ancestorDerived = append(ancestorDerived, name)
		}
	}
	if len(ancestorDerived) >= 1 && len(ancestorDerived) < len(nonDefault) {
		base := resolved[ancestorDerived[0]].value
		agree = true
		for _, name := range ancestorDerived[1:] {
			if !attrvalue.Equal(resolved[name].value, base) {
				agree = false
				break
			}
		}
		if agree {
			return base, nil
		}
	}

	return nil, &ConfigError{
		Annotation: m.AnnotationType.Name, Attribute: attr, Path: m.Path(),
		Reason: fmt.Sprintf("mirror members %v resolve to conflicting values", set),
	}
}
