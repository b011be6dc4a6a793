// Package merged implements the read-only query surface over a built
// mapping.Mapping plus its root attribute bundle (MergedAnnotation) and the
// aggregate-aware collection built on top of it (Annotations). There are
// exactly three concrete shapes: mapped (a present, mapping-backed view),
// missing (the singleton absent view), and Annotations (the collection).
package merged

import (
	"errors"
	"fmt"

	"github.com/annograph/annograph/annofilter"
	"github.com/annograph/annograph/annotype"
	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/mapping"
	"github.com/annograph/annograph/mappingcache"
	"github.com/annograph/annograph/repeatable"
)

// MergedAnnotation is the merged, aliased view of one annotation. Typed
// getters return a *MissingAttributeError-wrapping error for an attribute
// the annotation type doesn't declare, or a *WrongKindError when the
// attribute exists but holds a value of a different concrete Kind than
// requested.
type MergedAnnotation interface {
	Type() (string, error)
	IsPresent() bool
	IsDirectlyPresent() bool
	IsMetaPresent() bool
	Depth() int
	AggregateIndex() int
	Parent() (MergedAnnotation, bool)

	Attributes() []string
	Descriptor(name string) (annotype.AttributeDescriptor, bool)

	Bool(name string) (bool, error)
	Byte(name string) (int8, error)
	Char(name string) (rune, error)
	Short(name string) (int16, error)
	Int(name string) (int32, error)
	Long(name string) (int64, error)
	Float(name string) (float32, error)
	Double(name string) (float64, error)
	Str(name string) (string, error)
	Class(name string) (string, error)
	Enum(name string) (typeName, constantName string, err error)
	Nested(name string) (MergedAnnotation, error)
	Array(name string) ([]attrvalue.Value, error)
	BoolArray(name string) ([]bool, error)
	IntArray(name string) ([]int32, error)
	StringArray(name string) ([]string, error)

	Value(name string) (attrvalue.Value, error)
	GetAttribute(name string, kind attrvalue.Kind) (attrvalue.Value, bool)
	HasDefaultValue(name string) (bool, error)
	HasNonDefaultValue(name string) (bool, error)

	FilterAttributes(predicate func(name string) bool) MergedAnnotation
	FilterDefaultValues() MergedAnnotation
	WithNonMergedAttributes() MergedAnnotation

	AsMap(opts MapOptions) (map[string]any, error)
}

// MapOptions controls AsMap rendering.
type MapOptions struct {
	// ClassToString renders ClassRefValue as its bare name string rather
	// than leaving it as an attrvalue.ClassRefValue.
	ClassToString bool
	// AnnotationToMap recursively converts nested annotations to
	// map[string]any rather than leaving them as a MergedAnnotation.
	AnnotationToMap bool
}

// ErrMissingAnnotation is wrapped by every error the Missing singleton's
// getters return.
var ErrMissingAnnotation = errors.New("annograph: annotation is missing")

// MissingAnnotationError is returned by every getter (including Type) on
// the Missing singleton view.
type MissingAnnotationError struct{}

func (e *MissingAnnotationError) Error() string { return ErrMissingAnnotation.Error() }
func (e *MissingAnnotationError) Unwrap() error { return ErrMissingAnnotation }

// WrongKindError is returned when an attribute exists but does not hold a
// value of the Kind the typed getter asked for.
type WrongKindError struct {
	Annotation, Attribute string
	Want, Got             attrvalue.Kind
}

func (e *WrongKindError) Error() string {
	return fmt.Sprintf("annograph: %s.%s is a %s, not a %s", e.Annotation, e.Attribute, e.Got, e.Want)
}

type missing struct{}

// Missing is the singleton "missing-annotation" view.
var Missing MergedAnnotation = missing{}

func (missing) Type() (string, error) { return "", &MissingAnnotationError{} }
func (missing) IsPresent() bool          { return false }
func (missing) IsDirectlyPresent() bool  { return false }
func (missing) IsMetaPresent() bool      { return false }
func (missing) Depth() int               { return -1 }
func (missing) AggregateIndex() int      { return -1 }
func (missing) Parent() (MergedAnnotation, bool) { return Missing, false }
func (missing) Attributes() []string     { return nil }
func (missing) Descriptor(string) (annotype.AttributeDescriptor, bool) {
	return annotype.AttributeDescriptor{}, false
}
func (missing) Bool(string) (bool, error)     { return false, &MissingAnnotationError{} }
func (missing) Byte(string) (int8, error)     { return 0, &MissingAnnotationError{} }
func (missing) Char(string) (rune, error)     { return 0, &MissingAnnotationError{} }
func (missing) Short(string) (int16, error)   { return 0, &MissingAnnotationError{} }
func (missing) Int(string) (int32, error)     { return 0, &MissingAnnotationError{} }
func (missing) Long(string) (int64, error)    { return 0, &MissingAnnotationError{} }
func (missing) Float(string) (float32, error) { return 0, &MissingAnnotationError{} }
func (missing) Double(string) (float64, error) { return 0, &MissingAnnotationError{} }
func (missing) Str(string) (string, error)    { return "", &MissingAnnotationError{} }
func (missing) Class(string) (string, error)  { return "", &MissingAnnotationError{} }
func (missing) Enum(string) (string, string, error) {
	return "", "", &MissingAnnotationError{}
}
func (missing) Nested(string) (MergedAnnotation, error) {
	return Missing, &MissingAnnotationError{}
}
func (missing) Array(string) ([]attrvalue.Value, error) { return nil, &MissingAnnotationError{} }
func (missing) BoolArray(string) ([]bool, error)         { return nil, &MissingAnnotationError{} }
func (missing) IntArray(string) ([]int32, error)         { return nil, &MissingAnnotationError{} }
func (missing) StringArray(string) ([]string, error)     { return nil, &MissingAnnotationError{} }
func (missing) Value(string) (attrvalue.Value, error) { return nil, &MissingAnnotationError{} }
func (missing) GetAttribute(string, attrvalue.Kind) (attrvalue.Value, bool) { return nil, false }
func (missing) HasDefaultValue(string) (bool, error)    { return false, &MissingAnnotationError{} }
func (missing) HasNonDefaultValue(string) (bool, error) { return false, &MissingAnnotationError{} }
func (m missing) FilterAttributes(func(string) bool) MergedAnnotation { return m }
func (m missing) FilterDefaultValues() MergedAnnotation                { return m }
func (m missing) WithNonMergedAttributes() MergedAnnotation            { return m }
func (missing) AsMap(MapOptions) (map[string]any, error) { return map[string]any{}, nil }

// mapped is the "Mapped" variant: a present view backed by a
// mapping.Mapping and the per-query root attribute bundle it resolves
// against.
type mapped struct {
	mapping        *mapping.Mapping
	root           attrvalue.AnnotationInstance
	aggregateIndex int
	opts           mapping.ResolveOptions
	include        func(name string) bool
	filterDefaults bool

	cache      *mappingcache.Cache
	filter     annofilter.Filter
	containers *repeatable.Containers
}

func newMapped(m *mapping.Mapping, root attrvalue.AnnotationInstance, aggregateIndex int, cache *mappingcache.Cache, filter annofilter.Filter, containers *repeatable.Containers) *mapped {
	return &mapped{mapping: m, root: root, aggregateIndex: aggregateIndex, cache: cache, filter: filter, containers: containers}
}

var _ MergedAnnotation = (*mapped)(nil)

func (m *mapped) clone() *mapped {
	cp := *m
	return &cp
}

func (m *mapped) Type() (string, error) { return m.mapping.AnnotationType.Name, nil }
func (m *mapped) IsPresent() bool         { return true }
func (m *mapped) IsDirectlyPresent() bool { return m.mapping.IsRoot() && m.aggregateIndex == 0 }
func (m *mapped) IsMetaPresent() bool     { return !m.mapping.IsRoot() }
func (m *mapped) Depth() int              { return m.mapping.Depth }
func (m *mapped) AggregateIndex() int     { return m.aggregateIndex }

func (m *mapped) Parent() (MergedAnnotation, bool) {
	if m.mapping.Parent == nil {
		return Missing, false
	}
	p := newMapped(m.mapping.Parent, m.root, m.aggregateIndex, m.cache, m.filter, m.containers)
	p.opts, p.include, p.filterDefaults = m.opts, m.include, m.filterDefaults
	return p, true
}

func (m *mapped) Attributes() []string {
	names := make([]string, len(m.mapping.AnnotationType.Attributes))
	for i, d := range m.mapping.AnnotationType.Attributes {
		names[i] = d.Name
	}
	return names
}

func (m *mapped) Descriptor(name string) (annotype.AttributeDescriptor, bool) {
	return m.mapping.AnnotationType.Descriptor(name)
}

func (m *mapped) resolve(name string) (attrvalue.Value, error) {
	return m.mapping.Resolve(name, m.root, m.opts)
}

func (m *mapped) Bool(name string) (bool, error) {
	v, err := m.resolve(name)
	if err != nil {
		return false, err
	}
	bv, ok := v.(attrvalue.BoolValue)
	if !ok {
		return false, m.wrongKind(name, attrvalue.KindBoolean, v.Kind())
	}
	return bool(bv), nil
}

func (m *mapped) Byte(name string) (int8, error) {
	v, err := m.resolve(name)
	if err != nil {
		return 0, err
	}
	bv, ok := v.(attrvalue.ByteValue)
	if !ok {
		return 0, m.wrongKind(name, attrvalue.KindByte, v.Kind())
	}
	return int8(bv), nil
}

func (m *mapped) Char(name string) (rune, error) {
	v, err := m.resolve(name)
	if err != nil {
		return 0, err
	}
	cv, ok := v.(attrvalue.CharValue)
	if !ok {
		return 0, m.wrongKind(name, attrvalue.KindChar, v.Kind())
	}
	return rune(cv), nil
}

func (m *mapped) Short(name string) (int16, error) {
	v, err := m.resolve(name)
	if err != nil {
		return 0, err
	}
	sv, ok := v.(attrvalue.ShortValue)
	if !ok {
		return 0, m.wrongKind(name, attrvalue.KindShort, v.Kind())
	}
	return int16(sv), nil
}

func (m *mapped) Int(name string) (int32, error) {
	v, err := m.resolve(name)
	if err != nil {
		return 0, err
	}
	iv, ok := v.(attrvalue.IntValue)
	if !ok {
		return 0, m.wrongKind(name, attrvalue.KindInt, v.Kind())
	}
	return int32(iv), nil
}

func (m *mapped) Long(name string) (int64, error) {
	v, err := m.resolve(name)
	if err != nil {
		return 0, err
	}
	lv, ok := v.(attrvalue.LongValue)
	if !ok {
		return 0, m.wrongKind(name, attrvalue.KindLong, v.Kind())
	}
	return int64(lv), nil
}

func (m *mapped) Float(name string) (float32, error) {
	v, err := m.resolve(name)
	if err != nil {
		return 0, err
	}
	fv, ok := v.(attrvalue.FloatValue)
	if !ok {
		return 0, m.wrongKind(name, attrvalue.KindFloat, v.Kind())
	}
	return float32(fv), nil
}

func (m *mapped) Double(name string) (float64, error) {
	v, err := m.resolve(name)
	if err != nil {
		return 0, err
	}
	dv, ok := v.(attrvalue.DoubleValue)
	if !ok {
		return 0, m.wrongKind(name, attrvalue.KindDouble, v.Kind())
	}
	return float64(dv), nil
}

func (m *mapped) Str(name string) (string, error) {
	v, err := m.resolve(name)
	if err != nil {
		return "", err
	}
	sv, ok := v.(attrvalue.StringValue)
	if !ok {
		return "", m.wrongKind(name, attrvalue.KindString, v.Kind())
	}
	return string(sv), nil
}

func (m *mapped) Class(name string) (string, error) {
	v, err := m.resolve(name)
	if err != nil {
		return "", err
	}
	cv, ok := v.(attrvalue.ClassRefValue)
	if !ok {
		return "", m.wrongKind(name, attrvalue.KindClassRef, v.Kind())
	}
	return cv.Name, nil
}

func (m *mapped) Enum(name string) (string, string, error) {
	v, err := m.resolve(name)
	if err != nil {
		return "", "", err
	}
	ev, ok := v.(attrvalue.EnumRefValue)
	if !ok {
		return "", "", m.wrongKind(name, attrvalue.KindEnumRef, v.Kind())
	}
	return ev.TypeName, ev.ConstantName, nil
}

func (m *mapped) Nested(name string) (MergedAnnotation, error) {
	v, err := m.resolve(name)
	if err != nil {
		return Missing, err
	}
	nv, ok := v.(attrvalue.NestedValue)
	if !ok {
		return Missing, m.wrongKind(name, attrvalue.KindNested, v.Kind())
	}
	return m.mergeNested(nv.Instance), nil
}

func (m *mapped) Array(name string) ([]attrvalue.Value, error) {
	v, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	av, ok := v.(attrvalue.ArrayValue)
	if !ok {
		return nil, m.wrongKind(name, attrvalue.KindArray, v.Kind())
	}
	return av.Elements, nil
}

func (m *mapped) BoolArray(name string) ([]bool, error) {
	elems, err := m.Array(name)
	if err != nil {
		return nil, err
	}
	out := make([]bool, 0, len(elems))
	for _, e := range elems {
		bv, ok := e.(attrvalue.BoolValue)
		if !ok {
			return nil, m.wrongKind(name, attrvalue.KindBoolean, e.Kind())
		}
		out = append(out, bool(bv))
	}
	return out, nil
}

func (m *mapped) IntArray(name string) ([]int32, error) {
	elems, err := m.Array(name)
	if err != nil {
		return nil, err
	}
	out := make([]int32, 0, len(elems))
	for _, e := range elems {
		iv, ok := e.(attrvalue.IntValue)
		if !ok {
			return nil, m.wrongKind(name, attrvalue.KindInt, e.Kind())
		}
		out = append(out, int32(iv))
	}
	return out, nil
}

func (m *mapped) StringArray(name string) ([]string, error) {
	elems, err := m.Array(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		sv, ok := e.(attrvalue.StringValue)
		if !ok {
			return nil, m.wrongKind(name, attrvalue.KindString, e.Kind())
		}
		out = append(out, string(sv))
	}
	return out, nil
}

// Value is a total, error-returning accessor for the raw resolved value of
// name, with no Kind filtering — the primitive every typed getter and
// GetAttribute build on.
func (m *mapped) Value(name string) (attrvalue.Value, error) {
	return m.resolve(name)
}

func (m *mapped) GetAttribute(name string, kind attrvalue.Kind) (attrvalue.Value, bool) {
	v, err := m.resolve(name)
	if err != nil {
		return nil, false
	}
	if kind != attrvalue.KindInvalid && v.Kind() != kind {
		return nil, false
	}
	return v, true
}

func (m *mapped) HasDefaultValue(name string) (bool, error) {
	d, ok := m.mapping.AnnotationType.Descriptor(name)
	if !ok {
		return false, &mapping.MissingAttributeError{Annotation: m.mapping.AnnotationType.Name, Attribute: name}
	}
	v, err := m.resolve(name)
	if err != nil {
		return false, err
	}
	return attrvalue.IsDefaultLike(v, d.Default), nil
}

func (m *mapped) HasNonDefaultValue(name string) (bool, error) {
	has, err := m.HasDefaultValue(name)
	if err != nil {
		return false, err
	}
	return !has, nil
}

func (m *mapped) FilterAttributes(predicate func(name string) bool) MergedAnnotation {
	cp := m.clone()
	prev := cp.include
	cp.include = func(name string) bool {
		if prev != nil && !prev(name) {
			return false
		}
		return predicate(name)
	}
	return cp
}

func (m *mapped) FilterDefaultValues() MergedAnnotation {
	cp := m.clone()
	cp.filterDefaults = true
	return cp
}

func (m *mapped) WithNonMergedAttributes() MergedAnnotation {
	cp := m.clone()
	cp.opts.NonMerged = true
	return cp
}

func (m *mapped) wrongKind(name string, want, got attrvalue.Kind) error {
	return &WrongKindError{Annotation: m.mapping.AnnotationType.Name, Attribute: name, Want: want, Got: got}
}

// mergeNested builds a MergedAnnotation view for a nested annotation found
// as an attribute value, using this view's own cache/filter/containers so
// the nested type's own meta-annotation closure is resolved consistently
// with the rest of the query. Without a wired cache (a mapped value built
// without one), nested annotations cannot be merged and the Missing view
// is returned — this never happens for views produced by package merged's
// own collection, only for a mapped constructed directly by a caller.
func (m *mapped) mergeNested(inst attrvalue.AnnotationInstance) MergedAnnotation {
	if m.cache == nil {
		return Missing
	}
	closure, err := m.cache.Get(m.filter, inst.TypeName)
	if err != nil {
		return Missing
	}
	root, ok := closure.Lookup(inst.TypeName)
	if !ok {
		return Missing
	}
	return newMapped(root, inst, m.aggregateIndex, m.cache, m.filter, m.containers)
}
