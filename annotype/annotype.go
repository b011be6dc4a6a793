// Package annotype holds the metadata shape a TypeResolver hands back for
// an annotation type: its attributes (with declared kind and default value)
// and the meta-annotations declared on the type itself.
package annotype

import "github.com/annograph/annograph/attrvalue"

// AliasDeclaration is the per-attribute AliasFor metadata a resolver
// surfaces for an attribute that declares it mirrors another attribute.
// Both fields have defaults: an empty Annotation means "the immediate
// parent mapping's type"; an empty Attribute means "this attribute's own
// name".
type AliasDeclaration struct {
	Annotation string
	Attribute  string
}

// AttributeDescriptor describes one attribute of an AnnotationType: its
// name, the precise Kind it carries (including array-ness via Kind/
// ElementKind), its declared default if any, and an optional explicit
// AliasFor declaration.
type AttributeDescriptor struct {
	Name        string
	Kind        attrvalue.Kind
	ElementKind attrvalue.Kind // meaningful only when Kind == KindArray
	// NestedType names the annotation type referenced when Kind (or
	// ElementKind, for an array of nested annotations) is KindNested. The
	// NestedValue carries its own type name at the value level, but
	// repeatable-container discovery needs
	// to know the *declared* element type statically, before any instance
	// exists, so resolvers surface it here too.
	NestedType string
	Default    attrvalue.Value // nil when the attribute has no default
	AliasFor   *AliasDeclaration
}

// IsArray reports whether the attribute is declared as an array type.
func (d AttributeDescriptor) IsArray() bool {
	return d.Kind == attrvalue.KindArray
}

// AnnotationType is the metadata a TypeResolver resolves a name to: the
// type's own attributes and the meta-annotations declared on the type
// itself (which is exactly the raw material the BFS closure builder walks).
type AnnotationType struct {
	Name            string
	Attributes      []AttributeDescriptor
	MetaAnnotations []attrvalue.AnnotationInstance
}

// Descriptor looks up an attribute by name.
func (t *AnnotationType) Descriptor(name string) (AttributeDescriptor, bool) {
	for _, d := range t.Attributes {
		if d.Name == name {
			return d, true
		}
	}
	return AttributeDescriptor{}, false
}

// AliasRef points at an attribute in some annotation in the closure —
// usually an ancestor. Used only as a build-time,
// string-keyed intermediate; the built Mapping stores a resolved pointer
// instead (see package mapping).
type AliasRef struct {
	TargetType    string
	AttributeName string
}
