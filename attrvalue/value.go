package attrvalue

import "fmt"

// Value is the closed sum type for a legal annotation attribute value.
// Every variant below is a concrete, comparable-by-value Go type rather than
// an untyped holder; consumers match on Kind() rather than asserting a
// concrete type blindly.
type Value interface {
	Kind() Kind
	String() string
}

// AnnotationInstance is the raw bundle of attribute values seen on a
// declaration site — either directly on a program element, or as the
// values a parent annotation passed when declaring a meta-annotation.
// Attributes not explicitly present are simply absent from Values; their
// default comes from the AttributeDescriptor, never from this struct.
type AnnotationInstance struct {
	TypeName string
	Values   map[string]Value
}

// Get returns the explicitly-present value for name, if any. It does not
// consult defaults — callers that need default fallback go through a
// mapping's resolve path instead.
func (a AnnotationInstance) Get(name string) (Value, bool) {
	if a.Values == nil {
		return nil, false
	}
	v, ok := a.Values[name]
	return v, ok
}

type BoolValue bool

func (BoolValue) Kind() Kind      { return KindBoolean }
func (v BoolValue) String() string { return fmt.Sprintf("%t", bool(v)) }

type ByteValue int8

func (ByteValue) Kind() Kind       { return KindByte }
func (v ByteValue) String() string { return fmt.Sprintf("%d", int8(v)) }

type CharValue uint16

func (CharValue) Kind() Kind       { return KindChar }
func (v CharValue) String() string { return string(rune(v)) }

type ShortValue int16

func (ShortValue) Kind() Kind       { return KindShort }
func (v ShortValue) String() string { return fmt.Sprintf("%d", int16(v)) }

type IntValue int32

func (IntValue) Kind() Kind       { return KindInt }
func (v IntValue) String() string { return fmt.Sprintf("%d", int32(v)) }

type LongValue int64

func (LongValue) Kind() Kind       { return KindLong }
func (v LongValue) String() string { return fmt.Sprintf("%d", int64(v)) }

type FloatValue float32

func (FloatValue) Kind() Kind       { return KindFloat }
func (v FloatValue) String() string { return fmt.Sprintf("%g", float32(v)) }

type DoubleValue float64

func (DoubleValue) Kind() Kind       { return KindDouble }
func (v DoubleValue) String() string { return fmt.Sprintf("%g", float64(v)) }

type StringValue string

func (StringValue) Kind() Kind       { return KindString }
func (v StringValue) String() string { return string(v) }

// ClassRefValue is the canonical form of a class-typed attribute value: a
// fully qualified type name. Conversion to/from a loaded type handle is an
// adapter-boundary concern (synthesize package), never performed here.
type ClassRefValue struct {
	Name string
}

func (ClassRefValue) Kind() Kind          { return KindClassRef }
func (v ClassRefValue) String() string    { return v.Name }

// EnumRefValue identifies an enum constant by its declaring type and the
// constant's own name.
type EnumRefValue struct {
	TypeName     string
	ConstantName string
}

func (EnumRefValue) Kind() Kind { return KindEnumRef }
func (v EnumRefValue) String() string {
	return fmt.Sprintf("%s.%s", v.TypeName, v.ConstantName)
}

// NestedValue wraps a raw AnnotationInstance found as an attribute value
// (e.g. @Outer(nested = @Inner(...))).
type NestedValue struct {
	Instance AnnotationInstance
}

func (NestedValue) Kind() Kind       { return KindNested }
func (v NestedValue) String() string { return "@" + v.Instance.TypeName }

// ArrayValue is a homogeneous array of attribute values of a single element
// Kind. An empty array still carries its ElementKind so that mirror
// enforcement and array coercion can reason about it.
type ArrayValue struct {
	ElementKind Kind
	Elements    []Value
}

func (ArrayValue) Kind() Kind { return KindArray }
func (v ArrayValue) String() string {
	s := "{"
	for i, e := range v.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + "}"
}
