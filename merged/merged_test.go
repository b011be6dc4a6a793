package merged_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/annograph/annograph/annotype"
	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/mapping"
	"github.com/annograph/annograph/merged"
	"github.com/annograph/annograph/resolver"
)

// kitchenSinkResolver registers one annotation type exercising every
// attribute kind the typed getters cover.
func kitchenSinkResolver() *resolver.MapResolver {
	r := resolver.NewMapResolver()
	r.Register(&annotype.AnnotationType{
		Name: "Sink",
		Attributes: []annotype.AttributeDescriptor{
			{Name: "flag", Kind: attrvalue.KindBoolean, Default: attrvalue.BoolValue(false)},
			{Name: "count", Kind: attrvalue.KindInt, Default: attrvalue.IntValue(0)},
			{Name: "big", Kind: attrvalue.KindLong, Default: attrvalue.LongValue(0)},
			{Name: "ratio", Kind: attrvalue.KindDouble, Default: attrvalue.DoubleValue(0)},
			{Name: "label", Kind: attrvalue.KindString, Default: attrvalue.StringValue("")},
			{Name: "target", Kind: attrvalue.KindClassRef, Default: attrvalue.ClassRefValue{Name: "example.Default"}},
			{Name: "mode", Kind: attrvalue.KindEnumRef, Default: attrvalue.EnumRefValue{TypeName: "Mode", ConstantName: "OFF"}},
			{Name: "tags", Kind: attrvalue.KindArray, ElementKind: attrvalue.KindString,
				Default: attrvalue.ArrayValue{ElementKind: attrvalue.KindString}},
			{Name: "inner", Kind: attrvalue.KindNested, NestedType: "Marker",
				Default: attrvalue.NestedValue{Instance: attrvalue.AnnotationInstance{TypeName: "Marker"}}},
		},
	})
	r.Register(&annotype.AnnotationType{
		Name:       "Marker",
		Attributes: []annotype.AttributeDescriptor{strAttr("id", attrvalue.StringValue(""))},
	})
	return r
}

func TestTypedGetters(t *testing.T) {
	r := kitchenSinkResolver()
	anns := fromInstances(r, inst("Sink", map[string]attrvalue.Value{
		"flag":   attrvalue.BoolValue(true),
		"count":  attrvalue.IntValue(7),
		"big":    attrvalue.LongValue(1 << 40),
		"ratio":  attrvalue.DoubleValue(0.5),
		"label":  attrvalue.StringValue("hello"),
		"target": attrvalue.ClassRefValue{Name: "example.Target"},
		"mode":   attrvalue.EnumRefValue{TypeName: "Mode", ConstantName: "ON"},
		"tags": attrvalue.ArrayValue{ElementKind: attrvalue.KindString,
			Elements: []attrvalue.Value{attrvalue.StringValue("a"), attrvalue.StringValue("b")}},
		"inner": attrvalue.NestedValue{Instance: inst("Marker", map[string]attrvalue.Value{"id": attrvalue.StringValue("m1")})},
	}))
	ma := anns.Get("Sink")

	if v, err := ma.Bool("flag"); err != nil || !v {
		t.Errorf("Bool(flag) = %t, %v", v, err)
	}
	if v := mustInt(t, ma, "count"); v != 7 {
		t.Errorf("Int(count) = %d, want 7", v)
	}
	if v, err := ma.Long("big"); err != nil || v != 1<<40 {
		t.Errorf("Long(big) = %d, %v", v, err)
	}
	if v, err := ma.Double("ratio"); err != nil || v != 0.5 {
		t.Errorf("Double(ratio) = %g, %v", v, err)
	}
	if v := mustStr(t, ma, "label"); v != "hello" {
		t.Errorf("Str(label) = %q", v)
	}
	if v, err := ma.Class("target"); err != nil || v != "example.Target" {
		t.Errorf("Class(target) = %q, %v", v, err)
	}
	if tn, cn, err := ma.Enum("mode"); err != nil || tn != "Mode" || cn != "ON" {
		t.Errorf("Enum(mode) = %s.%s, %v", tn, cn, err)
	}
	if v, err := ma.StringArray("tags"); err != nil || !reflect.DeepEqual(v, []string{"a", "b"}) {
		t.Errorf("StringArray(tags) = %v, %v", v, err)
	}

	nested, err := ma.Nested("inner")
	if err != nil {
		t.Fatalf("Nested(inner): %v", err)
	}
	if v := mustStr(t, nested, "id"); v != "m1" {
		t.Errorf("nested id = %q, want m1", v)
	}
}

func TestGetterErrors(t *testing.T) {
	r := kitchenSinkResolver()
	ma := fromInstances(r, inst("Sink", nil)).Get("Sink")

	if _, err := ma.Str("nope"); !errors.Is(err, mapping.ErrMissingAttribute) {
		t.Errorf("Str(nope): got %v, want ErrMissingAttribute", err)
	}
	_, err := ma.Int("label")
	var wrong *merged.WrongKindError
	if !errors.As(err, &wrong) {
		t.Fatalf("Int(label): got %v, want *WrongKindError", err)
	}
	if wrong.Want != attrvalue.KindInt || wrong.Got != attrvalue.KindString {
		t.Errorf("WrongKindError = want %s got %s", wrong.Want, wrong.Got)
	}

	if _, ok := ma.GetAttribute("label", attrvalue.KindInt); ok {
		t.Error("GetAttribute(label, int): want absent on kind mismatch")
	}
	if v, ok := ma.GetAttribute("label", attrvalue.KindString); !ok || v.String() != "" {
		t.Errorf("GetAttribute(label, string) = %v, %t", v, ok)
	}
}

func TestScalarCoercesToArray(t *testing.T) {
	r := kitchenSinkResolver()
	ma := fromInstances(r, inst("Sink", map[string]attrvalue.Value{
		"tags": attrvalue.StringValue("solo"),
	})).Get("Sink")

	v, err := ma.StringArray("tags")
	if err != nil || !reflect.DeepEqual(v, []string{"solo"}) {
		t.Errorf("StringArray(tags) = %v, %v, want [solo]", v, err)
	}
}

func TestHasDefaultValue(t *testing.T) {
	r := kitchenSinkResolver()
	ma := fromInstances(r, inst("Sink", map[string]attrvalue.Value{
		"label": attrvalue.StringValue("set"),
	})).Get("Sink")

	if got, err := ma.HasDefaultValue("label"); err != nil || got {
		t.Errorf("HasDefaultValue(label) = %t, %v, want false", got, err)
	}
	if got, err := ma.HasNonDefaultValue("label"); err != nil || !got {
		t.Errorf("HasNonDefaultValue(label) = %t, %v, want true", got, err)
	}
	if got, err := ma.HasDefaultValue("count"); err != nil || !got {
		t.Errorf("HasDefaultValue(count) = %t, %v, want true", got, err)
	}
}

// TestWithNonMergedAttributes: the non-merged view skips alias and
// convention resolution, exposing the declared-site value instead of the
// root's.
func TestWithNonMergedAttributes(t *testing.T) {
	r := resolver.NewMapResolver()
	r.Register(&annotype.AnnotationType{
		Name:       "Outer",
		Attributes: []annotype.AttributeDescriptor{strAttr("name", attrvalue.StringValue(""))},
		MetaAnnotations: []attrvalue.AnnotationInstance{
			inst("Inner", map[string]attrvalue.Value{"name": attrvalue.StringValue("declared")}),
		},
	})
	r.Register(&annotype.AnnotationType{
		Name: "Inner",
		Attributes: []annotype.AttributeDescriptor{
			{Name: "name", Kind: attrvalue.KindString, Default: attrvalue.StringValue(""),
				AliasFor: &annotype.AliasDeclaration{Annotation: "Outer"}},
		},
	})

	anns := fromInstances(r, inst("Outer", map[string]attrvalue.Value{"name": attrvalue.StringValue("x")}))
	inner := anns.Get("Inner")

	if got := mustStr(t, inner, "name"); got != "x" {
		t.Errorf("merged name = %q, want %q", got, "x")
	}
	if got := mustStr(t, inner.WithNonMergedAttributes(), "name"); got != "declared" {
		t.Errorf("non-merged name = %q, want the declared-site value", got)
	}
}

func TestAsMapOptions(t *testing.T) {
	r := kitchenSinkResolver()
	ma := fromInstances(r, inst("Sink", map[string]attrvalue.Value{
		"label":  attrvalue.StringValue("v"),
		"target": attrvalue.ClassRefValue{Name: "example.Target"},
		"inner":  attrvalue.NestedValue{Instance: inst("Marker", map[string]attrvalue.Value{"id": attrvalue.StringValue("m1")})},
	})).Get("Sink")

	m, err := ma.AsMap(merged.MapOptions{ClassToString: true, AnnotationToMap: true})
	if err != nil {
		t.Fatalf("AsMap: %v", err)
	}
	if m["target"] != "example.Target" {
		t.Errorf("target = %#v, want the bare name string", m["target"])
	}
	nested, ok := m["inner"].(map[string]any)
	if !ok {
		t.Fatalf("inner = %#v, want a nested map", m["inner"])
	}
	if nested["id"] != "m1" {
		t.Errorf("inner.id = %#v, want m1", nested["id"])
	}

	m, err = ma.AsMap(merged.MapOptions{})
	if err != nil {
		t.Fatalf("AsMap: %v", err)
	}
	if _, ok := m["target"].(attrvalue.ClassRefValue); !ok {
		t.Errorf("target = %#v, want a ClassRefValue when ClassToString is off", m["target"])
	}
	if _, ok := m["inner"].(merged.MergedAnnotation); !ok {
		t.Errorf("inner = %#v, want a MergedAnnotation when AnnotationToMap is off", m["inner"])
	}
}

func TestFilterAttributesAndDefaults(t *testing.T) {
	r := kitchenSinkResolver()
	ma := fromInstances(r, inst("Sink", map[string]attrvalue.Value{
		"label": attrvalue.StringValue("v"),
		"count": attrvalue.IntValue(3),
	})).Get("Sink")

	m, err := ma.FilterDefaultValues().AsMap(merged.MapOptions{ClassToString: true, AnnotationToMap: true})
	if err != nil {
		t.Fatalf("AsMap: %v", err)
	}
	if len(m) != 2 || m["label"] != "v" || m["count"] != int32(3) {
		t.Errorf("FilterDefaultValues AsMap = %#v, want only label and count", m)
	}

	m, err = ma.FilterAttributes(func(name string) bool { return name == "label" }).
		AsMap(merged.MapOptions{ClassToString: true, AnnotationToMap: true})
	if err != nil {
		t.Fatalf("AsMap: %v", err)
	}
	if len(m) != 1 || m["label"] != "v" {
		t.Errorf("FilterAttributes AsMap = %#v, want only label", m)
	}
}

func TestAsStruct(t *testing.T) {
	r := intAnnotationResolver()
	ma := fromInstances(r, inst("A", map[string]attrvalue.Value{"v": attrvalue.IntValue(5)})).Get("A")

	s, err := merged.AsStruct(ma)
	if err != nil {
		t.Fatalf("AsStruct: %v", err)
	}
	if got := s.Fields["v"].GetNumberValue(); got != 5 {
		t.Errorf("struct v = %g, want 5", got)
	}
}

func TestMissingView(t *testing.T) {
	ma := merged.Missing

	if ma.IsPresent() || ma.IsDirectlyPresent() || ma.IsMetaPresent() {
		t.Error("Missing: all presence checks must be false")
	}
	if ma.Depth() != -1 || ma.AggregateIndex() != -1 {
		t.Errorf("Missing: depth = %d, aggregateIndex = %d, want -1, -1", ma.Depth(), ma.AggregateIndex())
	}
	if _, err := ma.Type(); !errors.Is(err, merged.ErrMissingAnnotation) {
		t.Errorf("Type(): got %v, want ErrMissingAnnotation", err)
	}
	if _, err := ma.Str("anything"); !errors.Is(err, merged.ErrMissingAnnotation) {
		t.Errorf("Str(): got %v, want ErrMissingAnnotation", err)
	}
	if m, err := ma.AsMap(merged.MapOptions{}); err != nil || len(m) != 0 {
		t.Errorf("AsMap = %v, %v, want empty, nil", m, err)
	}
	if _, ok := ma.Parent(); ok {
		t.Error("Parent: want absent")
	}
}

// TestResolveIsRepeatable: resolving the same attribute twice against the
// same bundle yields equal values.
func TestResolveIsRepeatable(t *testing.T) {
	r := aliasedPairResolver()
	anns := fromInstances(r, inst("Outer", map[string]attrvalue.Value{"name": attrvalue.StringValue("x")}))
	inner := anns.Get("Inner")

	first, err := inner.Value("name")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	second, err := inner.Value("name")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if !attrvalue.Equal(first, second) {
		t.Errorf("repeated resolution differs: %v vs %v", first, second)
	}
}
