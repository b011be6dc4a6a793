package synthesize_test

import (
	"reflect"
	"testing"

	"github.com/annograph/annograph/annofilter"
	"github.com/annograph/annograph/annotype"
	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/mappingcache"
	"github.com/annograph/annograph/merged"
	"github.com/annograph/annograph/repeatable"
	"github.com/annograph/annograph/resolver"
	"github.com/annograph/annograph/synthesize"
)

func serviceResolver() *resolver.MapResolver {
	r := resolver.NewMapResolver()
	r.Register(&annotype.AnnotationType{
		Name: "Service",
		Attributes: []annotype.AttributeDescriptor{
			{Name: "name", Kind: attrvalue.KindString, Default: attrvalue.StringValue("")},
			{Name: "order", Kind: attrvalue.KindInt, Default: attrvalue.IntValue(0)},
			{Name: "lazy", Kind: attrvalue.KindBoolean, Default: attrvalue.BoolValue(false)},
			{Name: "target", Kind: attrvalue.KindClassRef, Default: attrvalue.ClassRefValue{Name: "example.Object"}},
			{Name: "profiles", Kind: attrvalue.KindArray, ElementKind: attrvalue.KindString,
				Default: attrvalue.ArrayValue{ElementKind: attrvalue.KindString}},
		},
	})
	return r
}

func serviceView(t *testing.T, r resolver.TypeResolver, values map[string]attrvalue.Value) merged.MergedAnnotation {
	t.Helper()
	anns := merged.FromInstances("test",
		[]attrvalue.AnnotationInstance{{TypeName: "Service", Values: values}},
		mappingcache.New(r, repeatable.None()), repeatable.None(), annofilter.None())
	ma := anns.Get("Service")
	if !ma.IsPresent() {
		t.Fatal("Get(Service): want a present view")
	}
	return ma
}

type serviceStruct struct {
	Name     string `annotation:"name"`
	Order    int32  `annotation:"order"`
	Lazy     bool   // no tag: matched by lower-camel-cased field name
	Target   string `annotation:"target"`
	Profiles []string `annotation:"profiles"`

	ignored string
}

func TestInto(t *testing.T) {
	r := serviceResolver()
	ma := serviceView(t, r, map[string]attrvalue.Value{
		"name":   attrvalue.StringValue("svc"),
		"order":  attrvalue.IntValue(3),
		"lazy":   attrvalue.BoolValue(true),
		"target": attrvalue.ClassRefValue{Name: "example.Target"},
		"profiles": attrvalue.ArrayValue{ElementKind: attrvalue.KindString,
			Elements: []attrvalue.Value{attrvalue.StringValue("dev")}},
	})

	var got serviceStruct
	if err := synthesize.Into(ma, &got); err != nil {
		t.Fatalf("Into: %v", err)
	}
	want := serviceStruct{Name: "svc", Order: 3, Lazy: true, Target: "example.Target", Profiles: []string{"dev"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Into = %+v, want %+v", got, want)
	}
}

func TestIntoAppliesDefaults(t *testing.T) {
	r := serviceResolver()
	ma := serviceView(t, r, nil)

	var got serviceStruct
	if err := synthesize.Into(ma, &got); err != nil {
		t.Fatalf("Into: %v", err)
	}
	if got.Name != "" || got.Order != 0 || got.Lazy || got.Target != "example.Object" {
		t.Errorf("Into with defaults = %+v", got)
	}
}

func TestIntoRejectsNonStruct(t *testing.T) {
	r := serviceResolver()
	ma := serviceView(t, r, nil)

	var s string
	if err := synthesize.Into(ma, &s); err == nil {
		t.Error("Into(*string): want an error")
	}
	if err := synthesize.Into(ma, serviceStruct{}); err == nil {
		t.Error("Into(non-pointer): want an error")
	}
}

func TestSynthesizeIntoCondition(t *testing.T) {
	r := serviceResolver()
	ma := serviceView(t, r, map[string]attrvalue.Value{"name": attrvalue.StringValue("svc")})

	var got serviceStruct
	ok, err := synthesize.SynthesizeInto(ma, func(merged.MergedAnnotation) bool { return false }, &got)
	if err != nil || ok {
		t.Errorf("SynthesizeInto(false) = %t, %v, want false, nil", ok, err)
	}
	ok, err = synthesize.SynthesizeInto(ma, merged.MergedAnnotation.IsPresent, &got)
	if err != nil || !ok {
		t.Fatalf("SynthesizeInto(IsPresent) = %t, %v, want true, nil", ok, err)
	}
	if got.Name != "svc" {
		t.Errorf("Name = %q, want svc", got.Name)
	}
}

// TestEqualHashOnIdenticalViews: two distinct views with identical
// attribute values from identical types are equal, hash identically, and
// render identically.
func TestEqualHashOnIdenticalViews(t *testing.T) {
	r := serviceResolver()
	values := map[string]attrvalue.Value{
		"name":  attrvalue.StringValue("svc"),
		"order": attrvalue.IntValue(3),
	}
	a := serviceView(t, r, values)
	b := serviceView(t, r, values)

	eq, err := synthesize.Equal(a, b)
	if err != nil || !eq {
		t.Errorf("Equal = %t, %v, want true", eq, err)
	}

	ha, err := synthesize.Hash(a)
	if err != nil {
		t.Fatalf("Hash(a): %v", err)
	}
	hb, err := synthesize.Hash(b)
	if err != nil {
		t.Fatalf("Hash(b): %v", err)
	}
	if ha != hb {
		t.Errorf("Hash: %d != %d", ha, hb)
	}

	sa, err := synthesize.String(a)
	if err != nil {
		t.Fatalf("String(a): %v", err)
	}
	sb, err := synthesize.String(b)
	if err != nil {
		t.Fatalf("String(b): %v", err)
	}
	if sa != sb {
		t.Errorf("String: %q != %q", sa, sb)
	}
}

func TestNotEqualOnDifferingValue(t *testing.T) {
	r := serviceResolver()
	a := serviceView(t, r, map[string]attrvalue.Value{"name": attrvalue.StringValue("a")})
	b := serviceView(t, r, map[string]attrvalue.Value{"name": attrvalue.StringValue("b")})

	eq, err := synthesize.Equal(a, b)
	if err != nil || eq {
		t.Errorf("Equal = %t, %v, want false", eq, err)
	}
}

// TestString: defaults omitted, strings quoted, classes rendered as
// Name.class, arrays braced.
func TestString(t *testing.T) {
	r := serviceResolver()
	ma := serviceView(t, r, map[string]attrvalue.Value{
		"name":   attrvalue.StringValue("svc"),
		"target": attrvalue.ClassRefValue{Name: "example.Target"},
		"profiles": attrvalue.ArrayValue{ElementKind: attrvalue.KindString,
			Elements: []attrvalue.Value{attrvalue.StringValue("dev"), attrvalue.StringValue("prod")}},
	})

	got, err := synthesize.String(ma)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	want := `@Service(name = "svc", target = example.Target.class, profiles = {"dev", "prod"})`
	if got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestStringAllDefaults(t *testing.T) {
	r := serviceResolver()
	ma := serviceView(t, r, nil)

	got, err := synthesize.String(ma)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "@Service()" {
		t.Errorf("String = %q, want @Service()", got)
	}
}
