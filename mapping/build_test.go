package mapping_test

import (
	"testing"

	"github.com/annograph/annograph/annofilter"
	"github.com/annograph/annograph/annotype"
	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/mapping"
	"github.com/annograph/annograph/repeatable"
	"github.com/annograph/annograph/resolver"
)

func strAttr(name string, def attrvalue.Value) annotype.AttributeDescriptor {
	return annotype.AttributeDescriptor{Name: name, Kind: attrvalue.KindString, Default: def}
}

func meta(typeName string, values map[string]attrvalue.Value) attrvalue.AnnotationInstance {
	return attrvalue.AnnotationInstance{TypeName: typeName, Values: values}
}

func buildClosure(t *testing.T, r resolver.TypeResolver, rootType string) *mapping.Closure {
	t.Helper()
	c, err := mapping.Build(r, annofilter.None(), repeatable.None(), rootType)
	if err != nil {
		t.Fatalf("Build(%q): unexpected error: %v", rootType, err)
	}
	return c
}

// TestBuildSimpleChain verifies a three-level meta-annotation chain closes
// with the root first and each mapping linked to its own parent.
func TestBuildSimpleChain(t *testing.T) {
	r := resolver.NewMapResolver()
	r.Register(&annotype.AnnotationType{Name: "Grandparent", Attributes: []annotype.AttributeDescriptor{strAttr("value", attrvalue.StringValue(""))}})
	r.Register(&annotype.AnnotationType{
		Name:            "Parent",
		Attributes:      []annotype.AttributeDescriptor{strAttr("value", attrvalue.StringValue(""))},
		MetaAnnotations: []attrvalue.AnnotationInstance{meta("Grandparent", nil)},
	})
	r.Register(&annotype.AnnotationType{
		Name:            "Child",
		Attributes:      []annotype.AttributeDescriptor{strAttr("value", attrvalue.StringValue(""))},
		MetaAnnotations: []attrvalue.AnnotationInstance{meta("Parent", nil)},
	})

	c := buildClosure(t, r, "Child")
	if len(c.Mappings()) != 3 {
		t.Fatalf("got %d mappings, want 3", len(c.Mappings()))
	}
	if c.Root.AnnotationType.Name != "Child" {
		t.Fatalf("Root = %q, want Child", c.Root.AnnotationType.Name)
	}
	parent, ok := c.Lookup("Parent")
	if !ok || parent.Parent != c.Root {
		t.Fatalf("Parent mapping missing or mis-linked")
	}
	grandparent, ok := c.Lookup("Grandparent")
	if !ok || grandparent.Parent != parent {
		t.Fatalf("Grandparent mapping missing or mis-linked")
	}
	if grandparent.Depth != 2 {
		t.Fatalf("Grandparent.Depth = %d, want 2", grandparent.Depth)
	}
}

// TestBuildBreaksCycles verifies that a meta-annotation cycle is closed
// exactly once per type, with the later occurrence pruned rather than
// looping forever.
func TestBuildBreaksCycles(t *testing.T) {
	r := resolver.NewMapResolver()
	r.Register(&annotype.AnnotationType{
		Name:            "A",
		MetaAnnotations: []attrvalue.AnnotationInstance{meta("B", nil)},
	})
	r.Register(&annotype.AnnotationType{
		Name:            "B",
		MetaAnnotations: []attrvalue.AnnotationInstance{meta("A", nil)},
	})

	c := buildClosure(t, r, "A")
	if len(c.Mappings()) != 2 {
		t.Fatalf("got %d mappings, want 2 (A, B) with the cycle back to A pruned", len(c.Mappings()))
	}
}

// TestBuildPrunesResolverMiss verifies a meta-annotation the resolver
// cannot resolve is silently dropped rather than failing the whole build.
func TestBuildPrunesResolverMiss(t *testing.T) {
	r := resolver.NewMapResolver()
	r.Register(&annotype.AnnotationType{
		Name:            "Root",
		MetaAnnotations: []attrvalue.AnnotationInstance{meta("Unregistered", nil)},
	})

	c := buildClosure(t, r, "Root")
	if len(c.Mappings()) != 1 {
		t.Fatalf("got %d mappings, want 1 (resolver miss pruned)", len(c.Mappings()))
	}
}

// TestBuildFilterExcludes verifies a filtered meta-annotation type name
// never enters the closure.
func TestBuildFilterExcludes(t *testing.T) {
	r := resolver.NewMapResolver()
	r.Register(&annotype.AnnotationType{Name: "Ignored"})
	r.Register(&annotype.AnnotationType{
		Name:            "Root",
		MetaAnnotations: []attrvalue.AnnotationInstance{meta("Ignored", nil)},
	})

	filter := annofilter.Names("test-ignored", "Ignored")
	c, err := mapping.Build(r, filter, repeatable.None(), "Root")
	if err != nil {
		t.Fatalf("Build: unexpected error: %v", err)
	}
	if len(c.Mappings()) != 1 {
		t.Fatalf("got %d mappings, want 1 (Ignored filtered)", len(c.Mappings()))
	}
}

// TestBuildUnresolvableRoot verifies a root type the resolver cannot
// resolve is an error, unlike a meta-annotation resolver miss.
func TestBuildUnresolvableRoot(t *testing.T) {
	r := resolver.NewMapResolver()
	if _, err := mapping.Build(r, annofilter.None(), repeatable.None(), "DoesNotExist"); err == nil {
		t.Fatalf("Build: expected error for unresolvable root type")
	}
}
