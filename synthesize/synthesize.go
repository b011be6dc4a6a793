// Package synthesize is the synthesis adapter: the only component that
// cooperates with a platform's native annotation representation. Go has no
// runtime annotation-proxy objects, so in place of a generated proxy Into
// populates a caller-supplied struct via reflection and struct tags, and the
// equality/hash/toString helpers operate directly on two MergedAnnotation
// views rather than on synthesized Go values.
package synthesize

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/stoewer/go-strcase"

	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/merged"
)

// TagKey is the struct tag key Into looks for on target fields.
const TagKey = "annotation"

// Into populates target (a pointer to a struct) from ma, matching each
// exported field to an attribute by its `annotation:"name"` tag, falling
// back to the field's name lower-camel-cased (go-strcase) when no tag is
// present. Returns a *mapping.MissingAttributeError (via ma's own getters)
// if a field names an attribute the type doesn't declare.
func Into(ma merged.MergedAnnotation, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("synthesize: target must be a pointer to a struct, got %T", target)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, ok := field.Tag.Lookup(TagKey)
		if !ok || name == "" {
			name = strcase.LowerCamelCase(field.Name)
		}
		if name == "-" {
			continue
		}
		if err := setField(ma, rv.Field(i), field, name); err != nil {
			return err
		}
	}
	return nil
}

// SynthesizeInto is Into gated by a condition: it populates target only if
// cond(ma) is true, reporting via the bool return whether it did.
func SynthesizeInto(ma merged.MergedAnnotation, cond func(merged.MergedAnnotation) bool, target any) (bool, error) {
	if !cond(ma) {
		return false, nil
	}
	if err := Into(ma, target); err != nil {
		return false, err
	}
	return true, nil
}

func setField(ma merged.MergedAnnotation, fv reflect.Value, field reflect.StructField, name string) error {
	d, ok := ma.Descriptor(name)
	if !ok {
		_, err := ma.HasDefaultValue(name) // surfaces ma's own MissingAttributeError
		return err
	}

	switch d.Kind {
	case attrvalue.KindBoolean:
		v, err := ma.Bool(name)
		if err != nil {
			return err
		}
		fv.SetBool(v)
	case attrvalue.KindByte, attrvalue.KindShort, attrvalue.KindInt, attrvalue.KindLong:
		v, err := narrowInt(ma, name, d.Kind)
		if err != nil {
			return err
		}
		fv.SetInt(v)
	case attrvalue.KindFloat, attrvalue.KindDouble:
		v, err := narrowFloat(ma, name, d.Kind)
		if err != nil {
			return err
		}
		fv.SetFloat(v)
	case attrvalue.KindChar:
		r, err := ma.Char(name)
		if err != nil {
			return err
		}
		fv.SetString(string(r))
	case attrvalue.KindString, attrvalue.KindClassRef:
		var s string
		var err error
		if d.Kind == attrvalue.KindClassRef {
			s, err = ma.Class(name)
		} else {
			s, err = ma.Str(name)
		}
		if err != nil {
			return err
		}
		fv.SetString(s)
	case attrvalue.KindEnumRef:
		_, constant, err := ma.Enum(name)
		if err != nil {
			return err
		}
		fv.SetString(constant)
	case attrvalue.KindNested:
		nested, err := ma.Nested(name)
		if err != nil {
			return err
		}
		if fv.Kind() != reflect.Ptr && fv.Kind() != reflect.Struct {
			return fmt.Errorf("synthesize: field %s for nested attribute %q must be a struct", field.Name, name)
		}
		target := fv.Addr().Interface()
		if fv.Kind() == reflect.Ptr {
			fv.Set(reflect.New(fv.Type().Elem()))
			target = fv.Interface()
		}
		return Into(nested, target)
	case attrvalue.KindArray:
		return setArrayField(ma, fv, name, d.ElementKind)
	default:
		return fmt.Errorf("synthesize: unsupported attribute kind %v for %q", d.Kind, name)
	}
	return nil
}

func narrowInt(ma merged.MergedAnnotation, name string, kind attrvalue.Kind) (int64, error) {
	switch kind {
	case attrvalue.KindByte:
		v, err := ma.Byte(name)
		return int64(v), err
	case attrvalue.KindShort:
		v, err := ma.Short(name)
		return int64(v), err
	case attrvalue.KindInt:
		v, err := ma.Int(name)
		return int64(v), err
	default:
		return ma.Long(name)
	}
}

func narrowFloat(ma merged.MergedAnnotation, name string, kind attrvalue.Kind) (float64, error) {
	if kind == attrvalue.KindFloat {
		v, err := ma.Float(name)
		return float64(v), err
	}
	return ma.Double(name)
}

func setArrayField(ma merged.MergedAnnotation, fv reflect.Value, name string, elemKind attrvalue.Kind) error {
	if fv.Kind() != reflect.Slice {
		return fmt.Errorf("synthesize: field for array attribute %q must be a slice", name)
	}
	switch elemKind {
	case attrvalue.KindBoolean:
		v, err := ma.BoolArray(name)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(v))
	case attrvalue.KindInt:
		v, err := ma.IntArray(name)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(v))
	case attrvalue.KindString, attrvalue.KindClassRef:
		v, err := ma.StringArray(name)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(v))
	default:
		return fmt.Errorf("synthesize: array element kind %v for %q has no generic slice conversion", elemKind, name)
	}
	return nil
}

// Equal implements platform-standard annotation equality: same annotation type
// and attribute-wise structural equality.
func Equal(a, b merged.MergedAnnotation) (bool, error) {
	at, err := a.Type()
	if err != nil {
		return false, err
	}
	bt, err := b.Type()
	if err != nil {
		return false, err
	}
	if at != bt {
		return false, nil
	}
	for _, name := range a.Attributes() {
		av, err := a.Value(name)
		if err != nil {
			return false, err
		}
		bv, err := b.Value(name)
		if err != nil {
			return false, nil
		}
		if !attrvalue.Equal(av, bv) {
			return false, nil
		}
	}
	return true, nil
}

// Hash implements the platform-standard annotation hash: sum over attributes of
// (127 * name.hash) XOR value.hash.
func Hash(ma merged.MergedAnnotation) (uint32, error) {
	var h uint32
	for _, name := range ma.Attributes() {
		v, err := ma.Value(name)
		if err != nil {
			return 0, err
		}
		h += (127 * nameHash(name)) ^ attrvalue.Hash(v)
	}
	return h, nil
}

func nameHash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = 31*h + uint32(s[i])
	}
	return h
}

// String renders ma as `@Type(attr1 = v1, attr2 = v2, …)`,
// omitting attributes whose value equals their default, classes rendered
// as `Name.class`, strings quoted, arrays braced — attributes are rendered
// in declaration order.
func String(ma merged.MergedAnnotation) (string, error) {
	t, err := ma.Type()
	if err != nil {
		return "", err
	}
	names := ma.Attributes() // already in declaration order

	var parts []string
	for _, name := range names {
		nonDefault, err := ma.HasNonDefaultValue(name)
		if err != nil {
			return "", err
		}
		if !nonDefault {
			continue
		}
		v, err := ma.Value(name)
		if err != nil {
			return "", err
		}
		parts = append(parts, name+" = "+renderValue(v))
	}
	return "@" + t + "(" + strings.Join(parts, ", ") + ")", nil
}

func renderValue(v attrvalue.Value) string {
	switch tv := v.(type) {
	case attrvalue.StringValue:
		return `"` + string(tv) + `"`
	case attrvalue.CharValue:
		return `'` + string(rune(tv)) + `'`
	case attrvalue.ClassRefValue:
		return tv.Name + ".class"
	case attrvalue.EnumRefValue:
		return tv.TypeName + "." + tv.ConstantName
	case attrvalue.ArrayValue:
		parts := make([]string, len(tv.Elements))
		for i, e := range tv.Elements {
			parts[i] = renderValue(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.String()
	}
}
