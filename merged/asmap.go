package merged

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/annograph/annograph/attrvalue"
)

// AsMap renders the merged attributes as a map: every attribute not
// excluded by
// FilterAttributes/FilterDefaultValues, converted per opts.
func (m *mapped) AsMap(opts MapOptions) (map[string]any, error) {
	out := make(map[string]any, len(m.mapping.AnnotationType.Attributes))
	for _, d := range m.mapping.AnnotationType.Attributes {
		if m.include != nil && !m.include(d.Name) {
			continue
		}
		v, err := m.resolve(d.Name)
		if err != nil {
			return nil, err
		}
		if m.filterDefaults && attrvalue.IsDefaultLike(v, d.Default) {
			continue
		}
		cv, err := m.toAny(v, opts)
		if err != nil {
			return nil, err
		}
		out[d.Name] = cv
	}
	return out, nil
}

func (m *mapped) toAny(v attrvalue.Value, opts MapOptions) (any, error) {
	switch tv := v.(type) {
	case attrvalue.BoolValue:
		return bool(tv), nil
	case attrvalue.ByteValue:
		return int8(tv), nil
	case attrvalue.CharValue:
		return string(rune(tv)), nil
	case attrvalue.ShortValue:
		return int16(tv), nil
	case attrvalue.IntValue:
		return int32(tv), nil
	case attrvalue.LongValue:
		return int64(tv), nil
	case attrvalue.FloatValue:
		return float32(tv), nil
	case attrvalue.DoubleValue:
		return float64(tv), nil
	case attrvalue.StringValue:
		return string(tv), nil
	case attrvalue.ClassRefValue:
		if opts.ClassToString {
			return tv.Name, nil
		}
		return tv, nil
	case attrvalue.EnumRefValue:
		return tv, nil
	case attrvalue.NestedValue:
		nested := m.mergeNested(tv.Instance)
		if opts.AnnotationToMap {
			return nested.AsMap(opts)
		}
		return nested, nil
	case attrvalue.ArrayValue:
		out := make([]any, 0, len(tv.Elements))
		for _, e := range tv.Elements {
			cv, err := m.toAny(e, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("annograph: unsupported value kind %v in asMap", v.Kind())
	}
}

// AsStruct renders ma's merged attributes as a structpb.Struct, the
// dynamic-map form callers hand to anything protobuf-shaped. Nested
// annotations become nested Structs; class references become their name
// strings (structpb has no class-handle kind). Every declared attribute is
// rendered, resolved through ma's own merge options.
func AsStruct(ma MergedAnnotation) (*structpb.Struct, error) {
	fields := map[string]*structpb.Value{}
	for _, name := range ma.Attributes() {
		v, err := ma.Value(name)
		if err != nil {
			return nil, err
		}
		sv, err := attrvalue.ToStructValue(v)
		if err != nil {
			return nil, err
		}
		fields[name] = sv
	}
	return &structpb.Struct{Fields: fields}, nil
}
