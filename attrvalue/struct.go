package attrvalue

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStructValue renders v as a protobuf structpb.Value. structpb has no
// notion of a "class reference" or "enum constant", so both flatten to
// their canonical string form; nested annotations flatten to a Struct keyed
// by attribute name (using only the instance's directly-present values —
// this is a raw, non-merged rendering, since fully re-merging a nested
// annotation would require that type's own resolver-backed closure, which
// this helper does not have access to).
func ToStructValue(v Value) (*structpb.Value, error) {
	if v == nil {
		return structpb.NewNullValue(), nil
	}
	switch tv := v.(type) {
	case BoolValue:
		return structpb.NewBoolValue(bool(tv)), nil
	case ByteValue:
		return structpb.NewNumberValue(float64(tv)), nil
	case CharValue:
		return structpb.NewStringValue(string(rune(tv))), nil
	case ShortValue:
		return structpb.NewNumberValue(float64(tv)), nil
	case IntValue:
		return structpb.NewNumberValue(float64(tv)), nil
	case LongValue:
		return structpb.NewNumberValue(float64(tv)), nil
	case FloatValue:
		return structpb.NewNumberValue(float64(tv)), nil
	case DoubleValue:
		return structpb.NewNumberValue(float64(tv)), nil
	case StringValue:
		return structpb.NewStringValue(string(tv)), nil
	case ClassRefValue:
		return structpb.NewStringValue(tv.Name), nil
	case EnumRefValue:
		return structpb.NewStringValue(tv.TypeName + "." + tv.ConstantName), nil
	case NestedValue:
		st, err := instanceToStruct(tv.Instance)
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(st), nil
	case ArrayValue:
		list := make([]*structpb.Value, 0, len(tv.Elements))
		for _, e := range tv.Elements {
			sv, err := ToStructValue(e)
			if err != nil {
				return nil, err
			}
			list = append(list, sv)
		}
		return structpb.NewListValue(&structpb.ListValue{Values: list}), nil
	default:
		return nil, fmt.Errorf("attrvalue: unsupported value kind %v for structpb rendering", v.Kind())
	}
}

func instanceToStruct(inst AnnotationInstance) (*structpb.Struct, error) {
	fields := make(map[string]*structpb.Value, len(inst.Values)+1)
	fields["@type"] = structpb.NewStringValue(inst.TypeName)
	for name, v := range inst.Values {
		sv, err := ToStructValue(v)
		if err != nil {
			return nil, err
		}
		fields[name] = sv
	}
	return &structpb.Struct{Fields: fields}, nil
}
