package attrvalue

import "math"

// Hash computes a structural hash code for v, used by the synthesis
// adapter's Annotation.hashCode(). Array values use the platform-standard
// array-content hash (start at 1, fold in each element: h = 31*h + elem),
// matching the well-known array hashing recipe the synthesis adapter is
// specified to reproduce.
func Hash(v Value) uint32 {
	if v == nil {
		return 0
	}
	switch tv := v.(type) {
	case BoolValue:
		if tv {
			return 1231
		}
		return 1237
	case ByteValue:
		return uint32(tv)
	case CharValue:
		return uint32(tv)
	case ShortValue:
		return uint32(tv)
	case IntValue:
		return uint32(tv)
	case LongValue:
		return uint32(tv) ^ uint32(uint64(tv)>>32)
	case FloatValue:
		return math.Float32bits(float32(tv))
	case DoubleValue:
		bits := math.Float64bits(float64(tv))
		return uint32(bits) ^ uint32(bits>>32)
	case StringValue:
		return hashString(string(tv))
	case ClassRefValue:
		return hashString(tv.Name)
	case EnumRefValue:
		return 31*hashString(tv.TypeName) + hashString(tv.ConstantName)
	case NestedValue:
		return hashInstance(tv.Instance)
	case ArrayValue:
		h := uint32(1)
		for _, e := range tv.Elements {
			h = 31*h + Hash(e)
		}
		return h
	default:
		return 0
	}
}

func hashString(s string) uint32 {
	h := uint32(0)
	for i := 0; i < len(s); i++ {
		h = 31*h + uint32(s[i])
	}
	return h
}

func hashInstance(inst AnnotationInstance) uint32 {
	h := hashString(inst.TypeName)
	for name, v := range inst.Values {
		h += (127 * hashString(name)) ^ Hash(v)
	}
	return h
}
