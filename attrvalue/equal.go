package attrvalue

// Equal is deep-structural equality on Value: ClassRef compares by
// name, arrays compare element-wise (including ElementKind), and nested
// annotations compare by type name plus attribute-wise equality. nil is only
// equal to nil (an attribute with no default has no Value to compare).
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case BoolValue:
		return av == b.(BoolValue)
	case ByteValue:
		return av == b.(ByteValue)
	case CharValue:
		return av == b.(CharValue)
	case ShortValue:
		return av == b.(ShortValue)
	case IntValue:
		return av == b.(IntValue)
	case LongValue:
		return av == b.(LongValue)
	case FloatValue:
		return av == b.(FloatValue)
	case DoubleValue:
		return av == b.(DoubleValue)
	case StringValue:
		return av == b.(StringValue)
	case ClassRefValue:
		return av.Name == b.(ClassRefValue).Name
	case EnumRefValue:
		bv := b.(EnumRefValue)
		return av.TypeName == bv.TypeName && av.ConstantName == bv.ConstantName
	case NestedValue:
		return equalInstance(av.Instance, b.(NestedValue).Instance)
	case ArrayValue:
		bv := b.(ArrayValue)
		if av.ElementKind != bv.ElementKind || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func equalInstance(a, b AnnotationInstance) bool {
	if a.TypeName != b.TypeName || len(a.Values) != len(b.Values) {
		return false
	}
	for name, av := range a.Values {
		bv, ok := b.Values[name]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// IsDefaultLike reports whether v should be treated as "the default" for the
// purposes of mirror enforcement's NonDefault(M) set: an empty array counts
// as default even when the descriptor's own declared default is a
// differently-shaped (but still empty) array, and a nil v (no value at all)
// always counts as default.
func IsDefaultLike(v, declaredDefault Value) bool {
	if v == nil {
		return true
	}
	if arr, ok := v.(ArrayValue); ok && len(arr.Elements) == 0 {
		if defArr, ok := declaredDefault.(ArrayValue); ok && len(defArr.Elements) == 0 {
			return true
		}
	}
	return Equal(v, declaredDefault)
}

// CoerceArray implements the array-coercion read post-condition: when
// the attribute's declared kind is Array<X> and the resolved value is a
// scalar X, wrap it into a single-element array. Any other combination is
// returned unchanged.
func CoerceArray(declaredKind, declaredElementKind Kind, v Value) Value {
	if v == nil || declaredKind != KindArray {
		return v
	}
	if v.Kind() == KindArray {
		return v
	}
	if v.Kind() != declaredElementKind {
		return v
	}
	return ArrayValue{ElementKind: declaredElementKind, Elements: []Value{v}}
}
