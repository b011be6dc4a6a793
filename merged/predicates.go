package merged

// TypeIn returns a predicate accepting annotations whose Type() is one of
// names. Stateless, reusable.
func TypeIn(names ...string) func(MergedAnnotation) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(ma MergedAnnotation) bool {
		t, err := ma.Type()
		if err != nil {
			return false
		}
		_, ok := set[t]
		return ok
	}
}

// FirstRunOf returns a predicate that accepts annotations while keyFn's
// result equals the first-seen key; once the key changes, it rejects that
// and every subsequent annotation. Stateful and single-use —
// constructing a fresh FirstRunOf for each traversal is required.
func FirstRunOf(keyFn func(MergedAnnotation) string) func(MergedAnnotation) bool {
	var started bool
	var key string
	var rejecting bool
	return func(ma MergedAnnotation) bool {
		if rejecting {
			return false
		}
		k := keyFn(ma)
		if !started {
			started = true
			key = k
			return true
		}
		if k == key {
			return true
		}
		rejecting = true
		return false
	}
}

// Unique returns a predicate accepting the first annotation seen for each
// key, rejecting every subsequent one with the same key. Stateful and
// single-use.
func Unique(keyFn func(MergedAnnotation) string) func(MergedAnnotation) bool {
	seen := make(map[string]struct{})
	return func(ma MergedAnnotation) bool {
		k := keyFn(ma)
		if _, ok := seen[k]; ok {
			return false
		}
		seen[k] = struct{}{}
		return true
	}
}

// Filter applies preds in sequence over items, each pred seeing only the
// items that survived every earlier pred — the composition a caller gets
// from chaining Stream().filter(...).filter(...) in the source material.
func Filter(items []MergedAnnotation, preds ...func(MergedAnnotation) bool) []MergedAnnotation {
	out := items
	for _, p := range preds {
		var next []MergedAnnotation
		for _, it := range out {
			if p(it) {
				next = append(next, it)
			}
		}
		out = next
	}
	return out
}

// TypeOf is a convenience keyFn for FirstRunOf/Unique that groups by
// annotation type name.
func TypeOf(ma MergedAnnotation) string {
	t, err := ma.Type()
	if err != nil {
		return ""
	}
	return t
}
