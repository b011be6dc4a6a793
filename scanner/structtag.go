package scanner

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/annograph/annograph/attrvalue"
	"github.com/annograph/annograph/resolver"
)

// TagKey is the struct tag key StructTagScanner looks for. A struct
// carries its directly-declared annotations on a blank marker field (by
// convention named "_"), since Go attaches tags to struct fields, not to
// the type itself:
//
//	type Handler struct {
//		_ struct{} `annograph:"RequestMapping(path=/a);Secured"`
//	}
type TagKey = string

const DefaultTagKey TagKey = "annograph"

// StructTagScanner is the reference Scanner: DIRECT reads the marker
// field's tag on the element's own type; EXHAUSTIVE additionally walks
// embedded (anonymous) struct fields breadth-first, in declaration order,
// Go's nearest analogue to a superclass/interface walk, folding a
// repeated embedded type into its first (outermost) occurrence.
type StructTagScanner struct {
	resolver resolver.TypeResolver
	tagKey   TagKey
}

var _ Scanner = (*StructTagScanner)(nil)

// New returns a StructTagScanner that parses attribute values according to
// the kinds r reports, using the default tag key "annograph".
func New(r resolver.TypeResolver) *StructTagScanner {
	return &StructTagScanner{resolver: r, tagKey: DefaultTagKey}
}

// WithTagKey overrides the struct tag key (default "annograph").
func (s *StructTagScanner) WithTagKey(key TagKey) *StructTagScanner {
	s.tagKey = key
	return s
}

// DirectlyPresent implements Scanner.
func (s *StructTagScanner) DirectlyPresent(element any, strategy Strategy) []attrvalue.AnnotationInstance {
	t := structTypeOf(element)
	if t == nil {
		return nil
	}
	return s.parseMarkerTag(*t)
}

// Aggregates implements Scanner.
func (s *StructTagScanner) Aggregates(element any, strategy Strategy) [][]attrvalue.AnnotationInstance {
	t := structTypeOf(element)
	if t == nil {
		return nil
	}
	aggregates := [][]attrvalue.AnnotationInstance{s.parseMarkerTag(*t)}
	if strategy != Exhaustive {
		return aggregates
	}

	seen := map[reflect.Type]bool{*t: true}
	queue := embeddedStructTypes(*t)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			glog.V(1).Infof("scanner: embedded type %s already visited, folding into its first occurrence", next)
			continue
		}
		seen[next] = true
		aggregates = append(aggregates, s.parseMarkerTag(next))
		queue = append(queue, embeddedStructTypes(next)...)
	}
	return aggregates
}

func structTypeOf(element any) *reflect.Type {
	if t, ok := element.(reflect.Type); ok {
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return nil
		}
		return &t
	}
	t := reflect.TypeOf(element)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return &t
}

func embeddedStructTypes(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			out = append(out, ft)
		}
	}
	return out
}

// parseMarkerTag reads the "_" field's tag on t (if present) and parses it
// into zero or more AnnotationInstance values, one per
// "Type(attr=val,...)" segment separated by ";". A malformed segment is an
// introspection failure: logged and skipped, rather than failing the
// whole scan.
func (s *StructTagScanner) parseMarkerTag(t reflect.Type) []attrvalue.AnnotationInstance {
	field, ok := t.FieldByName("_")
	if !ok {
		return nil
	}
	raw, ok := field.Tag.Lookup(s.tagKey)
	if !ok || raw == "" {
		return nil
	}

	var out []attrvalue.AnnotationInstance
	for _, segment := range splitTopLevel(raw, ';') {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		inst, ok := s.parseSegment(segment)
		if !ok {
			continue
		}
		out = append(out, inst)
	}
	return out
}

func (s *StructTagScanner) parseSegment(segment string) (attrvalue.AnnotationInstance, bool) {
	name := segment
	attrsRaw := ""
	if i := strings.IndexByte(segment, '('); i >= 0 {
		if !strings.HasSuffix(segment, ")") {
			glog.Warningf("scanner: malformed annotation tag segment %q: missing closing paren", segment)
			return attrvalue.AnnotationInstance{}, false
		}
		name = segment[:i]
		attrsRaw = segment[i+1 : len(segment)-1]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		glog.Warningf("scanner: malformed annotation tag segment %q: empty type name", segment)
		return attrvalue.AnnotationInstance{}, false
	}

	typ, ok := s.resolver.Resolve(name)
	if !ok {
		glog.V(1).Infof("scanner: no descriptor for annotation %q, recording with no typed attribute values", name)
	}

	values := map[string]attrvalue.Value{}
	if attrsRaw != "" {
		for _, pair := range splitTopLevel(attrsRaw, ',') {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			eq := strings.IndexByte(pair, '=')
			if eq < 0 {
				glog.Warningf("scanner: malformed attribute %q on annotation %q, treating as absent", pair, name)
				continue
			}
			attrName := strings.TrimSpace(pair[:eq])
			rawVal := strings.TrimSpace(pair[eq+1:])
			var kind attrvalue.Kind
			var elemKind attrvalue.Kind
			if typ != nil {
				if d, ok := typ.Descriptor(attrName); ok {
					kind, elemKind = d.Kind, d.ElementKind
				}
			}
			v, ok := parseValue(rawVal, kind, elemKind)
			if !ok {
				glog.Warningf("scanner: could not parse value %q for %s.%s, treating as absent", rawVal, name, attrName)
				continue
			}
			values[attrName] = v
		}
	}
	return attrvalue.AnnotationInstance{TypeName: name, Values: values}, true
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// parentheses or square brackets (so a nested annotation's own
// comma-separated attributes, or an array literal's elements, don't get
// split at the outer level).
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// parseValue parses a raw tag string into an attrvalue.Value according to
// the declared kind (defaulting to string when the kind is unknown — e.g.
// the annotation type wasn't resolvable). Arrays are written
// "[a,b,c]".
func parseValue(raw string, kind, elemKind attrvalue.Kind) (attrvalue.Value, bool) {
	if kind == attrvalue.KindArray {
		if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
			return nil, false
		}
		inner := raw[1 : len(raw)-1]
		var elems []attrvalue.Value
		if strings.TrimSpace(inner) != "" {
			for _, part := range splitTopLevel(inner, ',') {
				ev, ok := parseScalar(strings.TrimSpace(part), elemKind)
				if !ok {
					return nil, false
				}
				elems = append(elems, ev)
			}
		}
		return attrvalue.ArrayValue{ElementKind: elemKind, Elements: elems}, true
	}
	return parseScalar(raw, kind)
}

func parseScalar(raw string, kind attrvalue.Kind) (attrvalue.Value, bool) {
	switch kind {
	case attrvalue.KindBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false
		}
		return attrvalue.BoolValue(b), true
	case attrvalue.KindByte:
		n, err := strconv.ParseInt(raw, 10, 8)
		if err != nil {
			return nil, false
		}
		return attrvalue.ByteValue(n), true
	case attrvalue.KindChar:
		if len(raw) == 0 {
			return nil, false
		}
		r := []rune(raw)
		return attrvalue.CharValue(r[0]), true
	case attrvalue.KindShort:
		n, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return nil, false
		}
		return attrvalue.ShortValue(n), true
	case attrvalue.KindInt:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, false
		}
		return attrvalue.IntValue(n), true
	case attrvalue.KindLong:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, false
		}
		return attrvalue.LongValue(n), true
	case attrvalue.KindFloat:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, false
		}
		return attrvalue.FloatValue(f), true
	case attrvalue.KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return attrvalue.DoubleValue(f), true
	case attrvalue.KindClassRef:
		return attrvalue.ClassRefValue{Name: raw}, true
	case attrvalue.KindEnumRef:
		parts := strings.SplitN(raw, ".", 2)
		if len(parts) != 2 {
			return nil, false
		}
		return attrvalue.EnumRefValue{TypeName: parts[0], ConstantName: parts[1]}, true
	default:
		// Unknown kind (unresolvable annotation type): fall back to string,
		// the least lossy representation of a raw tag token.
		return attrvalue.StringValue(raw), true
	}
}
