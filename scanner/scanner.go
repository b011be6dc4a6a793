// Package scanner defines the Scanner contract the core consumes — walking
// a program element's class hierarchy to collect directly-declared
// annotations — plus one concrete, idiomatic Go reference
// implementation, grounded on reflect.StructTag since Go has no runtime
// class-hierarchy walk of its own. The core never imports this package;
// callers wire a Scanner into merged.From themselves.
package scanner

import (
	"github.com/annograph/annograph/attrvalue"
)

// Strategy selects how far the scanner walks an element's hierarchy.
type Strategy int

const (
	// Direct considers only the element itself.
	Direct Strategy = iota
	// Exhaustive considers the element plus superclasses and interfaces
	// (Go: embedded/anonymous struct fields) in walk order. For methods,
	// bridged methods and same-signature overrides fold into the
	// element's own direct set — in Go terms, a shadowed embedded type is
	// folded into the first (outermost) occurrence rather than producing
	// a second aggregate for it.
	Exhaustive
)

// Scanner produces, for a program element, either its directly-declared
// annotations or the full ordered sequence of per-hierarchy-level
// aggregates Strategy calls for. Aggregate 0 is always the element itself.
type Scanner interface {
	DirectlyPresent(element any, strategy Strategy) []attrvalue.AnnotationInstance
	Aggregates(element any, strategy Strategy) [][]attrvalue.AnnotationInstance
}
