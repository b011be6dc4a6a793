package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports a misconfigured annotation declaration: an alias target
// does not exist, kinds are incompatible, mirror defaults disagree, or a
// mirror resolves to conflicting values at read time. It always names the
// offending annotation, attribute, and a short root -> … -> offending path.
type ConfigError struct {
	Annotation string
	Attribute  string
	Path       []string
	Reason     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("annograph: configuration error on %s.%s (%s): %s",
		e.Annotation, e.Attribute, strings.Join(e.Path, " -> "), e.Reason)
}

// ErrMissingAttribute is returned (wrapped) when a typed getter or Resolve
// is invoked for an attribute name the annotation type does not declare.
var ErrMissingAttribute = errors.New("annograph: no such attribute")

// MissingAttributeError names the annotation and attribute that was not
// found, wrapping ErrMissingAttribute so callers can use errors.Is.
type MissingAttributeError struct {
	Annotation string
	Attribute  string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("annograph: %s has no attribute %q", e.Annotation, e.Attribute)
}

func (e *MissingAttributeError) Unwrap() error { return ErrMissingAttribute }
