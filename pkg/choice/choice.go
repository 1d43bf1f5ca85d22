// Package choice maps the human-readable labels accepted by the API onto the
// stored codes of a closed enumeration.
package choice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by every lookup failure.
var ErrNotFound = errors.New("choice not found")

// NotFoundError reports a non-empty label that is not part of a Set.
type NotFoundError struct {
	Field   string
	Label   string
	Allowed []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%q is not a valid choice for %s", e.Label, e.Field)
	if len(e.Allowed) > 0 {
		msg += " (expected one of: " + strings.Join(e.Allowed, ", ") + ")"
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Option is one (code, label) pair.
type Option struct {
	Code  string
	Label string
}

// Set is an ordered enumeration. Labels are assumed unique within a Set.
type Set struct {
	Field   string
	Options []Option
}

func NewSet(field string, options ...Option) Set {
	return Set{Field: field, Options: options}
}

// Lookup returns the code whose label equals label, ignoring case.
func (s Set) Lookup(label string) (string, bool) {
	for _, o := range s.Options {
		if strings.EqualFold(o.Label, label) {
			return o.Code, true
		}
	}
	return "", false
}

// Resolve translates an API label into its stored code. Surrounding
// whitespace is ignored and an empty label means no value was provided,
// yielding an empty code with no error.
func (s Set) Resolve(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", nil
	}
	code, ok := s.Lookup(label)
	if !ok {
		return "", &NotFoundError{Field: s.Field, Label: label, Allowed: s.Labels()}
	}
	return code, nil
}

// Label returns the display label of a stored code, or "" when the code is
// empty or unknown.
func (s Set) Label(code string) string {
	for _, o := range s.Options {
		if o.Code == code {
			return o.Label
		}
	}
	return ""
}

// Valid reports whether code is one of the stored codes.
func (s Set) Valid(code string) bool {
	for _, o := range s.Options {
		if o.Code == code {
			return true
		}
	}
	return false
}

// Labels lists the accepted labels in declaration order.
func (s Set) Labels() []string {
	labels := make([]string, len(s.Options))
	for i, o := range s.Options {
		labels[i] = o.Label
	}
	return labels
}
