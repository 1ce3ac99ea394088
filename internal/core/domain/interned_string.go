package domain

import (
	"cmp"
	"unique"
)

// InternedString is a value object that wraps a unique.Handle[string].
// Task names are interned: they are compared on every dependency edge and
// repeated across the registry, the plan and the execution record.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString creates a new InternedString from a string.
func NewInternedString(s string) InternedString {
	return InternedString{
		h: unique.Make(s),
	}
}

// NewInternedStrings interns every string in names, preserving order.
func NewInternedStrings(names []string) []InternedString {
	out := make([]InternedString, 0, len(names))
	for _, n := range names {
		out = append(out, NewInternedString(n))
	}
	return out
}

// Strings returns the string values of names, preserving order.
func Strings(names []InternedString) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n.String())
	}
	return out
}

// String returns the underlying string value.
func (is InternedString) String() string {
	var zero unique.Handle[string]
	if is.h == zero {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether the value was never assigned.
func (is InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return is.h == zero
}

// Compare orders interned strings by their string value.
func (is InternedString) Compare(other InternedString) int {
	return cmp.Compare(is.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	is.h = unique.Make(string(text))
	return nil
}
