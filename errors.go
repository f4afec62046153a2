package pyckson

import (
	"fmt"
	"reflect"
)

// ConfigurationError reports a problem with the shape of a class itself:
// an unsupported field type, a duplicate external name, a registration that
// does not fit the declared field. It is raised while building a ClassModel,
// never while parsing a payload.
type ConfigurationError struct {
	Type   reflect.Type
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("type %q is not usable: %s", e.Type, e.Reason)
	}

	return fmt.Sprintf("field %q of %q is not usable: %s", e.Field, e.Type, e.Reason)
}

// MissingFieldError reports a required field that is absent from the payload.
type MissingFieldError struct {
	Class reflect.Type
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q in payload for %q", e.Field, e.Class)
}

// TypeMismatchError reports a value whose runtime shape does not match the
// declared type of the field it was supplied for.
type TypeMismatchError struct {
	Value    any
	Expected string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("value %v (%T) is supposed to be %s", e.Value, e.Value, e.Expected)
}
