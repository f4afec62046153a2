package pyckson

import (
	"fmt"
	"reflect"
)

// Parse converts a decoded JSON tree (map[string]any, []any, scalars) into
// the struct pointed to by target, using the default Registry.
func Parse(v any, target any) error {
	return reg.Parse(v, target)
}

// ParseNew parses a decoded JSON tree into a new instance of T.
func ParseNew[T any](v any) (T, error) {
	return ParseNewWith[T](reg, v)
}

func ParseNewWith[T any](r *Registry, v any) (T, error) {
	var target T
	err := r.Parse(v, &target)
	return target, err
}

// Unmarshal decodes JSON text and parses the resulting tree into target.
func Unmarshal(data []byte, target any) error {
	return reg.Unmarshal(data, target)
}

// UnmarshalNew decodes JSON text into a new instance of T.
func UnmarshalNew[T any](data []byte) (T, error) {
	return UnmarshalNewWith[T](reg, data)
}

func UnmarshalNewWith[T any](r *Registry, data []byte) (T, error) {
	var target T
	err := r.Unmarshal(data, &target)
	return target, err
}

func (r *Registry) Unmarshal(data []byte, target any) error {
	var v any
	if err := _json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return r.Parse(v, target)
}

func (r *Registry) Parse(v any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ConfigurationError{Type: reflect.TypeOf(target), Reason: "parse target must be a non-nil pointer to a struct"}
	}

	model, err := r.modelOf(rv.Elem().Type())
	if err != nil {
		return err
	}

	parsed, err := r.parseStruct(model, v)
	if err != nil {
		return err
	}

	rv.Elem().Set(reflect.ValueOf(parsed))
	return nil
}

// parseStruct applies a ClassModel to one JSON object: every attribute's
// value is looked up by external name and run through the attribute's
// parser. A required attribute without a value fails immediately; an
// optional one falls back to its registered default or stays zero.
func (r *Registry) parseStruct(model *ClassModel, v any) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "an object for " + model.Type.String()}
	}

	instance := reflect.New(model.Type).Elem()

	for _, attribute := range model.Attributes {
		raw, present := obj[attribute.ExternalName]

		if !present {
			if attribute.HasDefault {
				field := instance.FieldByIndex(attribute.Index)
				if err := assign(field, attribute.Default); err != nil {
					return nil, fmt.Errorf("default for field %q of %q: %w", attribute.ExternalName, model.Type, err)
				}
			}
			if attribute.Optional || attribute.HasDefault {
				continue
			}
			return nil, MissingFieldError{Class: model.Type, Field: attribute.ExternalName}
		}

		parsed, err := attribute.parser.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q of %q: %w", attribute.ExternalName, model.Type, err)
		}

		field := instance.FieldByIndex(attribute.Index)
		if err := assign(field, parsed); err != nil {
			return nil, fmt.Errorf("field %q of %q: %w", attribute.ExternalName, model.Type, err)
		}
	}

	return instance.Interface(), nil
}
