package pyckson

import (
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Serialize walks an instance of a modeled class and emits the JSON tree
// (map[string]any, []any, scalars) its model maps it to. It is the inverse
// of Parse and consumes the same ClassModel.
func Serialize(v any) (any, error) {
	return reg.Serialize(v)
}

// Marshal serializes an instance and encodes the tree as JSON text.
func Marshal(v any) ([]byte, error) {
	return reg.Marshal(v)
}

func (r *Registry) Marshal(v any) ([]byte, error) {
	tree, err := r.Serialize(v)
	if err != nil {
		return nil, err
	}

	return _json.Marshal(tree)
}

func (r *Registry) Serialize(v any) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil, ConfigurationError{Type: reflect.TypeOf(v), Reason: "serialize source must be a struct instance"}
	}

	model, err := r.modelOf(rv.Type())
	if err != nil {
		return nil, err
	}

	return r.serializeStruct(model, rv)
}

func (r *Registry) serializeStruct(model *ClassModel, rv reflect.Value) (map[string]any, error) {
	obj := make(map[string]any, len(model.Attributes))

	for _, attribute := range model.Attributes {
		field := rv.FieldByIndex(attribute.Index)

		// absent optional values stay absent in the payload. omitempty
		// additionally drops zero values, like encoding/json does.
		if attribute.Omitempty && field.IsZero() {
			continue
		}
		if attribute.Optional && field.Kind() == reflect.Pointer && field.IsNil() {
			continue
		}

		value, err := r.serializeValue(attribute.Desc, field)
		if err != nil {
			return nil, fmt.Errorf("field %q of %q: %w", attribute.ExternalName, model.Type, err)
		}

		obj[attribute.ExternalName] = value
	}

	return obj, nil
}

func (r *Registry) serializeValue(desc TypeDesc, rv reflect.Value) (any, error) {
	switch desc.Kind {
	case KindAny:
		return rv.Interface(), nil

	case KindBool:
		return rv.Bool(), nil

	case KindInt:
		return rv.Int(), nil

	case KindUint:
		return rv.Uint(), nil

	case KindFloat:
		return rv.Float(), nil

	case KindString:
		return rv.String(), nil

	case KindDecimal:
		return json.Number(rv.Interface().(decimal.Decimal).String()), nil

	case KindTime:
		return rv.Interface().(time.Time).Format(time.RFC3339), nil

	case KindPointer:
		if rv.IsNil() {
			return nil, nil
		}
		return r.serializeValue(*desc.Elem, rv.Elem())

	case KindList:
		items := make([]any, 0, rv.Len())
		for idx := 0; idx < rv.Len(); idx++ {
			item, err := r.serializeValue(*desc.Elem, rv.Index(idx))
			if err != nil {
				return nil, fmt.Errorf("element idx=%d: %w", idx, err)
			}
			items = append(items, item)
		}
		return items, nil

	case KindSet:
		keys := sortedKeys(rv)
		items := make([]any, 0, len(keys))
		for _, key := range keys {
			item, err := r.serializeValue(*desc.Elem, key)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	case KindMap:
		obj := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			value, err := r.serializeValue(*desc.Elem, iter.Value())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			obj[iter.Key().String()] = value
		}
		return obj, nil

	case KindEnum:
		return serializeEnum(desc.Enum, rv)

	case KindUnion:
		concrete := rv
		if rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, nil
			}
			concrete = rv.Elem()
		}
		// the alternatives were described when the model was built; no
		// registry state is consulted here
		for _, alt := range desc.Alternatives {
			if alt.Type == concrete.Type() {
				return r.serializeValue(alt, concrete)
			}
		}
		return nil, TypeMismatchError{Value: concrete.Interface(), Expected: "an alternative of union " + desc.Type.String()}

	case KindStruct:
		model, err := r.modelOf(desc.Type)
		if err != nil {
			return nil, err
		}
		return r.serializeStruct(model, rv)

	default:
		return nil, ConfigurationError{Type: desc.Type, Reason: "unsupported type"}
	}
}

// serializeEnum emits the member's symbolic name, or its associated value
// when the table matches by value.
func serializeEnum(table *enumTable, rv reflect.Value) (any, error) {
	if table.lookup == lookupByValue {
		return underlyingValue(rv), nil
	}

	name, ok := table.nameOf[rv.Interface()]
	if !ok {
		return nil, TypeMismatchError{Value: rv.Interface(), Expected: "a member of " + table.ty.String()}
	}
	return name, nil
}

// sortedKeys returns the keys of a set in a stable order, so serialized
// output does not depend on map iteration.
func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()

	switch rv.Type().Key().Kind() {
	case reflect.String:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) })
	}

	return keys
}
