package pyckson

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// A Parser converts one decoded JSON value into a value of its target
// type. Accepts is the total shape predicate used by union dispatch: it
// answers "could this value be mine" from the runtime shape alone, without
// converting. Parsers are immutable once built and shared across models.
type Parser interface {
	Parse(v any) (any, error)
	Accepts(v any) bool
}

// passthroughParser is the identity conversion for untyped fields.
type passthroughParser struct{}

func (passthroughParser) Parse(v any) (any, error) { return v, nil }
func (passthroughParser) Accepts(v any) bool       { return true }

type boolParser struct {
	ty reflect.Type
}

func (p boolParser) Accepts(v any) bool {
	_, ok := v.(bool)
	return ok
}

func (p boolParser) Parse(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "a boolean"}
	}

	out := reflect.New(p.ty).Elem()
	out.SetBool(b)
	return out.Interface(), nil
}

type stringParser struct {
	ty reflect.Type
}

func (p stringParser) Accepts(v any) bool {
	_, ok := v.(string)
	return ok
}

func (p stringParser) Parse(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "a string"}
	}

	out := reflect.New(p.ty).Elem()
	out.SetString(s)
	return out.Interface(), nil
}

type intParser struct {
	ty       reflect.Type
	unsigned bool
}

func (p intParser) Accepts(v any) bool {
	_, ok := asInt64(v)
	return ok
}

func (p intParser) Parse(v any) (any, error) {
	n, ok := asInt64(v)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "an integer"}
	}

	out := reflect.New(p.ty).Elem()

	if p.unsigned {
		if n < 0 || out.OverflowUint(uint64(n)) {
			return nil, TypeMismatchError{Value: v, Expected: p.ty.String()}
		}
		out.SetUint(uint64(n))
		return out.Interface(), nil
	}

	if out.OverflowInt(n) {
		return nil, TypeMismatchError{Value: v, Expected: p.ty.String()}
	}
	out.SetInt(n)
	return out.Interface(), nil
}

type floatParser struct {
	ty reflect.Type
}

func (p floatParser) Accepts(v any) bool {
	_, ok := asFloat64(v)
	return ok
}

func (p floatParser) Parse(v any) (any, error) {
	f, ok := asFloat64(v)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "a number"}
	}

	out := reflect.New(p.ty).Elem()
	out.SetFloat(f)
	return out.Interface(), nil
}

// decimalParser converts a numeric or string payload value to a
// decimal.Decimal without rounding.
type decimalParser struct{}

func (decimalParser) Accepts(v any) bool {
	if _, ok := v.(string); ok {
		return true
	}
	_, ok := asFloat64(v)
	return ok
}

func (decimalParser) Parse(v any) (any, error) {
	switch n := v.(type) {
	case json.Number:
		return parseDecimalString(n.String())
	case string:
		return parseDecimalString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return nil, TypeMismatchError{Value: v, Expected: "a number or numeric string"}
	}
}

func parseDecimalString(s string) (any, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, TypeMismatchError{Value: s, Expected: "a numeric string"}
	}
	return d, nil
}

// timeParser converts an RFC 3339 string to a time.Time.
type timeParser struct{}

func (timeParser) Accepts(v any) bool {
	_, ok := v.(string)
	return ok
}

func (timeParser) Parse(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "an RFC 3339 timestamp"}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, TypeMismatchError{Value: v, Expected: "an RFC 3339 timestamp"}
	}
	return t, nil
}

type listParser struct {
	ty   reflect.Type
	elem Parser
}

func (p listParser) Accepts(v any) bool {
	_, ok := v.([]any)
	return ok
}

func (p listParser) Parse(v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "a list"}
	}

	out := reflect.MakeSlice(p.ty, 0, len(items))
	for idx, item := range items {
		converted, err := p.elem.Parse(item)
		if err != nil {
			return nil, fmt.Errorf("element idx=%d: %w", idx, err)
		}

		elem := reflect.New(p.ty.Elem()).Elem()
		if err := assign(elem, converted); err != nil {
			return nil, fmt.Errorf("element idx=%d: %w", idx, err)
		}
		out = reflect.Append(out, elem)
	}

	return out.Interface(), nil
}

// setParser fills a map[T]struct{} from a JSON array. Duplicate elements
// collapse silently, as a set should.
type setParser struct {
	ty   reflect.Type
	elem Parser
}

func (p setParser) Accepts(v any) bool {
	_, ok := v.([]any)
	return ok
}

func (p setParser) Parse(v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "a set or a list"}
	}

	out := reflect.MakeMapWithSize(p.ty, len(items))
	for idx, item := range items {
		converted, err := p.elem.Parse(item)
		if err != nil {
			return nil, fmt.Errorf("element idx=%d: %w", idx, err)
		}

		key := reflect.New(p.ty.Key()).Elem()
		if err := assign(key, converted); err != nil {
			return nil, fmt.Errorf("element idx=%d: %w", idx, err)
		}
		out.SetMapIndex(key, reflect.ValueOf(struct{}{}))
	}

	return out.Interface(), nil
}

type mapParser struct {
	ty   reflect.Type
	elem Parser
}

func (p mapParser) Accepts(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func (p mapParser) Parse(v any) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "an object"}
	}

	out := reflect.MakeMapWithSize(p.ty, len(obj))
	for name, item := range obj {
		converted, err := p.elem.Parse(item)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}

		key := reflect.New(p.ty.Key()).Elem()
		key.SetString(name)

		value := reflect.New(p.ty.Elem()).Elem()
		if err := assign(value, converted); err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}
		out.SetMapIndex(key, value)
	}

	return out.Interface(), nil
}

// enumParser resolves a payload value to an enum member through the
// registered member table, honoring the table's lookup mode.
type enumParser struct {
	table *enumTable
}

func (p enumParser) Accepts(v any) bool {
	if p.table.lookup == lookupByValue && p.table.ty.Kind() != reflect.String {
		_, ok := asInt64(v)
		return ok
	}

	_, ok := v.(string)
	return ok
}

func (p enumParser) Parse(v any) (any, error) {
	switch p.table.lookup {
	case lookupCaseInsensitive:
		s, ok := v.(string)
		if !ok {
			return nil, TypeMismatchError{Value: v, Expected: "a member name of " + p.table.ty.String()}
		}
		member, ok := p.table.byLower[strings.ToLower(s)]
		if !ok {
			return nil, TypeMismatchError{Value: v, Expected: "a member name of " + p.table.ty.String()}
		}
		return member.Interface(), nil

	case lookupByValue:
		key, err := p.valueKey(v)
		if err != nil {
			return nil, err
		}
		member, ok := p.table.byValue[key]
		if !ok {
			return nil, TypeMismatchError{Value: v, Expected: "a member value of " + p.table.ty.String()}
		}
		return member.Interface(), nil

	default:
		s, ok := v.(string)
		if !ok {
			return nil, TypeMismatchError{Value: v, Expected: "a member name of " + p.table.ty.String()}
		}
		member, ok := p.table.byName[s]
		if !ok {
			return nil, TypeMismatchError{Value: v, Expected: "a member name of " + p.table.ty.String()}
		}
		return member.Interface(), nil
	}
}

func (p enumParser) valueKey(v any) (any, error) {
	if p.table.ty.Kind() == reflect.String {
		s, ok := v.(string)
		if !ok {
			return nil, TypeMismatchError{Value: v, Expected: "a member value of " + p.table.ty.String()}
		}
		return s, nil
	}

	n, ok := asInt64(v)
	if !ok {
		return nil, TypeMismatchError{Value: v, Expected: "a member value of " + p.table.ty.String()}
	}
	return n, nil
}

// pointerParser makes the pointee optional: JSON null becomes a nil
// pointer, anything else is converted and boxed.
type pointerParser struct {
	ty   reflect.Type
	elem Parser
}

func (p pointerParser) Accepts(v any) bool {
	return v == nil || p.elem.Accepts(v)
}

func (p pointerParser) Parse(v any) (any, error) {
	if v == nil {
		return reflect.Zero(p.ty).Interface(), nil
	}

	converted, err := p.elem.Parse(v)
	if err != nil {
		return nil, err
	}

	out := reflect.New(p.ty.Elem())
	if err := assign(out.Elem(), converted); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// unionParser tries each alternative's shape predicate in declaration
// order and converts with the first one that accepts the value.
type unionParser struct {
	ty   reflect.Type
	alts []Parser
}

func (p unionParser) Accepts(v any) bool {
	for _, alt := range p.alts {
		if alt.Accepts(v) {
			return true
		}
	}
	return false
}

func (p unionParser) Parse(v any) (any, error) {
	for _, alt := range p.alts {
		if alt.Accepts(v) {
			return alt.Parse(v)
		}
	}

	return nil, TypeMismatchError{Value: v, Expected: "compatible with union " + p.ty.String()}
}

// structParser recursively parses an object into a modeled class. The
// model itself is fetched from the registry cache at parse time, which
// keeps self-referential classes from recursing forever at build time.
type structParser struct {
	r  *Registry
	ty reflect.Type
}

func (p structParser) Accepts(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func (p structParser) Parse(v any) (any, error) {
	model, err := p.r.modelOf(p.ty)
	if err != nil {
		return nil, err
	}

	return p.r.parseStruct(model, v)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		i := int64(n)
		return i, float64(i) == n
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// assign stores a converted value into a reflect target, converting
// between identical underlying types where needed.
func assign(target reflect.Value, v any) error {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(target.Type()):
		target.Set(rv)
	case rv.Type().ConvertibleTo(target.Type()):
		target.Set(rv.Convert(target.Type()))
	default:
		return TypeMismatchError{Value: v, Expected: target.Type().String()}
	}

	return nil
}
