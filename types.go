package pyckson

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the tag of a TypeDesc.
type Kind int

const (
	KindAny Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindDecimal
	KindTime
	KindPointer
	KindList
	KindSet
	KindMap
	KindStruct
	KindEnum
	KindUnion
)

// TypeDesc is a tagged description of a declared field type. The Kind
// selects the variant; Elem, Enum and Alternatives carry the payload for
// container, enum and union kinds respectively. Descriptors are derived
// once per class from the struct declaration plus the registrations
// attached to the Registry, and are immutable afterwards.
type TypeDesc struct {
	Kind Kind

	// Type is the declared Go type this descriptor was derived from.
	Type reflect.Type

	// Elem describes the element type of a list or set, the value type of
	// a map, or the pointee of a pointer.
	Elem *TypeDesc

	// Enum is the member table of an enum kind.
	Enum *enumTable

	// Alternatives are the union arms, in declaration order.
	Alternatives []TypeDesc
}

var (
	tyDecimal = reflect.TypeOf((*decimal.Decimal)(nil)).Elem()
	tyTime    = reflect.TypeOf((*time.Time)(nil)).Elem()
	tyAny     = reflect.TypeOf((*any)(nil)).Elem()
	tyEmpty   = reflect.TypeOf((*struct{})(nil)).Elem()
)

// describe derives the TypeDesc of a declared type. Registered unions and
// enums take precedence over the structural kind of the type, so a named
// type that was registered as an enum is never mistaken for a plain scalar.
func (r *Registry) describe(ty reflect.Type) (TypeDesc, error) {
	if alts, ok := r.unions[ty]; ok {
		return r.describeUnion(ty, alts)
	}

	if table, ok := r.enums[ty]; ok {
		return TypeDesc{Kind: KindEnum, Type: ty, Enum: table}, nil
	}

	switch ty {
	case tyDecimal:
		return TypeDesc{Kind: KindDecimal, Type: ty}, nil
	case tyTime:
		return TypeDesc{Kind: KindTime, Type: ty}, nil
	case tyAny:
		return TypeDesc{Kind: KindAny, Type: ty}, nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return TypeDesc{Kind: KindBool, Type: ty}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return TypeDesc{Kind: KindInt, Type: ty}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeDesc{Kind: KindUint, Type: ty}, nil

	case reflect.Float32, reflect.Float64:
		return TypeDesc{Kind: KindFloat, Type: ty}, nil

	case reflect.String:
		return TypeDesc{Kind: KindString, Type: ty}, nil

	case reflect.Pointer:
		elem, err := r.describe(ty.Elem())
		if err != nil {
			return TypeDesc{}, err
		}
		return TypeDesc{Kind: KindPointer, Type: ty, Elem: &elem}, nil

	case reflect.Slice:
		elem, err := r.describe(ty.Elem())
		if err != nil {
			return TypeDesc{}, err
		}
		return TypeDesc{Kind: KindList, Type: ty, Elem: &elem}, nil

	case reflect.Map:
		// map[T]struct{} is the set shape
		if ty.Elem() == tyEmpty {
			elem, err := r.describe(ty.Key())
			if err != nil {
				return TypeDesc{}, err
			}
			return TypeDesc{Kind: KindSet, Type: ty, Elem: &elem}, nil
		}

		if ty.Key().Kind() != reflect.String {
			return TypeDesc{}, ConfigurationError{Type: ty, Reason: "map keys must be strings"}
		}

		elem, err := r.describe(ty.Elem())
		if err != nil {
			return TypeDesc{}, err
		}
		return TypeDesc{Kind: KindMap, Type: ty, Elem: &elem}, nil

	case reflect.Struct:
		return TypeDesc{Kind: KindStruct, Type: ty}, nil

	case reflect.Interface:
		return TypeDesc{}, ConfigurationError{Type: ty, Reason: "interface type has no registered union alternatives"}

	default:
		return TypeDesc{}, ConfigurationError{Type: ty, Reason: "unsupported type"}
	}
}

func (r *Registry) describeUnion(ty reflect.Type, alts []reflect.Type) (TypeDesc, error) {
	descs := make([]TypeDesc, 0, len(alts))
	for _, alt := range alts {
		desc, err := r.describe(alt)
		if err != nil {
			return TypeDesc{}, err
		}
		descs = append(descs, desc)
	}

	return TypeDesc{Kind: KindUnion, Type: ty, Alternatives: descs}, nil
}
