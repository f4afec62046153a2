package pyckson

import "reflect"

// A set of types whose models are currently being built. Used to cut
// recursion on self-referential classes.
type typeSet map[reflect.Type]struct{}

// A parserBuilder produces the Parser of one TypeDesc kind.
type parserBuilder func(r *Registry, desc TypeDesc, inProgress typeSet) (Parser, error)

// The builtin rule table, keyed by descriptor kind. Per-field overrides
// are consulted before this table, see resolveField. Populated in init
// because the container builders recurse through parserOf, which reads
// the table.
var parserBuilders map[Kind]parserBuilder

func init() {
	parserBuilders = map[Kind]parserBuilder{
		KindAny:     buildPassthroughParser,
		KindBool:    buildBoolParser,
		KindInt:     buildIntParser,
		KindUint:    buildUintParser,
		KindFloat:   buildFloatParser,
		KindString:  buildStringParser,
		KindDecimal: buildDecimalParser,
		KindTime:    buildTimeParser,
		KindPointer: buildPointerParser,
		KindList:    buildListParser,
		KindSet:     buildSetParser,
		KindMap:     buildMapParser,
		KindStruct:  buildStructParser,
		KindEnum:    buildEnumParser,
		KindUnion:   buildUnionParser,
	}
}

func (r *Registry) parserOf(desc TypeDesc, inProgress typeSet) (Parser, error) {
	build, ok := parserBuilders[desc.Kind]
	if !ok {
		return nil, ConfigurationError{Type: desc.Type, Reason: "unsupported type"}
	}

	return build(r, desc, inProgress)
}

func buildPassthroughParser(*Registry, TypeDesc, typeSet) (Parser, error) {
	return passthroughParser{}, nil
}

func buildBoolParser(_ *Registry, desc TypeDesc, _ typeSet) (Parser, error) {
	return boolParser{ty: desc.Type}, nil
}

func buildIntParser(_ *Registry, desc TypeDesc, _ typeSet) (Parser, error) {
	return intParser{ty: desc.Type}, nil
}

func buildUintParser(_ *Registry, desc TypeDesc, _ typeSet) (Parser, error) {
	return intParser{ty: desc.Type, unsigned: true}, nil
}

func buildFloatParser(_ *Registry, desc TypeDesc, _ typeSet) (Parser, error) {
	return floatParser{ty: desc.Type}, nil
}

func buildStringParser(_ *Registry, desc TypeDesc, _ typeSet) (Parser, error) {
	return stringParser{ty: desc.Type}, nil
}

func buildDecimalParser(*Registry, TypeDesc, typeSet) (Parser, error) {
	return decimalParser{}, nil
}

func buildTimeParser(*Registry, TypeDesc, typeSet) (Parser, error) {
	return timeParser{}, nil
}

func buildPointerParser(r *Registry, desc TypeDesc, inProgress typeSet) (Parser, error) {
	elem, err := r.parserOf(*desc.Elem, inProgress)
	if err != nil {
		return nil, err
	}

	return pointerParser{ty: desc.Type, elem: elem}, nil
}

func buildListParser(r *Registry, desc TypeDesc, inProgress typeSet) (Parser, error) {
	elem, err := r.parserOf(*desc.Elem, inProgress)
	if err != nil {
		return nil, err
	}

	return listParser{ty: desc.Type, elem: elem}, nil
}

func buildSetParser(r *Registry, desc TypeDesc, inProgress typeSet) (Parser, error) {
	elem, err := r.parserOf(*desc.Elem, inProgress)
	if err != nil {
		return nil, err
	}

	return setParser{ty: desc.Type, elem: elem}, nil
}

func buildMapParser(r *Registry, desc TypeDesc, inProgress typeSet) (Parser, error) {
	elem, err := r.parserOf(*desc.Elem, inProgress)
	if err != nil {
		return nil, err
	}

	return mapParser{ty: desc.Type, elem: elem}, nil
}

func buildEnumParser(_ *Registry, desc TypeDesc, _ typeSet) (Parser, error) {
	return enumParser{table: desc.Enum}, nil
}

func buildUnionParser(r *Registry, desc TypeDesc, inProgress typeSet) (Parser, error) {
	alts := make([]Parser, 0, len(desc.Alternatives))
	for _, alt := range desc.Alternatives {
		p, err := r.parserOf(alt, inProgress)
		if err != nil {
			return nil, err
		}
		alts = append(alts, p)
	}

	return unionParser{ty: desc.Type, alts: alts}, nil
}

// buildStructParser eagerly builds the nested class's model, so shape
// problems of nested classes surface when the outer model is built. Types
// already in construction are skipped; their model lands in the cache
// before any parse can reach them.
func buildStructParser(r *Registry, desc TypeDesc, inProgress typeSet) (Parser, error) {
	if _, ok := inProgress[desc.Type]; !ok {
		if _, err := r.build(desc.Type, inProgress); err != nil {
			return nil, err
		}
	}

	return structParser{r: r, ty: desc.Type}, nil
}
