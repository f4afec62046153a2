package pyckson

import (
	"errors"
	"reflect"
	"strings"
)

// Attribute describes one declared field of a modeled class: the Go name,
// the external name it maps to in the payload, the declared type as a
// TypeDesc, optionality, and the parser bound to it.
type Attribute struct {
	Name         string
	ExternalName string
	Desc         TypeDesc
	Optional     bool
	Default      any
	HasDefault   bool

	// Omitempty is set by the tag option of the same name: the field is
	// optional on parse, and a zero value is left out on serialize.
	Omitempty bool

	// Index is the field index path into the struct, through embedded
	// structs if any.
	Index []int

	parser Parser
}

// Parser returns the converter bound to this attribute.
func (a Attribute) Parser() Parser {
	return a.parser
}

// ClassModel is the ordered attribute list of one class. Built at most
// once per class, cached by the Registry, never mutated afterwards. The
// serialization side walks the same model.
type ClassModel struct {
	Type       reflect.Type
	Attributes []Attribute
}

// Model returns the ClassModel of class, building it on first use. class
// is a value (or pointer to a value) of the class.
func Model(class any) (*ClassModel, error) {
	return reg.Model(class)
}

func (r *Registry) Model(class any) (*ClassModel, error) {
	return r.modelOf(classType(class))
}

func (r *Registry) modelOf(ty reflect.Type) (*ClassModel, error) {
	if cached, ok := r.models.Load(ty); ok {
		return cached.(*ClassModel), nil
	}

	// first build of this class. Serialize builders so the model is built
	// at most once; readers of a populated entry never get here.
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.build(ty, typeSet{})
}

// build constructs and caches the model of ty. The caller must hold r.mu.
func (r *Registry) build(ty reflect.Type, inProgress typeSet) (*ClassModel, error) {
	if cached, ok := r.models.Load(ty); ok {
		return cached.(*ClassModel), nil
	}

	if ty.Kind() != reflect.Struct {
		return nil, ConfigurationError{Type: ty, Reason: "not a struct"}
	}

	inProgress[ty] = struct{}{}

	fields, err := r.collectFields(ty)
	if err != nil {
		return nil, err
	}

	attributes := make([]Attribute, 0, len(fields))
	for _, field := range fields {
		attribute, err := r.buildAttribute(ty, field, inProgress)
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, attribute)
	}

	model := &ClassModel{Type: ty, Attributes: attributes}
	for _, attribute := range attributes {
		r.recordResolved(attribute.Desc)
	}
	r.models.Store(ty, model)

	return model, nil
}

// recordResolved remembers every type a cached model depends on, so a
// late enum or union registration for one of them can be rejected instead
// of being silently ignored. Only called on a successful build, a failed
// build leaves the registry open for the missing registration.
func (r *Registry) recordResolved(desc TypeDesc) {
	r.resolved[desc.Type] = struct{}{}
	if desc.Elem != nil {
		r.recordResolved(*desc.Elem)
	}
	for _, alt := range desc.Alternatives {
		r.recordResolved(alt)
	}
}

func (r *Registry) buildAttribute(ty reflect.Type, f fieldRecord, inProgress typeSet) (Attribute, error) {
	key := fieldKey{ty, f.Name}

	optional := f.Omitempty || f.Type.Kind() == reflect.Pointer

	def, hasDefault := r.defaults[key]
	if hasDefault {
		optional = true
		if def != nil && !reflect.TypeOf(def).AssignableTo(f.Type) {
			return Attribute{}, ConfigurationError{Type: ty, Field: f.Name, Reason: "default value does not fit the declared type"}
		}
	}

	desc, parser, err := r.resolveField(ty, f, inProgress)
	if err != nil {
		return Attribute{}, err
	}

	return Attribute{
		Name:         f.Name,
		ExternalName: f.ExternalName,
		Desc:         desc,
		Optional:     optional,
		Default:      def,
		HasDefault:   hasDefault,
		Omitempty:    f.Omitempty,
		Index:        f.Index,
		parser:       parser,
	}, nil
}

// resolveField picks the converter of one field. Explicit per-field
// registrations win over the builtin rule table.
func (r *Registry) resolveField(ty reflect.Type, f fieldRecord, inProgress typeSet) (TypeDesc, Parser, error) {
	key := fieldKey{ty, f.Name}

	if parser, ok := r.overrides[key]; ok {
		desc, err := r.describe(f.Type)
		if err != nil {
			// the override is the authority on this field, the declared
			// type no longer needs to resolve on its own
			desc = TypeDesc{Kind: KindAny, Type: f.Type}
		}
		return desc, parser, nil
	}

	if alts, ok := r.unionFields[key]; ok {
		desc, err := r.describeUnion(f.Type, alts)
		if err != nil {
			return TypeDesc{}, nil, err
		}
		parser, err := r.parserOf(desc, inProgress)
		if err != nil {
			return TypeDesc{}, nil, err
		}
		return desc, parser, nil
	}

	desc, err := r.describe(f.Type)
	if err != nil {
		var confErr ConfigurationError
		if errors.As(err, &confErr) && confErr.Field == "" {
			confErr.Field = f.Name
			if confErr.Type == nil || confErr.Type == f.Type {
				confErr.Type = ty
			}
			return TypeDesc{}, nil, confErr
		}
		return TypeDesc{}, nil, err
	}

	if elem, ok := r.elemTypes[key]; ok {
		desc, err = r.replaceElem(desc, elem)
		if err != nil {
			return TypeDesc{}, nil, ConfigurationError{Type: ty, Field: f.Name, Reason: err.Error()}
		}
	}

	parser, err := r.parserOf(desc, inProgress)
	if err != nil {
		return TypeDesc{}, nil, err
	}

	return desc, parser, nil
}

// replaceElem swaps the element descriptor of an untyped container for the
// registered element type.
func (r *Registry) replaceElem(desc TypeDesc, elem reflect.Type) (TypeDesc, error) {
	switch desc.Kind {
	case KindList, KindSet, KindMap:
		elemDesc, err := r.describe(elem)
		if err != nil {
			return TypeDesc{}, err
		}
		desc.Elem = &elemDesc
		return desc, nil
	default:
		return TypeDesc{}, ConfigurationError{Type: desc.Type, Reason: "element type registered for a non-container field"}
	}
}

type fieldRecord struct {
	Name         string
	ExternalName string
	Type         reflect.Type
	Index        []int
	Omitempty    bool
	Explicit     bool
}

// collectFields walks the struct in breadth-first order, flattening
// embedded structs, and maps every exported field to its external name.
// Shadowing follows encoding/json: the shallowest field wins, and among
// fields of equal depth a single explicitly tagged one wins. Any conflict
// that remains is a duplicate external name and rejects the class.
func (r *Registry) collectFields(ty reflect.Type) ([]fieldRecord, error) {
	rule := r.rules[ty]
	if rule == nil {
		rule = r.defaultRule
	}
	if rule == nil {
		rule = Identity
	}

	type queued struct {
		ty          reflect.Type
		parentIndex []int
	}

	queue := []queued{{ty: ty}}

	candidates := map[string][]fieldRecord{}
	var order []string

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for idx := 0; idx < item.ty.NumField(); idx++ {
			fi := item.ty.Field(idx)
			if !fi.IsExported() {
				continue
			}

			alias, explicit, skip, omitempty := parseTag(fi)
			if skip {
				continue
			}

			// derive the index of this field. ensure we allocate a new
			// slice by setting cap to the length of the parents index
			parent := item.parentIndex
			index := append(parent[:len(parent):len(parent)], fi.Index...)

			if fi.Anonymous && !explicit {
				// embedded field. skip if not a struct
				if fi.Type.Kind() != reflect.Struct {
					continue
				}

				// queue for later analysis
				queue = append(queue, queued{fi.Type, index})
				continue
			}

			external := alias
			if !explicit {
				external = rule(fi.Name)
			}

			if len(candidates[external]) == 0 {
				order = append(order, external)
			}

			candidates[external] = append(candidates[external], fieldRecord{
				Name:         fi.Name,
				ExternalName: external,
				Type:         fi.Type,
				Index:        index,
				Omitempty:    omitempty,
				Explicit:     explicit,
			})
		}
	}

	var fields []fieldRecord

	for _, external := range order {
		candidates := candidates[external]

		// due to the bfs walk, candidates are sorted by depth with the
		// shallowest first
		var visible []fieldRecord
		for _, c := range candidates {
			if len(c.Index) == len(candidates[0].Index) {
				visible = append(visible, c)
			}
		}

		if len(visible) == 1 {
			fields = append(fields, visible[0])
			continue
		}

		var explicit []fieldRecord
		for _, c := range visible {
			if c.Explicit {
				explicit = append(explicit, c)
			}
		}

		if len(explicit) == 1 {
			fields = append(fields, explicit[0])
			continue
		}

		return nil, ConfigurationError{Type: ty, Field: external, Reason: "duplicate external name"}
	}

	return fields, nil
}

// parseTag reads the json struct tag of a field: an optional alias before
// the first comma, and the omitempty option marking the field optional.
func parseTag(fi reflect.StructField) (alias string, explicit, skip, omitempty bool) {
	tag := fi.Tag.Get("json")
	if tag == "" {
		return fi.Name, false, false, false
	}

	if tag == "-" {
		return "", false, true, false
	}

	name, rest, _ := strings.Cut(tag, ",")
	omitempty = hasOption(rest, "omitempty")

	if name == "" {
		return fi.Name, false, false, omitempty
	}

	return name, true, false, omitempty
}

func hasOption(options, want string) bool {
	for options != "" {
		var opt string
		opt, options, _ = strings.Cut(options, ",")
		if opt == want {
			return true
		}
	}
	return false
}
