package pyckson

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// The default Registry instance backing the package level API.
var reg = NewRegistry()

// Default returns the package level Registry.
func Default() *Registry {
	return reg
}

type fieldKey struct {
	ty    reflect.Type
	field string
}

// Registry owns everything that cannot be read off a struct declaration:
// naming rules, enum member tables, union alternatives, per-field parser
// overrides and defaults. It also owns the model cache; a ClassModel is
// built at most once per type and lives until the Registry is dropped.
//
// All registrations must happen before the first model of the affected
// class is built. Parsing is safe for concurrent use.
type Registry struct {
	// serializes model building and registration
	mu sync.Mutex

	// cache of built models, indexed by reflect.Type. Reads are lock-free.
	models sync.Map

	defaultRule NamingRule
	rules       map[reflect.Type]NamingRule
	enums       map[reflect.Type]*enumTable
	unions      map[reflect.Type][]reflect.Type
	overrides   map[fieldKey]Parser
	unionFields map[fieldKey][]reflect.Type
	elemTypes   map[fieldKey]reflect.Type
	defaults    map[fieldKey]any

	// every type that was resolved into a cached model. An enum or union
	// registration for one of these would be silently ignored by the
	// cached model, so it panics instead. Guarded by mu.
	resolved map[reflect.Type]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		defaultRule: Identity,
		rules:       map[reflect.Type]NamingRule{},
		enums:       map[reflect.Type]*enumTable{},
		unions:      map[reflect.Type][]reflect.Type{},
		overrides:   map[fieldKey]Parser{},
		unionFields: map[fieldKey][]reflect.Type{},
		elemTypes:   map[fieldKey]reflect.Type{},
		defaults:    map[fieldKey]any{},
		resolved:    map[reflect.Type]struct{}{},
	}
}

// SetNamingRule sets the rule applied to every class that has no rule of
// its own. A fresh Registry uses Identity.
func (r *Registry) SetNamingRule(rule NamingRule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultRule = rule
}

// RegisterNamingRule attaches a NamingRule to one class. class is a value
// (or pointer to a value) of the class, following the style of the other
// registration functions.
func (r *Registry) RegisterNamingRule(class any, rule NamingRule) {
	ty := classType(class)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkNotModeled(ty)
	slog.Debug("registering naming rule", "class", ty.String())
	r.rules[ty] = rule
}

// RegisterDefault registers the value an optional field takes when it is
// absent from the payload. The field becomes optional by virtue of having
// a default. field is the Go field name.
func (r *Registry) RegisterDefault(class any, field string, value any) {
	ty := classType(class)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkNotModeled(ty)
	slog.Debug("registering default", "class", ty.String(), "field", field)
	r.defaults[fieldKey{ty, field}] = value
}

// RegisterParser overrides the parser of a single field, bypassing type
// resolution entirely.
func (r *Registry) RegisterParser(class any, field string, p Parser) {
	ty := classType(class)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkNotModeled(ty)
	slog.Debug("registering parser override", "class", ty.String(), "field", field)
	r.overrides[fieldKey{ty, field}] = p
}

// RegisterElemType declares the element type of an untyped container field
// ([]any or map[string]any), so its elements are converted instead of
// passed through.
func (r *Registry) RegisterElemType(class any, field string, elem any) {
	ty := classType(class)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkNotModeled(ty)
	slog.Debug("registering element type", "class", ty.String(), "field", field)
	r.elemTypes[fieldKey{ty, field}] = reflect.TypeOf(elem)
}

// RegisterUnionField declares the alternatives of a field typed as `any`.
// Alternatives are given as values of their type and keep their order for
// tie-breaking.
func (r *Registry) RegisterUnionField(class any, field string, alternatives ...any) {
	ty := classType(class)

	types := make([]reflect.Type, 0, len(alternatives))
	for _, alt := range alternatives {
		types = append(types, reflect.TypeOf(alt))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkNotModeled(ty)
	slog.Debug("registering union field", "class", ty.String(), "field", field)
	r.unionFields[fieldKey{ty, field}] = types
}

// RegisterUnion declares the alternatives of the interface type I. Every
// field declared as I resolves to a union parser over the alternatives, in
// the given order.
func RegisterUnion[I any](alternatives ...I) {
	RegisterUnionWith[I](reg, alternatives...)
}

func RegisterUnionWith[I any](r *Registry, alternatives ...I) {
	ty := reflect.TypeOf((*I)(nil)).Elem()
	if ty.Kind() != reflect.Interface {
		panic(fmt.Sprintf("union type %q is not an interface", ty))
	}

	types := make([]reflect.Type, 0, len(alternatives))
	for _, alt := range alternatives {
		types = append(types, reflect.TypeOf(alt))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.unions[ty]; exists {
		panic(fmt.Sprintf("union %q already registered", ty))
	}
	if _, used := r.resolved[ty]; used {
		panic(fmt.Sprintf("type %q is already resolved into a model, register before first use", ty))
	}

	slog.Debug("registering union", "type", ty.String(), "alternatives", len(types))
	r.unions[ty] = types
}

// RegisterEnum declares the members of the enum type E by symbolic name.
// Lookup is by exact name unless an option selects otherwise.
func RegisterEnum[E comparable](members map[string]E, opts ...EnumOption) {
	RegisterEnumWith[E](reg, members, opts...)
}

func RegisterEnumWith[E comparable](r *Registry, members map[string]E, opts ...EnumOption) {
	ty := reflect.TypeOf((*E)(nil)).Elem()

	table := newEnumTable(ty, members, opts...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.enums[ty]; exists {
		panic(fmt.Sprintf("enum %q already registered", ty))
	}
	if _, used := r.resolved[ty]; used {
		panic(fmt.Sprintf("type %q is already resolved into a model, register before first use", ty))
	}

	slog.Debug("registering enum", "type", ty.String(), "members", len(members))
	r.enums[ty] = table
}

// checkNotModeled panics when a registration arrives after the class's
// model was already built. A cached model would silently ignore the new
// registration otherwise.
func (r *Registry) checkNotModeled(ty reflect.Type) {
	if _, ok := r.models.Load(ty); ok {
		panic(fmt.Sprintf("class %q is already modeled, register before first use", ty))
	}
}

func classType(class any) reflect.Type {
	ty := reflect.TypeOf(class)
	for ty.Kind() == reflect.Pointer {
		ty = ty.Elem()
	}

	if ty.Kind() != reflect.Struct {
		panic(fmt.Sprintf("class %q is not a struct", ty))
	}

	return ty
}

// An enumLookup selects how a payload value is matched against the member
// table.
type enumLookup int

const (
	lookupByName enumLookup = iota
	lookupCaseInsensitive
	lookupByValue
)

type EnumOption func(*enumTable)

// CaseInsensitiveNames makes member name lookup ignore casing.
func CaseInsensitiveNames() EnumOption {
	return func(t *enumTable) { t.lookup = lookupCaseInsensitive }
}

// MatchByValue matches payload values against the members' associated
// values rather than their names.
func MatchByValue() EnumOption {
	return func(t *enumTable) { t.lookup = lookupByValue }
}

// enumTable holds the member table of one registered enum type, with the
// precomputed lookup maps for each lookup mode. Immutable once built.
type enumTable struct {
	ty     reflect.Type
	lookup enumLookup

	// names in sorted order, so model building and serialization are
	// deterministic
	names []string

	byName  map[string]reflect.Value
	byLower map[string]reflect.Value
	byValue map[any]reflect.Value

	// member value -> symbolic name, for serialization
	nameOf map[any]string
}

func newEnumTable[E comparable](ty reflect.Type, members map[string]E, opts ...EnumOption) *enumTable {
	table := &enumTable{
		ty:      ty,
		byName:  map[string]reflect.Value{},
		byLower: map[string]reflect.Value{},
		byValue: map[any]reflect.Value{},
		nameOf:  map[any]string{},
	}

	for _, opt := range opts {
		opt(table)
	}

	table.names = maps.Keys(members)
	slices.Sort(table.names)

	for _, name := range table.names {
		member := reflect.ValueOf(members[name])

		table.byName[name] = member

		lower := strings.ToLower(name)
		if _, clash := table.byLower[lower]; clash && table.lookup == lookupCaseInsensitive {
			panic(fmt.Sprintf("enum %q members %q collide case-insensitively", ty, name))
		}
		table.byLower[lower] = member

		table.byValue[underlyingValue(member)] = member

		if _, seen := table.nameOf[members[name]]; !seen {
			table.nameOf[members[name]] = name
		}
	}

	return table
}

// underlyingValue maps a member to the plain value its payload
// representation compares against: string members to string, integer
// members to int64.
func underlyingValue(member reflect.Value) any {
	switch member.Kind() {
	case reflect.String:
		return member.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return member.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(member.Uint())
	default:
		return member.Interface()
	}
}
