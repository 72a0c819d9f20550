package types

import (
	"sort"
	"strconv"

	"github.com/fvsolutions-common/odin/internal/casegen"
	"github.com/fvsolutions-common/odin/internal/oderr"
)

// unitSize returns the byte size of a single little-endian packed struct
// format character, following the portable packed-structure convention
// (Python's struct module sizes, used as the portable reference since the
// wire format descriptor characters are taken directly from it).
func unitSize(ch byte) int {
	switch ch {
	case 'B', 'b', '?', 'c':
		return 1
	case 'H', 'h':
		return 2
	case 'I', 'i', 'f':
		return 4
	case 'Q', 'q', 'd':
		return 8
	case 's':
		return 1 // byte-run; its declared count already is the total
	}
	return 0
}

// StructSize computes the packed byte size of a format descriptor built
// from "{count}{char}" fragments concatenated in order.
func StructSize(format string) int {
	total := 0
	i := 0
	for i < len(format) {
		start := i
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			i++
		}
		count, _ := strconv.Atoi(format[start:i])
		if i >= len(format) {
			break
		}
		ch := format[i]
		i++
		if ch == 's' {
			total += count // count is the total byte length for 's'
		} else {
			total += count * unitSize(ch)
		}
	}
	return total
}

// Registry is the object-dictionary type registry. Registration and
// lookup are the only externally visible operations; a registry is built
// once at load time and frozen once the resolver starts consuming it.
type Registry struct {
	types map[string]Type
	order []string // registration order, scalars and user types alike
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Type)}
}

// RegisterScalar registers one of the twelve built-in types. Duplicate
// registration fails with type-conflict.
func (r *Registry) RegisterScalar(s ScalarType) error {
	if _, exists := r.types[s.Name]; exists {
		return oderr.New(oderr.TypeConflict, s.Name, "type %q already registered", s.Name)
	}
	r.types[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// RegisterBuiltins seeds the registry with the twelve scalar types. It is
// called once, before any user type or parameter tree is resolved.
func (r *Registry) RegisterBuiltins() error {
	for _, s := range Builtins() {
		if err := r.RegisterScalar(s); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves a type name. Unknown names fail with unknown-type.
func (r *Registry) Lookup(name string) (Type, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, oderr.New(oderr.UnknownType, name, "no such type %q", name)
	}
	return t, nil
}

// RegisterUserType expands and registers a user-declared composite type.
// Duplicate registration, and any field referencing an unregistered type,
// fail.
func (r *Registry) RegisterUserType(name string, decl UserTypeDecl) (*UserType, error) {
	if _, exists := r.types[name]; exists {
		return nil, oderr.New(oderr.TypeConflict, name, "type %q already registered", name)
	}

	cName := decl.CTypeName
	if cName == "" {
		cName = name + "_t"
	}
	pyName := decl.PyTypeName
	if pyName == "" {
		pyName = casegen.PyClass(name)
	}

	order := decl.FieldOrder
	if len(order) == 0 {
		order = sortedKeys(decl.Model)
	}

	fields := make([]Field, 0, len(order))
	for _, fname := range order {
		use := decl.Model[fname].Normalize()
		resolved, err := r.Lookup(use.Type)
		if err != nil {
			return nil, oderr.New(oderr.UnknownType, name+"."+fname, "field %q references unknown type %q", fname, use.Type)
		}
		fields = append(fields, Field{Name: fname, Use: use, Resolved: resolved, Referenced: true})
	}

	ut := &UserType{
		Name:             name,
		Description:      decl.Description,
		CTypeName:        cName,
		PyTypeName:       pyName,
		StringSerialiser: decl.StringSerialiser,
		Fields:           fields,
	}
	ut.format = packedFormat(fields, 0)
	ut.size = StructSize(ut.format)
	ut.defaultVal = computeDefault(fields)

	r.types[name] = ut
	r.order = append(r.order, name)
	return ut, nil
}

// UserTypeNames returns the names of every registered type, scalar and user
// alike, in registration order. Backends that need only the user-declared
// composite types filter the built-ins out by type-asserting the lookup.
func UserTypeNames(r *Registry) []string {
	return append([]string(nil), r.order...)
}

// computeDefault builds a user type's default value as the ordered list of
// its fields' own default contributions. A field's contribution is its
// explicit default if one was declared; otherwise a
// scalar field contributes its scalar type's default (broadcast to a list
// of Elements copies when Elements > 1), and a composite field contributes
// its own type's computed default.
func computeDefault(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldDefault(f))
	}
	return out
}

func fieldDefault(f Field) any {
	if f.Use.Default != nil {
		return f.Use.Default
	}
	if f.Resolved.IsUser() {
		return f.Resolved.Default()
	}
	if f.Use.Elements <= 1 {
		return f.Resolved.Default()
	}
	list := make([]any, f.Use.Elements)
	for i := range list {
		list[i] = f.Resolved.Default()
	}
	return list
}

func sortedKeys(m map[string]FieldTypeUse) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
