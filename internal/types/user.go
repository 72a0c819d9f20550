package types

import "strconv"

// FieldTypeUse is the raw, as-declared shape of a user-type field: either a
// bare type name (Elements defaults to 1, Default is nil) or the expanded
// form carrying an explicit element count and/or default.
type FieldTypeUse struct {
	Type     string
	Elements int
	Default  any
}

// Normalize fills in the bare-reference defaults: a bare "T" expands to
// (T, 1, none).
func (u FieldTypeUse) Normalize() FieldTypeUse {
	if u.Elements == 0 {
		u.Elements = 1
	}
	return u
}

// UserTypeDecl is the raw, as-declared shape of a `types:` entry.
type UserTypeDecl struct {
	Description      string
	CTypeName        string
	PyTypeName       string
	StringSerialiser string
	Model            map[string]FieldTypeUse
	FieldOrder       []string // declaration order of Model's keys
}

// Field is one resolved field of a UserType: its declared type use bound to
// a concrete registered Type.
type Field struct {
	Name     string
	Use      FieldTypeUse
	Resolved Type
	// Referenced is true for every field that names a registered type, as
	// opposed to a raw nested dictionary. This implementation only supports
	// named field types, so Referenced is always true; the field is kept to
	// document the distinction between the two shapes.
	Referenced bool
}

// UserType is a fully resolved user-declared composite type.
type UserType struct {
	Name             string
	Description      string
	CTypeName        string
	PyTypeName       string
	StringSerialiser string
	Fields           []Field

	size       int
	format     string
	defaultVal any
}

func (t *UserType) TypeName() string { return t.Name }
func (t *UserType) CName() string    { return t.CTypeName }
func (t *UserType) HostName() string { return t.PyTypeName }
func (t *UserType) Size() int        { return t.size }
func (t *UserType) Format() string   { return t.format }
func (t *UserType) Default() any     { return t.defaultVal }
func (t *UserType) IsUser() bool     { return true }

// HostFormat returns the fully recursive packed-format descriptor used by
// host-side decoders: unlike Format (the C wire descriptor, which treats any
// nested user-typed field as an opaque byte run), HostFormat descends into
// nested user types at every depth, because the host decoder already knows
// how to walk the nested type's own fields.
func (t *UserType) HostFormat() string {
	return packedFormat(t.Fields, 1)
}

// packedFormat builds the little-endian packed-struct descriptor for fields
// at the given expansion depth: at depth 0 a nested custom field becomes
// "{total_bytes}s" opaque bytes; at any deeper depth it recurses into the
// nested type's own fields instead.
func packedFormat(fields []Field, depth int) string {
	var out string
	for _, f := range fields {
		if !f.Resolved.IsUser() {
			out += strconv.Itoa(f.Use.Elements) + scalarFormatChar(f.Resolved)
			continue
		}
		ut := f.Resolved.(*UserType)
		if depth == 0 {
			totalBytes := ut.Size() * f.Use.Elements
			out += strconv.Itoa(totalBytes) + "s"
			continue
		}
		for i := 0; i < f.Use.Elements; i++ {
			out += packedFormat(ut.Fields, depth+1)
		}
	}
	return out
}

func scalarFormatChar(t Type) string {
	f := t.Format()
	// A scalar's own Format() is "1X"; the field-level fragment needs just
	// the format character, the element count comes from the field's own
	// Elements, not the scalar's.
	return string(f[len(f)-1])
}
