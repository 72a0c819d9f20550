// Package types implements the object-dictionary type registry: twelve
// built-in scalar types plus user-declared composite types expanded
// into a resolved type tree carrying byte size, little-endian packed
// wire-format descriptor, and default value.
package types

import "strconv"

// Type is satisfied by both ScalarType and *UserType. It is the unit the
// resolver binds parameters to.
type Type interface {
	// TypeName is the name this type was registered under.
	TypeName() string
	// CName is the identifier used for this type in generated C.
	CName() string
	// HostName is the identifier used for this type on the host side.
	HostName() string
	// Size is the packed byte size of one instance of this type.
	Size() int
	// Format is this type's little-endian packed struct descriptor.
	Format() string
	// Default is this type's default value.
	Default() any
	// IsUser reports whether this is a user-declared composite type, as
	// opposed to a built-in scalar.
	IsUser() bool
}

// ScalarType is one of the twelve built-in primitive types.
type ScalarType struct {
	Name       string
	CTypeName  string
	HostName_  string
	ByteSize   int
	FormatChar byte
	DefaultVal any
}

func (s ScalarType) TypeName() string { return s.Name }
func (s ScalarType) CName() string    { return s.CTypeName }
func (s ScalarType) HostName() string { return s.HostName_ }
func (s ScalarType) Size() int        { return s.ByteSize }
func (s ScalarType) Format() string   { return strconv.Itoa(1) + string(s.FormatChar) }
func (s ScalarType) Default() any     { return s.DefaultVal }
func (s ScalarType) IsUser() bool     { return false }

// Builtins returns the twelve scalar types the registry is seeded with.
// The int8/16/32/64 rows use the correctly *signed* wire-format characters
// (b h i q) rather than reusing the unsigned ones, so signed values round
// trip through the packed descriptor without truncation.
func Builtins() []ScalarType {
	return []ScalarType{
		{Name: "u8", CTypeName: "uint8_t", HostName_: "int", ByteSize: 1, FormatChar: 'B', DefaultVal: uint64(0)},
		{Name: "u16", CTypeName: "uint16_t", HostName_: "int", ByteSize: 2, FormatChar: 'H', DefaultVal: uint64(0)},
		{Name: "u32", CTypeName: "uint32_t", HostName_: "int", ByteSize: 4, FormatChar: 'I', DefaultVal: uint64(0)},
		{Name: "u64", CTypeName: "uint64_t", HostName_: "int", ByteSize: 8, FormatChar: 'Q', DefaultVal: uint64(0)},
		{Name: "i8", CTypeName: "int8_t", HostName_: "int", ByteSize: 1, FormatChar: 'b', DefaultVal: int64(0)},
		{Name: "i16", CTypeName: "int16_t", HostName_: "int", ByteSize: 2, FormatChar: 'h', DefaultVal: int64(0)},
		{Name: "i32", CTypeName: "int32_t", HostName_: "int", ByteSize: 4, FormatChar: 'i', DefaultVal: int64(0)},
		{Name: "i64", CTypeName: "int64_t", HostName_: "int", ByteSize: 8, FormatChar: 'q', DefaultVal: int64(0)},
		{Name: "f32", CTypeName: "float", HostName_: "float", ByteSize: 4, FormatChar: 'f', DefaultVal: float64(0)},
		{Name: "f64", CTypeName: "double", HostName_: "float", ByteSize: 8, FormatChar: 'd', DefaultVal: float64(0)},
		{Name: "bool", CTypeName: "bool", HostName_: "bool", ByteSize: 1, FormatChar: '?', DefaultVal: false},
		{Name: "char", CTypeName: "char", HostName_: "str", ByteSize: 1, FormatChar: 'c', DefaultVal: ""},
	}
}
