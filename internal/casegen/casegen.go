// Package casegen centralizes identifier casing and doc-comment wrapping for
// every backend. It wraps goa.design/goa/v3/codegen's Goify, SnakeCase and
// Comment helpers rather than hand-rolling casing logic.
package casegen

import (
	goacodegen "goa.design/goa/v3/codegen"
)

// PyClass returns a CamelCase Python class name with the fixed "OD" prefix
// used as the default for a user type's host-side class name.
func PyClass(name string) string {
	return "OD" + goacodegen.Goify(name, true)
}

// CToken returns a lower_snake_case C identifier fragment.
func CToken(name string) string {
	return goacodegen.SnakeCase(goacodegen.Goify(name, true))
}

// Comment wraps a description into a sequence of "// "-prefixed lines
// suitable for the generated C header, reusing goa's own comment wrapper so
// generated output wraps at the same width as goa's generated code.
func Comment(lines ...string) string {
	return goacodegen.Comment(lines...)
}
