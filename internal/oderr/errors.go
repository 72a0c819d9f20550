// Package oderr defines the error taxonomy shared by every stage of the
// object-dictionary build pipeline. Every exported error carries the
// symbolic location (a parameter path or type name) of the failure so the
// CLI can report something a designer can act on.
package oderr

import "fmt"

// Kind discriminates the error taxonomy backends and the CLI report on.
type Kind string

const (
	SchemaValidation    Kind = "schema-validation"
	UnknownType         Kind = "unknown-type"
	TypeConflict        Kind = "type-conflict"
	IDSpaceViolation    Kind = "id-space-violation"
	IDCollision         Kind = "id-collision"
	TooManyAccessGroups Kind = "too-many-access-groups"
	UnresolvedReference Kind = "unresolved-reference"
	PipelineMisuse      Kind = "pipeline-misuse"
)

// Error is the single error type produced by the core. It is never wrapped
// or retried; on return, the caller is expected to abort the affected
// backend without producing partial output.
type Error struct {
	Kind     Kind
	Location string
	Message  string
}

func (e *Error) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Location, e.Message)
}

// New builds an Error for the given kind, location and formatted message.
func New(kind Kind, location, format string, args ...any) *Error {
	return &Error{Kind: kind, Location: location, Message: fmt.Sprintf(format, args...)}
}

// Is supports errors.Is comparisons against a bare Kind sentinel created via
// Sentinel, so callers can write
// `errors.Is(err, oderr.Sentinel(oderr.IDCollision))` against a wrapped *Error.
func (e *Error) Is(target error) bool {
	if s, ok := target.(*sentinel); ok {
		return e.Kind == s.kind
	}
	return false
}

type sentinel struct{ kind Kind }

func (s *sentinel) Error() string { return string(s.kind) }

// Sentinel returns a comparable error value usable with errors.Is to test
// the Kind of an *Error without inspecting its fields directly.
func Sentinel(kind Kind) error { return &sentinel{kind: kind} }
