package keytmpl

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Error Types
// --------------------------------------------------------------------------

// ParseError describes a template validation failure. Pos is the rune
// position of the offending character in the source string.
type ParseError struct {
	Pos  int
	Char rune
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Char != 0 {
		return fmt.Sprintf("keytmpl: invalid template at position %d (%q): %s", e.Pos, e.Char, e.Msg)
	}
	return fmt.Sprintf("keytmpl: invalid template at position %d: %s", e.Pos, e.Msg)
}

// MissingFieldsError reports every field the input failed to provide, so a
// single render attempt yields a complete report instead of one missing
// field at a time.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("keytmpl: missing fields: %s", strings.Join(e.Fields, ", "))
}

// UnknownFuncError reports a pipeline referencing a function that is neither
// a builtin nor registered on the template or its registry.
type UnknownFuncError struct {
	Name string
}

func (e *UnknownFuncError) Error() string {
	return fmt.Sprintf("keytmpl: unknown function %q", e.Name)
}
