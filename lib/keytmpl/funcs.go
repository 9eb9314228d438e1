package keytmpl

import (
	"fmt"
	"strconv"
	"strings"
)

// Func is a transformation function applied inside a field pipeline.
// It receives the current string value and the literal arguments from the
// template and returns the transformed value.
// Functions must be pure; they may be called concurrently.
type Func func(value string, args ...string) (string, error)

// Builtin function names. Registering one of these on a template or
// registry overrides the builtin for that scope.
const (
	FuncUpper   = "upper"
	FuncLower   = "lower"
	FuncTrim    = "trim"
	FuncSlugify = "slugify"
	FuncDefault = "default"
	FuncIf      = "if"
	FuncIntAdd  = "intadd"
)

// builtinFuncs returns a fresh builtin table. Every template gets its own
// copy so per-instance registration never leaks across instances.
func builtinFuncs() map[string]Func {
	return map[string]Func{
		FuncUpper: func(value string, _ ...string) (string, error) {
			return strings.ToUpper(value), nil
		},
		FuncLower: func(value string, _ ...string) (string, error) {
			return strings.ToLower(value), nil
		},
		FuncTrim: func(value string, _ ...string) (string, error) {
			return strings.TrimSpace(value), nil
		},

		// slugify lowercases and collapses whitespace runs into single dashes.
		FuncSlugify: func(value string, _ ...string) (string, error) {
			return strings.Join(strings.Fields(strings.ToLower(value)), "-"), nil
		},

		// default substitutes its argument when the value is empty
		// (including when the field was missing from the input).
		FuncDefault: func(value string, args ...string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("default: expected 1 argument, got %d", len(args))
			}
			if value == "" {
				return args[0], nil
			}
			return value, nil
		},

		// if selects its first argument for a non-empty value and its second
		// for an empty one. Any non-empty string counts as true; there is no
		// special casing of "0" or "false".
		FuncIf: func(value string, args ...string) (string, error) {
			if len(args) != 2 {
				return "", fmt.Errorf("if: expected 2 arguments, got %d", len(args))
			}
			if value != "" {
				return args[0], nil
			}
			return args[1], nil
		},

		// intadd parses the value as a base-10 integer, adds its argument and
		// renders the sum back as base-10 (no leading zeros, negatives allowed).
		FuncIntAdd: func(value string, args ...string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("intadd: expected 1 argument, got %d", len(args))
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return "", fmt.Errorf("intadd: value %q is not an integer", value)
			}
			delta, err := strconv.Atoi(args[0])
			if err != nil {
				return "", fmt.Errorf("intadd: argument %q is not an integer", args[0])
			}
			return strconv.Itoa(n + delta), nil
		},
	}
}
