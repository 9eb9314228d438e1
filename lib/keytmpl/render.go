package keytmpl

import (
	"context"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Rendering
// --------------------------------------------------------------------------

// Render evaluates the template against the given input and returns the
// final key string.
//
// Field values are resolved once per call via the input-shape priority order
// (see resolveVars). Missing fields are collected across the whole template
// and reported together as a *MissingFieldsError — unless a field's pipeline
// contains a default call, in which case the pipeline runs with an empty
// value and default supplies the fallback. An unknown function name or a
// failing function aborts the render immediately.
//
// Rendering is deterministic: the same template and input always produce the
// same output.
func (t *Template) Render(ctx context.Context, input any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	vars := resolveVars(input)

	var (
		out     strings.Builder
		missing []string
	)

	for _, seg := range t.segments {
		if seg.field == nil {
			out.WriteString(seg.literal)
			continue
		}

		field := seg.field
		raw, present := vars[field.name]

		if !present && !field.hasDefault() {
			missing = append(missing, field.name)
			continue
		}

		value := ""
		if present {
			value = formatValue(raw)
		}

		rendered, err := t.applyPipeline(field, value)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
	}

	if len(missing) > 0 {
		return "", &MissingFieldsError{Fields: missing}
	}

	return out.String(), nil
}

// hasDefault reports whether the pipeline contains a default call, which
// defers a missing-field failure to the fallback value.
func (f *fieldRef) hasDefault() bool {
	for _, call := range f.calls {
		if call.name == FuncDefault {
			return true
		}
	}
	return false
}

// applyPipeline runs the field's transformation calls left to right.
func (t *Template) applyPipeline(field *fieldRef, value string) (string, error) {
	for _, call := range field.calls {
		fn, ok := t.lookupFunc(call.name)
		if !ok {
			return "", &UnknownFuncError{Name: call.name}
		}

		next, err := fn(value, call.args...)
		if err != nil {
			return "", fmt.Errorf("keytmpl: field %q: %w", field.name, err)
		}
		value = next
	}
	return value, nil
}
