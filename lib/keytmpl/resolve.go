package keytmpl

import (
	"fmt"
	"reflect"
)

// --------------------------------------------------------------------------
// Input Resolution
// --------------------------------------------------------------------------

// VarProvider is the highest-priority input shape: a value that extracts its
// own template variables.
type VarProvider interface {
	TemplateVars() map[string]any
}

// resolveVars resolves the render input into a field-name to value mapping.
// Exactly one variant is selected, in strict priority order:
//
//  1. VarProvider — the provider's mapping is used exclusively
//  2. map[string]any or map[string]string
//  3. struct (or pointer to struct) — exported fields matched by name
//
// If the input satisfies none of the variants, nil is returned and every
// field lookup fails as missing.
func resolveVars(input any) map[string]any {
	if input == nil {
		return nil
	}

	if provider, ok := input.(VarProvider); ok {
		return provider.TemplateVars()
	}

	switch m := input.(type) {
	case map[string]any:
		return m
	case map[string]string:
		vars := make(map[string]any, len(m))
		for k, v := range m {
			vars[k] = v
		}
		return vars
	}

	v := reflect.ValueOf(input)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	typ := v.Type()
	vars := make(map[string]any, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		vars[field.Name] = v.Field(i).Interface()
	}
	return vars
}

// formatValue renders a resolved variable as a string.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}
