package keytmpl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
)

func TestRenderBasic(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		src   string
		input any
		want  string
	}{
		{"literal only", "static/key", nil, "static/key"},
		{"map any", "user/{id}", map[string]any{"id": 42}, "user/42"},
		{"map string", "user/{id}", map[string]string{"id": "42"}, "user/42"},
		{"multiple fields", "{tenant}/{id}", map[string]any{"tenant": "acme", "id": 7}, "acme/7"},
		{"repeated field", "{id}-{id}", map[string]any{"id": "x"}, "x-x"},
		{"upper", "{name|upper}", map[string]any{"name": "bob"}, "BOB"},
		{"lower", "{name|lower}", map[string]any{"name": "BoB"}, "bob"},
		{"trim", "{name|trim}", map[string]any{"name": "  bob  "}, "bob"},
		{"slugify", "{title|slugify}", map[string]any{"title": "Hello  World"}, "hello-world"},
		{"pipeline order", "{name|trim|upper}", map[string]any{"name": " bob "}, "BOB"},
		{"default present", "{name|default('anon')}", map[string]any{"name": "bob"}, "bob"},
		{"default missing", "user/{name|default('anon')}", map[string]any{}, "user/anon"},
		{"default empty value", "{name|default('anon')}", map[string]any{"name": ""}, "anon"},
		{"if truthy", "{flag|if(on,off)}", map[string]any{"flag": "x"}, "on"},
		{"if zero is truthy", "{flag|if(on,off)}", map[string]any{"flag": "0"}, "on"},
		{"if false string is truthy", "{flag|if(on,off)}", map[string]any{"flag": "false"}, "on"},
		{"if empty", "{flag|if(on,off)}", map[string]any{"flag": ""}, "off"},
		{"intadd", "page/{n|intadd(1)}", map[string]any{"n": "41"}, "page/42"},
		{"intadd negative", "{n|intadd(-5)}", map[string]any{"n": "3"}, "-2"},
		{"bytes value", "{data}", map[string]any{"data": []byte("raw")}, "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := MustParse(tt.src)

			got, err := tmpl.Render(ctx, tt.input)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderStructInput(t *testing.T) {
	type user struct {
		Name string
		ID   int
		age  int // unexported, must be invisible
	}

	tmpl := MustParse("user/{ID}/{Name|lower}")

	got, err := tmpl.Render(context.Background(), user{Name: "Alice", ID: 7, age: 30})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "user/7/alice" {
		t.Errorf("Expected user/7/alice, got %q", got)
	}

	// pointer to struct resolves the same way
	got, err = tmpl.Render(context.Background(), &user{Name: "Alice", ID: 7})
	if err != nil {
		t.Fatalf("Render with pointer failed: %v", err)
	}
	if got != "user/7/alice" {
		t.Errorf("Expected user/7/alice, got %q", got)
	}

	// unexported fields do not resolve
	tmpl = MustParse("{age}")
	if _, err := tmpl.Render(context.Background(), user{age: 30}); err == nil {
		t.Errorf("Expected missing-field error for unexported field")
	}
}

// providerInput implements VarProvider and also has exported struct fields,
// to prove the provider mapping is used exclusively.
type providerInput struct {
	Name string
}

func (p providerInput) TemplateVars() map[string]any {
	return map[string]any{"Name": "from-provider"}
}

func TestRenderInputPriority(t *testing.T) {
	tmpl := MustParse("{Name}")

	got, err := tmpl.Render(context.Background(), providerInput{Name: "from-struct"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "from-provider" {
		t.Errorf("Expected VarProvider to take priority, got %q", got)
	}
}

func TestRenderMissingFieldsAggregated(t *testing.T) {
	tmpl := MustParse("{x}/{found}/{y}")

	_, err := tmpl.Render(context.Background(), map[string]any{"found": "ok"})
	if err == nil {
		t.Fatalf("Expected missing-field error")
	}

	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected *MissingFieldsError, got %T (%v)", err, err)
	}

	sort.Strings(missing.Fields)
	if len(missing.Fields) != 2 || missing.Fields[0] != "x" || missing.Fields[1] != "y" {
		t.Errorf("Expected both x and y to be reported, got %v", missing.Fields)
	}
}

func TestRenderUnknownFunc(t *testing.T) {
	tmpl := MustParse("{id|nope}")

	_, err := tmpl.Render(context.Background(), map[string]any{"id": "1"})

	var unknown *UnknownFuncError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected *UnknownFuncError, got %T (%v)", err, err)
	}
	if unknown.Name != "nope" {
		t.Errorf("Expected function name nope, got %q", unknown.Name)
	}
}

func TestRenderFuncErrorAborts(t *testing.T) {
	tmpl := MustParse("{n|intadd(1)}")

	_, err := tmpl.Render(context.Background(), map[string]any{"n": "not-a-number"})
	if err == nil {
		t.Fatalf("Expected error for non-integer intadd input")
	}
	if !strings.Contains(err.Error(), "intadd") {
		t.Errorf("Expected intadd error, got %v", err)
	}
}

func TestRenderDeterministic(t *testing.T) {
	tmpl := MustParse("user/{name|slugify}/{n|intadd(10)}")
	input := map[string]any{"name": "Ada Lovelace", "n": "32"}

	first, err := tmpl.Render(context.Background(), input)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		got, err := tmpl.Render(context.Background(), input)
		if err != nil {
			t.Fatalf("Render failed on repeat %d: %v", i, err)
		}
		if got != first {
			t.Errorf("Render not deterministic: %q vs %q", first, got)
		}
	}
}

func TestRenderCancelledContext(t *testing.T) {
	tmpl := MustParse("user/{id}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tmpl.Render(ctx, map[string]any{"id": "1"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRegisterFuncPerInstance(t *testing.T) {
	src := "{id|double}"
	first := MustParse(src)
	second := MustParse(src)

	first.RegisterFunc("double", func(value string, _ ...string) (string, error) {
		return value + value, nil
	})

	got, err := first.Render(context.Background(), map[string]any{"id": "ab"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "abab" {
		t.Errorf("Expected abab, got %q", got)
	}

	// identical source, separate instance: the function must not leak over
	_, err = second.Render(context.Background(), map[string]any{"id": "ab"})
	var unknown *UnknownFuncError
	if !errors.As(err, &unknown) {
		t.Errorf("Expected *UnknownFuncError on the second instance, got %v", err)
	}
}

func TestRegisterFuncOverridesBuiltin(t *testing.T) {
	tmpl := MustParse("{id|upper}")

	tmpl.RegisterFunc(FuncUpper, func(value string, _ ...string) (string, error) {
		return fmt.Sprintf("<%s>", value), nil
	})

	got, err := tmpl.Render(context.Background(), map[string]any{"id": "x"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "<x>" {
		t.Errorf("Expected override to shadow the builtin, got %q", got)
	}

	// other templates keep the builtin
	other := MustParse("{id|upper}")
	got, err = other.Render(context.Background(), map[string]any{"id": "x"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "X" {
		t.Errorf("Expected builtin upper on fresh instance, got %q", got)
	}
}
