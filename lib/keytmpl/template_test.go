package keytmpl

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		fields []string
	}{
		{"empty", "", nil},
		{"literal only", "static/key", nil},
		{"allowed literal chars", "a1/b-c_d:e", nil},
		{"single field", "user/{id}", []string{"id"}},
		{"multiple fields", "{tenant}/{id}", []string{"tenant", "id"}},
		{"repeated field", "{id}/{id}", []string{"id", "id"}},
		{"field with pipeline", "user/{name|lower|trim}", []string{"name"}},
		{"call with args", "{name|default('anon')}", []string{"name"}},
		{"call with double quotes", `{name|default("anon")}`, []string{"name"}},
		{"call with two args", "{flag|if(yes,no)}", []string{"flag"}},
		{"call without args", "{name|upper()}", []string{"name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.src, err)
			}
			if tmpl.Source() != tt.src {
				t.Errorf("Expected source %q, got %q", tt.src, tmpl.Source())
			}
			if diff := cmp.Diff(tt.fields, tmpl.Fields()); diff != "" {
				t.Errorf("Fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unbalanced open", "user/{id"},
		{"unbalanced close", "user/id}"},
		{"nested braces", "user/{{id}}"},
		{"space in literal", "user name/{id}"},
		{"question mark in literal", "user/{id}?"},
		{"space in field name", "{user ID}"},
		{"empty field name", "{}"},
		{"empty field name with pipeline", "{|upper}"},
		{"bad function name", "{id|up-per}"},
		{"unclosed call", "{id|default('x'}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatalf("Parse(%q) should have failed", tt.src)
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("Expected *ParseError, got %T (%v)", err, err)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("abc?def")

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ParseError, got %T", err)
	}
	if perr.Pos != 3 {
		t.Errorf("Expected position 3, got %d", perr.Pos)
	}
	if perr.Char != '?' {
		t.Errorf("Expected offending char '?', got %q", perr.Char)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MustParse should panic on an invalid template")
		}
	}()
	MustParse("user/{id")
}
