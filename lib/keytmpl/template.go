package keytmpl

import (
	"strings"
	"sync"
	"unicode"
)

// --------------------------------------------------------------------------
// Template Structure
// --------------------------------------------------------------------------

// Template is an immutable parsed key template. The segment list never
// changes after Parse; only the per-instance function table is mutable, and
// only through RegisterFunc (or a Registry doing injection).
type Template struct {
	src      string
	segments []segment

	mu    sync.RWMutex
	funcs map[string]Func
}

// segment is either a literal text run or a single field reference.
type segment struct {
	literal string
	field   *fieldRef
}

// fieldRef is a `{name|fn|fn(args)}` reference inside a template.
type fieldRef struct {
	name  string
	calls []funcCall
}

// funcCall is one transformation call in a field's pipeline.
type funcCall struct {
	name string
	args []string
}

// Source returns the raw template string the Template was parsed from.
func (t *Template) Source() string {
	return t.src
}

// Fields returns the referenced field names in template order.
// Duplicates are preserved.
func (t *Template) Fields() []string {
	var names []string
	for _, seg := range t.segments {
		if seg.field != nil {
			names = append(names, seg.field.name)
		}
	}
	return names
}

// RegisterFunc adds a transformation function to this template instance only.
// Other templates, including ones parsed from the identical source string,
// are not affected. Registering a builtin name overrides it for this
// instance.
//
// Thread-safety: this method is thread-safe and can be called concurrently
// with Render.
func (t *Template) RegisterFunc(name string, fn Func) {
	t.injectFunc(name, fn)
}

// injectFunc is the single choke-point through which the function table is
// mutated, used by both RegisterFunc and Registry injection.
func (t *Template) injectFunc(name string, fn Func) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.funcs[name] = fn
}

// lookupFunc resolves a function name against the instance table.
func (t *Template) lookupFunc(name string) (Func, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.funcs[name]
	return fn, ok
}

// --------------------------------------------------------------------------
// Parsing and Validation
// --------------------------------------------------------------------------

// literalAllowed reports whether a rune may appear outside {} delimiters.
func literalAllowed(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '/', '|', '-', '_', ':':
		return true
	}
	return false
}

// alphanumeric reports whether a string is non-empty and consists of
// letters and digits only.
func alphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Parse validates a template string and compiles it into a Template.
//
// Outside {} only letters, digits and the delimiters / | - _ : are allowed.
// A field reference is {name} or {name|fn|fn(arg,...)} where name is
// alphanumeric. Unbalanced or nested braces fail validation. An empty
// template, or one without field references, is valid and renders as a
// literal.
func Parse(src string) (*Template, error) {
	t := &Template{
		src:   src,
		funcs: builtinFuncs(),
	}

	var literal strings.Builder
	fieldStart := -1 // rune position of the opening brace, -1 = outside

	for pos, r := range src {
		if fieldStart >= 0 {
			switch r {
			case '{':
				return nil, &ParseError{Pos: pos, Char: r, Msg: "nested brace"}
			case '}':
				field, err := parseField(src[fieldStart+1:pos], fieldStart+1)
				if err != nil {
					return nil, err
				}
				t.segments = append(t.segments, segment{field: field})
				fieldStart = -1
			}
			continue
		}

		switch {
		case r == '{':
			if literal.Len() > 0 {
				t.segments = append(t.segments, segment{literal: literal.String()})
				literal.Reset()
			}
			fieldStart = pos
		case r == '}':
			return nil, &ParseError{Pos: pos, Char: r, Msg: "unbalanced brace"}
		case literalAllowed(r):
			literal.WriteRune(r)
		default:
			return nil, &ParseError{Pos: pos, Char: r, Msg: "character not allowed outside braces"}
		}
	}

	if fieldStart >= 0 {
		return nil, &ParseError{Pos: fieldStart, Char: '{', Msg: "unbalanced brace"}
	}
	if literal.Len() > 0 {
		t.segments = append(t.segments, segment{literal: literal.String()})
	}

	return t, nil
}

// MustParse is like Parse but panics on invalid templates.
// Intended for package-level template variables.
func MustParse(src string) *Template {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// parseField parses the content between braces: a field name followed by an
// optional |-separated pipeline of transformation calls.
func parseField(content string, pos int) (*fieldRef, error) {
	parts := strings.Split(content, "|")

	name := parts[0]
	if !alphanumeric(name) {
		return nil, &ParseError{Pos: pos, Msg: "field name must be alphanumeric, got " + quote(name)}
	}

	field := &fieldRef{name: name}
	offset := pos + len(name) + 1

	for _, part := range parts[1:] {
		call, err := parseCall(part, offset)
		if err != nil {
			return nil, err
		}
		field.calls = append(field.calls, call)
		offset += len(part) + 1
	}

	return field, nil
}

// parseCall parses a single transformation call: `name` or `name(a,b)`.
// Arguments may be wrapped in single or double quotes.
func parseCall(s string, pos int) (funcCall, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if !alphanumeric(s) {
			return funcCall{}, &ParseError{Pos: pos, Msg: "function name must be alphanumeric, got " + quote(s)}
		}
		return funcCall{name: s}, nil
	}

	if !strings.HasSuffix(s, ")") {
		return funcCall{}, &ParseError{Pos: pos, Msg: "unclosed function call " + quote(s)}
	}

	name := s[:open]
	if !alphanumeric(name) {
		return funcCall{}, &ParseError{Pos: pos, Msg: "function name must be alphanumeric, got " + quote(name)}
	}

	call := funcCall{name: name}
	inner := s[open+1 : len(s)-1]
	if inner == "" {
		return call, nil
	}

	for _, arg := range strings.Split(inner, ",") {
		arg = strings.TrimSpace(arg)
		arg = trimQuotes(arg)
		call.args = append(call.args, arg)
	}

	return call, nil
}

// trimQuotes strips one pair of matching single or double quotes.
func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// quote wraps a string in quotes for error messages.
func quote(s string) string {
	return "\"" + s + "\""
}
