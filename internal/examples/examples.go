// Package examples supplies the example values written into contracts: the
// text interpolated into request paths and query strings, and the JSON
// bodies built from request and response types.
package examples

import (
	"maps"
	"strconv"
	"strings"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// MaxDepth bounds how deep Value expands nested and recursive types.
const MaxDepth = 8

// Defaults maps primitive type names to their example text.
var Defaults = map[string]string{
	"number":  "1",
	"string":  "string",
	"boolean": "true",
}

// Registry resolves example values by type name. Overrides take precedence
// over Defaults. A Registry is read-only after construction.
type Registry struct {
	values map[string]string
}

// NewRegistry returns a Registry with the defaults plus overrides.
func NewRegistry(overrides map[string]string) *Registry {
	values := maps.Clone(Defaults)
	maps.Copy(values, overrides)
	return &Registry{values: values}
}

// Example returns the example text registered for typeName.
func (r *Registry) Example(typeName string) (string, bool) {
	v, ok := r.values[typeName]
	return v, ok
}

// Value builds a JSON-ready example for t: objects become maps, arrays hold
// a single element, literals keep their value. Unknown types yield nil.
func (r *Registry) Value(t syntax.Type) any {
	return r.value(t, 0)
}

func (r *Registry) value(t syntax.Type, depth int) any {
	if t == nil || depth > MaxDepth {
		return nil
	}
	text := t.Text()
	if v, ok := r.values[text]; ok {
		return r.typed(text, v)
	}
	if t.IsStringLiteral() {
		return unquote(text)
	}
	if elem, ok := t.ElementType(); ok {
		return []any{r.value(elem, depth+1)}
	}
	if props := t.Properties(); len(props) > 0 {
		obj := make(map[string]any, len(props))
		for _, p := range props {
			obj[p.Name] = r.value(p.Type, depth+1)
		}
		return obj
	}
	return r.scalar(text)
}

// scalar derives a value from type text alone.
func (r *Registry) scalar(text string) any {
	text = strings.TrimSpace(text)
	if v, ok := r.values[text]; ok {
		return r.typed(text, v)
	}
	switch text {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined", "void", "any", "unknown", "never", "":
		return nil
	}
	if strings.Contains(text, "|") {
		// First concrete member of a union.
		for _, member := range strings.Split(text, "|") {
			if v := r.scalar(member); v != nil {
				return v
			}
		}
		return nil
	}
	if isQuoted(text) {
		return unquote(text)
	}
	if n, ok := number(text); ok {
		return n
	}
	return text
}

// typed converts registered example text for JSON: numbers and booleans
// stay unquoted when the type is numeric or boolean.
func (r *Registry) typed(typeName, v string) any {
	switch typeName {
	case "number":
		if n, ok := number(v); ok {
			return n
		}
	case "boolean":
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return v
}

func number(s string) (any, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]
}

func unquote(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}
