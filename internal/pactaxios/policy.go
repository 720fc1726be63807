package pactaxios

import (
	"strings"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// MethodPolicy derives the HTTP method from the identifier tokens of a call
// expression, in document order.
type MethodPolicy func(identifiers []string) string

// SecondIdentifier assumes the `<instance>.<method>(...)` shape: the first
// token is the client, the second the method. Returns "" when there is no
// second token.
func SecondIdentifier(identifiers []string) string {
	if len(identifiers) < 2 {
		return ""
	}
	return strings.ToUpper(identifiers[1])
}

// FirstPropertyNamed reports whether the first declared property of t is
// called name. It decides whether an argument is an axios config object
// carrying `data` or `params`; a config object declaring another property
// first is not recognized.
func FirstPropertyNamed(t syntax.Type, name string) bool {
	if t == nil {
		return false
	}
	props := t.Properties()
	return len(props) > 0 && props[0].Name == name
}

// methodsWithBody send their payload as the second positional argument.
var methodsWithBody = map[string]bool{
	"POST":  true,
	"PUT":   true,
	"PATCH": true,
}
