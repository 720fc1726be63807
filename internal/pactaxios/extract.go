package pactaxios

import (
	"fmt"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// Extract derives the request descriptor of a located client call.
func (a *Analyzer) Extract(call syntax.Node) (RequestDescriptor, error) {
	method := a.Method(call)

	response, err := ResponseBodyType(call)
	if err != nil {
		return RequestDescriptor{}, err
	}

	path, err := a.Path(call)
	if err != nil {
		return RequestDescriptor{}, err
	}

	return RequestDescriptor{
		Method:           method,
		Path:             path,
		QueryType:        configProperty(call, "params"),
		RequestBodyType:  requestBodyType(call, method),
		ResponseBodyType: response,
	}, nil
}

// Method returns the upper-cased HTTP method of call, or "" when the policy
// finds none.
func (a *Analyzer) Method(call syntax.Node) string {
	ids := call.Descendants(syntax.KindIdentifier)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = id.Text()
	}
	return a.opts.Method(tokens)
}

// ResponseBodyType returns the type of the call's first explicit generic
// argument.
func ResponseBodyType(call syntax.Node) (syntax.Type, error) {
	args := call.TypeArguments()
	if len(args) == 0 || args[0].Type() == nil {
		return nil, fmt.Errorf("%w: set the response type on the call, e.g. axios.get<User>(url) (%s)",
			ErrMissingResponseType, call.FilePath())
	}
	return args[0].Type(), nil
}

// Path returns the base URL prefix followed by the materialized first
// argument.
func (a *Analyzer) Path(call syntax.Node) (string, error) {
	args := call.Arguments()
	if len(args) == 0 {
		return "", unsupported(call, "call has no url argument")
	}
	p, err := a.Materialize(args[0])
	if err != nil {
		return "", err
	}
	return a.ResolveBaseURL(call) + p, nil
}

// requestBodyType returns the payload type: the second argument itself for
// POST, PUT and PATCH, otherwise the `data` field of a config argument.
func requestBodyType(call syntax.Node, method string) syntax.Type {
	args := call.Arguments()
	if len(args) < 2 {
		return nil
	}
	if methodsWithBody[method] {
		return args[1].Type()
	}
	return configProperty(call, "data")
}

// configProperty finds the first argument recognized as a config object for
// property (see FirstPropertyNamed) and returns the property's type.
func configProperty(call syntax.Node, property string) syntax.Type {
	for _, arg := range call.Arguments() {
		t := arg.Type()
		if !FirstPropertyNamed(t, property) {
			continue
		}
		if pt, ok := t.Property(property); ok {
			return pt
		}
		return nil
	}
	return nil
}
