// Package pactaxios derives Pact request metadata from functions that call
// an axios client. Given a function node it locates the axios call,
// extracts the HTTP method, body and query types, and rebuilds an example
// request path from the URL expression.
package pactaxios

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

var (
	// ErrCallSiteNotFound means no call in the function resolves to the
	// client library.
	ErrCallSiteNotFound = errors.New("axios expression was not found")

	// ErrMissingResponseType means the located call has no explicit generic
	// response type, e.g. axios.get(url) instead of axios.get<User>(url).
	ErrMissingResponseType = errors.New("axios response body type not found")

	// ErrUnsupportedPathExpression means the URL argument is not a literal,
	// template, concatenation or variable reference.
	ErrUnsupportedPathExpression = errors.New("unsupported path expression")
)

// Default option values.
const (
	DefaultClientPackage = "axios"
	DefaultDependencyDir = "node_modules"
	DefaultMaxPathDepth  = 32
)

// ExampleProvider supplies an example value for a type, keyed by the type's
// textual name.
type ExampleProvider interface {
	Example(typeName string) (string, bool)
}

// RequestDescriptor is the request shape of one analyzed call. QueryType and
// RequestBodyType are nil when the call carries none.
type RequestDescriptor struct {
	Method           string
	Path             string
	QueryType        syntax.Type
	RequestBodyType  syntax.Type
	ResponseBodyType syntax.Type
}

// Options tunes the analyzer.
type Options struct {
	// ClientPackage and DependencyDir must both appear in the file path of
	// an identifier's implementation for its call to count as a client call.
	ClientPackage string
	DependencyDir string

	// MaxPathDepth bounds variable indirections while materializing a path.
	MaxPathDepth int

	// Method derives the HTTP method from the call's identifier tokens.
	Method MethodPolicy
}

// Option mutates Options.
type Option func(*Options)

// WithClientPackage sets the client package name looked for in
// implementation paths.
func WithClientPackage(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.ClientPackage = name
		}
	}
}

// WithDependencyDir sets the external-dependency directory marker.
func WithDependencyDir(dir string) Option {
	return func(o *Options) {
		if dir != "" {
			o.DependencyDir = dir
		}
	}
}

// WithMaxPathDepth bounds path materialization recursion.
func WithMaxPathDepth(depth int) Option {
	return func(o *Options) {
		if depth > 0 {
			o.MaxPathDepth = depth
		}
	}
}

// WithMethodPolicy replaces the HTTP method detection.
func WithMethodPolicy(p MethodPolicy) Option {
	return func(o *Options) {
		if p != nil {
			o.Method = p
		}
	}
}

// Analyzer runs the call-site analysis. It holds no mutable state and may be
// shared between goroutines as long as the underlying project is read-only.
type Analyzer struct {
	project  syntax.Project
	examples ExampleProvider
	opts     Options
}

// NewAnalyzer creates an Analyzer over project. examples may be nil, in
// which case interpolated values fall back to their type names.
func NewAnalyzer(project syntax.Project, examples ExampleProvider, opts ...Option) *Analyzer {
	o := Options{
		ClientPackage: DefaultClientPackage,
		DependencyDir: DefaultDependencyDir,
		MaxPathDepth:  DefaultMaxPathDepth,
		Method:        SecondIdentifier,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Analyzer{project: project, examples: examples, opts: o}
}

// Analyze locates the client call inside fn and extracts its descriptor.
func (a *Analyzer) Analyze(fn syntax.Node) (RequestDescriptor, error) {
	call, err := a.Locate(fn)
	if err != nil {
		return RequestDescriptor{}, err
	}
	return a.Extract(call)
}

// example returns the registered example for t, or t's text without quotes.
func (a *Analyzer) example(t syntax.Type) string {
	name := t.Text()
	if a.examples != nil {
		if ex, ok := a.examples.Example(name); ok {
			return ex
		}
	}
	return stripQuotes(name)
}

var quoteStripper = strings.NewReplacer(`"`, "", `'`, "")

func stripQuotes(s string) string {
	return quoteStripper.Replace(s)
}

func unsupported(n syntax.Node, reason string) error {
	return fmt.Errorf("%w: %s (%s in %s)", ErrUnsupportedPathExpression, reason, n.Kind(), n.FilePath())
}
