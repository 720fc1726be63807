package pactaxios

import (
	"fmt"
	"strings"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// pathExpr is a URL expression classified into one of the shapes the
// materializer understands.
type pathExpr interface {
	isPathExpr()
}

type (
	// literalPath is a plain string literal.
	literalPath struct{ node syntax.Node }

	// templatePath is a template literal; parts are literal segments and
	// substitution spans in source order.
	templatePath struct{ parts []syntax.Node }

	// concatPath is a `+` chain, flattened.
	concatPath struct{ operands []syntax.Node }

	// variableRef is an identifier to be resolved to its initializer.
	variableRef struct{ ident syntax.Node }

	// literalTyped is any other expression whose type is a single string
	// literal, such as a parameter declared as `p: '/fixed'`.
	literalTyped struct{ typ syntax.Type }
)

func (literalPath) isPathExpr()  {}
func (templatePath) isPathExpr() {}
func (concatPath) isPathExpr()   {}
func (variableRef) isPathExpr()  {}
func (literalTyped) isPathExpr() {}

var templateDelimiters = strings.NewReplacer("`", "", "${", "", "$", "", "{", "", "}", "")

// Materialize rebuilds a concrete example path from a URL expression.
func (a *Analyzer) Materialize(node syntax.Node) (string, error) {
	return a.materialize(node, 0)
}

func (a *Analyzer) materialize(node syntax.Node, depth int) (string, error) {
	if depth > a.opts.MaxPathDepth {
		return "", fmt.Errorf("%w: more than %d variable indirections (%s)",
			ErrUnsupportedPathExpression, a.opts.MaxPathDepth, node.FilePath())
	}

	expr, err := classify(node)
	if err != nil {
		return "", err
	}

	switch e := expr.(type) {
	case literalPath:
		return stripQuotes(e.node.Text()), nil

	case templatePath:
		var sb strings.Builder
		for _, part := range e.parts {
			if part.Kind() == syntax.KindTemplateSpan {
				if inner, ok := spanExpression(part); ok {
					sb.WriteString(a.example(inner.Type()))
				}
				continue
			}
			sb.WriteString(templateDelimiters.Replace(part.Text()))
		}
		return sb.String(), nil

	case concatPath:
		var sb strings.Builder
		for _, op := range e.operands {
			if op.Kind() == syntax.KindStringLiteral || op.Kind() == syntax.KindIdentifier || op.Type().IsStringLiteral() {
				sb.WriteString(a.example(op.Type()))
			}
		}
		return sb.String(), nil

	case literalTyped:
		return stripQuotes(e.typ.Text()), nil

	case variableRef:
		defs := e.ident.Definitions()
		if len(defs) == 0 {
			return "", unsupported(e.ident, fmt.Sprintf("no definition for %q", e.ident.Text()))
		}
		children := defs[0].Children()
		if len(children) == 0 {
			return "", unsupported(defs[0], fmt.Sprintf("definition of %q has no initializer", e.ident.Text()))
		}
		return a.materialize(children[len(children)-1], depth+1)
	}

	return "", unsupported(node, "unknown path shape")
}

func classify(node syntax.Node) (pathExpr, error) {
	kind := node.Kind()
	if kind != syntax.KindStringLiteral && kind != syntax.KindTemplateExpression {
		if t := node.Type(); t.IsStringLiteral() {
			return literalTyped{typ: t}, nil
		}
	}
	switch kind {
	case syntax.KindStringLiteral:
		return literalPath{node: node}, nil
	case syntax.KindTemplateExpression:
		return templatePath{parts: node.Children()}, nil
	case syntax.KindBinaryExpression:
		return concatPath{operands: flattenConcat(node)}, nil
	case syntax.KindIdentifier:
		return variableRef{ident: node}, nil
	}
	return nil, unsupported(node, "expected string, template, concatenation or variable")
}

// flattenConcat lists the operands of a `+` chain. `"/a/" + id + "/b"` parses
// as (("/a/" + id) + "/b"); the nested expression is expanded in place.
func flattenConcat(node syntax.Node) []syntax.Node {
	var out []syntax.Node
	for _, c := range node.Children() {
		switch {
		case c.Kind() == syntax.KindToken:
		case c.Kind() == syntax.KindBinaryExpression && isConcat(c):
			out = append(out, flattenConcat(c)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

func isConcat(node syntax.Node) bool {
	for _, c := range node.Children() {
		if c.Kind() == syntax.KindToken {
			return c.Text() == "+"
		}
	}
	return false
}

// spanExpression returns the expression inside `${...}`.
func spanExpression(span syntax.Node) (syntax.Node, bool) {
	for _, c := range span.Children() {
		if c.Kind() != syntax.KindToken {
			return c, true
		}
	}
	return nil, false
}
