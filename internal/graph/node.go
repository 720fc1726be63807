package graph

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// Compile-time assertions.
var (
	_ syntax.Node = node{}
	_ syntax.Node = externalNode{}
)

// node adapts a tree-sitter node of a program file to syntax.Node.
type node struct {
	file *sourceFile
	n    *tree_sitter.Node
}

func (f *sourceFile) wrap(n *tree_sitter.Node) node {
	return node{file: f, n: n}
}

func (x node) Kind() syntax.Kind { return kindOf(x.n) }

func (x node) Text() string { return x.n.Utf8Text(x.file.source) }

func (x node) FilePath() string { return x.file.path }

func (x node) Children() []syntax.Node {
	var fn *tree_sitter.Node
	if x.n.Kind() == "call_expression" {
		fn = x.n.ChildByFieldName("function")
	}
	count := x.n.ChildCount()
	out := make([]syntax.Node, 0, count)
	for i := uint(0); i < count; i++ {
		c := x.n.Child(i)
		if c == nil {
			continue
		}
		if fn != nil && c.Id() == fn.Id() {
			c = callee(x.n)
		}
		out = append(out, x.file.wrap(c))
	}
	return out
}

// callee returns the function expression of a call. The grammar parses
// `await a.get<T>(u)` as a call of `await a.get` with type arguments; the
// await is dropped so the callee is the member expression.
func callee(call *tree_sitter.Node) *tree_sitter.Node {
	fn := call.ChildByFieldName("function")
	if fn != nil && fn.Kind() == "await_expression" && fn.NamedChildCount() > 0 {
		return fn.NamedChild(0)
	}
	return fn
}

func (x node) Descendants(kind syntax.Kind) []syntax.Node {
	var out []syntax.Node

	cursor := x.n.Walk()
	defer cursor.Close()

	var walk func()
	walk = func() {
		if !cursor.GotoFirstChild() {
			return
		}
		for {
			c := cursor.Node()
			if kindOf(c) == kind {
				out = append(out, x.file.wrap(c))
			}
			walk()
			if !cursor.GotoNextSibling() {
				break
			}
		}
		cursor.GotoParent()
	}
	walk()
	return out
}

func (x node) Type() syntax.Type {
	return x.file.prog.typeOf(x.file, x.n, 0)
}

func (x node) TypeArguments() []syntax.Node {
	if x.n.Kind() != "call_expression" && x.n.Kind() != "new_expression" {
		return nil
	}
	return x.namedField("type_arguments")
}

func (x node) Arguments() []syntax.Node {
	if x.n.Kind() != "call_expression" && x.n.Kind() != "new_expression" {
		return nil
	}
	return x.namedField("arguments")
}

// namedField returns the named, non-comment children of a field node.
func (x node) namedField(field string) []syntax.Node {
	f := x.n.ChildByFieldName(field)
	if f == nil || (field == "arguments" && f.Kind() != "arguments") {
		return nil
	}
	var out []syntax.Node
	for i := uint(0); i < f.NamedChildCount(); i++ {
		c := f.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, x.file.wrap(c))
	}
	return out
}

func (x node) Definitions() []syntax.Node {
	return x.file.prog.definitions(x.file, x.n)
}

func (x node) Implementations() []syntax.Node {
	return x.file.prog.implementations(x.file, x.n)
}

// kindOf maps tree-sitter TypeScript node kinds onto syntax kinds.
func kindOf(n *tree_sitter.Node) syntax.Kind {
	if !n.IsNamed() {
		return syntax.KindToken
	}
	switch n.Kind() {
	case "program":
		return syntax.KindSourceFile
	case "function_declaration", "generator_function_declaration", "function_expression",
		"function", "arrow_function", "method_definition":
		return syntax.KindFunction
	case "call_expression":
		return syntax.KindCallExpression
	case "member_expression":
		return syntax.KindPropertyAccess
	case "identifier", "property_identifier", "shorthand_property_identifier", "type_identifier":
		return syntax.KindIdentifier
	case "string":
		return syntax.KindStringLiteral
	case "number":
		return syntax.KindNumericLiteral
	case "template_string":
		return syntax.KindTemplateExpression
	case "template_substitution":
		return syntax.KindTemplateSpan
	case "string_fragment", "escape_sequence":
		if p := n.Parent(); p != nil && p.Kind() == "template_string" {
			return syntax.KindTemplateText
		}
		return syntax.KindOther
	case "binary_expression":
		return syntax.KindBinaryExpression
	case "object":
		return syntax.KindObjectLiteral
	case "pair":
		return syntax.KindPropertyAssignment
	case "variable_declarator":
		return syntax.KindVariableDeclaration
	}
	if isTypeNode(n.Kind()) {
		return syntax.KindTypeReference
	}
	return syntax.KindOther
}

// externalNode stands for a declaration outside the program, such as a
// package's declaration file under node_modules.
type externalNode struct {
	path string
	name string
}

func (x externalNode) Kind() syntax.Kind                     { return syntax.KindExternalDeclaration }
func (x externalNode) Text() string                          { return x.name }
func (x externalNode) FilePath() string                      { return x.path }
func (x externalNode) Children() []syntax.Node               { return nil }
func (x externalNode) Descendants(syntax.Kind) []syntax.Node { return nil }
func (x externalNode) Type() syntax.Type                     { return anyType }
func (x externalNode) TypeArguments() []syntax.Node          { return nil }
func (x externalNode) Arguments() []syntax.Node              { return nil }
func (x externalNode) Definitions() []syntax.Node            { return nil }
func (x externalNode) Implementations() []syntax.Node        { return nil }
