// Package syntax declares the read-only view of a typed syntax tree that the
// request analysis engine depends on. Implementations: graph.Program
// (tree-sitter, production) and syntaxtest (hand-built trees, testing).
package syntax

// Kind classifies a syntax node.
type Kind string

const (
	KindOther               Kind = "other"
	KindToken               Kind = "token"
	KindSourceFile          Kind = "source_file"
	KindFunction            Kind = "function"
	KindCallExpression      Kind = "call_expression"
	KindPropertyAccess      Kind = "property_access"
	KindIdentifier          Kind = "identifier"
	KindStringLiteral       Kind = "string_literal"
	KindNumericLiteral      Kind = "numeric_literal"
	KindTemplateExpression  Kind = "template_expression"
	KindTemplateSpan        Kind = "template_span"
	KindTemplateText        Kind = "template_text"
	KindBinaryExpression    Kind = "binary_expression"
	KindObjectLiteral       Kind = "object_literal"
	KindPropertyAssignment  Kind = "property_assignment"
	KindVariableDeclaration Kind = "variable_declaration"
	KindTypeReference       Kind = "type_reference"
	KindExternalDeclaration Kind = "external_declaration"
)

// Node is an opaque handle into a parsed source file.
type Node interface {
	Kind() Kind
	Text() string

	// Children returns the direct children, including tokens, in source order.
	Children() []Node

	// Descendants returns every node of the given kind below this one, in
	// document (pre-)order. The receiver itself is not included.
	Descendants(kind Kind) []Node

	// Type returns the inferred type of the node. Never nil; unknown types
	// report "any".
	Type() Type

	// TypeArguments returns the explicit generic arguments of a call.
	TypeArguments() []Node

	// Arguments returns the positional arguments of a call.
	Arguments() []Node

	// Definitions resolves an identifier to its declaration (one hop).
	Definitions() []Node

	// Implementations resolves an identifier to the node implementing it
	// (one hop). The result's FilePath identifies the originating module.
	Implementations() []Node

	// FilePath returns the path of the file the node originates from.
	FilePath() string
}

// Property is a named member of a structural type, in declaration order.
type Property struct {
	Name string
	Type Type
}

// Type is an inferred or declared type.
type Type interface {
	// Text is the textual rendering, e.g. `number`, `User`, `"/users"`.
	Text() string
	IsStringLiteral() bool
	Properties() []Property
	Property(name string) (Type, bool)
	ElementType() (Type, bool)
}

// Project gives project-wide access to parsed source files.
type Project interface {
	SourceFile(path string) (SourceFile, bool)
}

// SourceFile is one parsed file of a Project.
type SourceFile interface {
	Path() string
	VariableDeclaration(name string) (Node, bool)
}

// ChildrenOfKind filters the direct children of n by kind.
func ChildrenOfKind(n Node, kind Kind) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfKind returns the first direct child of the given kind.
func FirstChildOfKind(n Node, kind Kind) (Node, bool) {
	for _, c := range n.Children() {
		if c.Kind() == kind {
			return c, true
		}
	}
	return nil, false
}
