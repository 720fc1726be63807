// Package syntaxtest builds small syntax trees by hand so the analysis engine
// can be tested without a parser.
package syntaxtest

import (
	"strings"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// Compile-time assertions.
var (
	_ syntax.Node       = (*Node)(nil)
	_ syntax.Type       = (*Type)(nil)
	_ syntax.Project    = (*Project)(nil)
	_ syntax.SourceFile = (*File)(nil)
)

// Node is a mutable, hand-wired syntax.Node. Resolution results (Defs,
// Impls) are set explicitly by the test.
type Node struct {
	K        syntax.Kind
	Src      string
	Kids     []*Node
	Typ      syntax.Type
	TypeArgs []*Node
	Args     []*Node
	Defs     []*Node
	Impls    []*Node
	Path     string
}

func (n *Node) Kind() syntax.Kind { return n.K }

// Text returns Src, or the concatenated text of the children when Src is empty.
func (n *Node) Text() string {
	if n.Src != "" || len(n.Kids) == 0 {
		return n.Src
	}
	var sb strings.Builder
	for _, k := range n.Kids {
		sb.WriteString(k.Text())
	}
	return sb.String()
}

func (n *Node) Children() []syntax.Node      { return toNodes(n.Kids) }
func (n *Node) TypeArguments() []syntax.Node { return toNodes(n.TypeArgs) }
func (n *Node) Arguments() []syntax.Node     { return toNodes(n.Args) }
func (n *Node) Definitions() []syntax.Node   { return toNodes(n.Defs) }
func (n *Node) Implementations() []syntax.Node {
	return toNodes(n.Impls)
}

func (n *Node) Type() syntax.Type {
	if n.Typ == nil {
		return Named("any")
	}
	return n.Typ
}

func (n *Node) FilePath() string {
	if n.Path == "" {
		return "src/api.ts"
	}
	return n.Path
}

func (n *Node) Descendants(kind syntax.Kind) []syntax.Node {
	var out []syntax.Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, k := range cur.Kids {
			if k.K == kind {
				out = append(out, k)
			}
			walk(k)
		}
	}
	walk(n)
	return out
}

func toNodes(ns []*Node) []syntax.Node {
	out := make([]syntax.Node, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}

// ---------- Constructors ----------

// Token returns a punctuation or keyword token.
func Token(text string) *Node {
	return &Node{K: syntax.KindToken, Src: text}
}

// Ident returns an identifier with the given type (nil means any).
func Ident(name string, t syntax.Type) *Node {
	return &Node{K: syntax.KindIdentifier, Src: name, Typ: t}
}

// Str returns a single-quoted string literal.
func Str(value string) *Node {
	return &Node{K: syntax.KindStringLiteral, Src: "'" + value + "'", Typ: StringLit(value)}
}

// Member returns `object.property`.
func Member(object, property *Node) *Node {
	return &Node{K: syntax.KindPropertyAccess, Kids: []*Node{object, Token("."), property}}
}

// TypeRef wraps a type as a type-argument node.
func TypeRef(t syntax.Type) *Node {
	return &Node{K: syntax.KindTypeReference, Src: t.Text(), Typ: t}
}

// Call returns `callee<typeArgs>(args)`. Like a real parse tree, type
// arguments and arguments hang below wrapper nodes, so they show up in
// Descendants but are not direct children of the call.
func Call(callee *Node, typeArgs []*Node, args ...*Node) *Node {
	kids := []*Node{callee}
	if len(typeArgs) > 0 {
		kids = append(kids, &Node{K: syntax.KindOther, Kids: typeArgs})
	}
	kids = append(kids, &Node{K: syntax.KindOther, Kids: args})
	return &Node{K: syntax.KindCallExpression, Kids: kids, TypeArgs: typeArgs, Args: args}
}

// Template returns a template literal from text and span parts.
func Template(parts ...*Node) *Node {
	return &Node{K: syntax.KindTemplateExpression, Kids: parts, Typ: Named("string")}
}

// TemplateText returns a literal template segment, delimiters included.
func TemplateText(text string) *Node {
	return &Node{K: syntax.KindTemplateText, Src: text}
}

// Span returns a `${expr}` substitution.
func Span(expr *Node) *Node {
	return &Node{K: syntax.KindTemplateSpan, Kids: []*Node{Token("${"), expr, Token("}")}}
}

// Binary returns `left op right`.
func Binary(left *Node, op string, right *Node) *Node {
	return &Node{K: syntax.KindBinaryExpression, Kids: []*Node{left, Token(op), right}, Typ: Named("string")}
}

// Object returns an object literal. Its type lists the assigned properties
// in declaration order.
func Object(props ...*Node) *Node {
	t := &Type{Name: "{}"}
	kids := []*Node{Token("{")}
	for _, p := range props {
		kids = append(kids, p)
		t.Props = append(t.Props, syntax.Property{Name: p.Kids[0].Src, Type: p.Kids[2].Type()})
	}
	kids = append(kids, Token("}"))
	return &Node{K: syntax.KindObjectLiteral, Kids: kids, Typ: t}
}

// Assign returns a `name: value` property assignment.
func Assign(name string, value *Node) *Node {
	return &Node{K: syntax.KindPropertyAssignment, Kids: []*Node{Ident(name, nil), Token(":"), value}}
}

// VarDecl returns `name = init`; its last child is the initializer.
func VarDecl(name string, init *Node) *Node {
	return &Node{K: syntax.KindVariableDeclaration, Kids: []*Node{Ident(name, nil), Token("="), init}}
}

// External returns a declaration living in a file outside the project.
func External(path string) *Node {
	return &Node{K: syntax.KindExternalDeclaration, Path: path}
}

// Func wraps statements into a function node.
func Func(body ...*Node) *Node {
	return &Node{K: syntax.KindFunction, Kids: body}
}

// ---------- Types ----------

// Type is a hand-built syntax.Type.
type Type struct {
	Name          string
	StringLiteral bool
	Props         []syntax.Property
	Elem          syntax.Type
}

// Named returns a nominal type with optional properties.
func Named(name string, props ...syntax.Property) *Type {
	return &Type{Name: name, Props: props}
}

// StringLit returns the literal type of a string value.
func StringLit(value string) *Type {
	return &Type{Name: `"` + value + `"`, StringLiteral: true}
}

// ArrayOf returns `elem[]`.
func ArrayOf(elem syntax.Type) *Type {
	return &Type{Name: elem.Text() + "[]", Elem: elem}
}

// Prop is shorthand for a syntax.Property.
func Prop(name string, t syntax.Type) syntax.Property {
	return syntax.Property{Name: name, Type: t}
}

func (t *Type) Text() string                  { return t.Name }
func (t *Type) IsStringLiteral() bool         { return t.StringLiteral }
func (t *Type) Properties() []syntax.Property { return t.Props }

func (t *Type) Property(name string) (syntax.Type, bool) {
	for _, p := range t.Props {
		if p.Name == name {
			return p.Type, true
		}
	}
	return nil, false
}

func (t *Type) ElementType() (syntax.Type, bool) {
	return t.Elem, t.Elem != nil
}

// ---------- Project ----------

// Project maps file paths to files.
type Project struct {
	Files map[string]*File
}

// NewProject returns a Project holding the given files.
func NewProject(files ...*File) *Project {
	p := &Project{Files: make(map[string]*File)}
	for _, f := range files {
		p.Files[f.FilePath] = f
	}
	return p
}

func (p *Project) SourceFile(path string) (syntax.SourceFile, bool) {
	f, ok := p.Files[path]
	if !ok {
		return nil, false
	}
	return f, true
}

// File maps top-level variable names to their declarations.
type File struct {
	FilePath string
	Vars     map[string]*Node
}

func (f *File) Path() string { return f.FilePath }

func (f *File) VariableDeclaration(name string) (syntax.Node, bool) {
	n, ok := f.Vars[name]
	if !ok {
		return nil, false
	}
	return n, true
}
