package graph

import (
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

var _ syntax.Type = (*tsType)(nil)

// tsType is a type inferred from declarations and annotations. Properties of
// structural types are computed on first use, so recursive interfaces only
// expand as far as they are walked.
type tsType struct {
	text    string
	literal bool   // string literal type
	base    string // widened primitive of a literal type
	elem    syntax.Type

	once    sync.Once
	resolve func() []syntax.Property
	props   []syntax.Property
}

var anyType = namedType("any")

func namedType(text string) *tsType {
	return &tsType{text: text}
}

func stringLiteralType(value string) *tsType {
	return &tsType{text: `"` + value + `"`, literal: true, base: "string"}
}

func primitiveLiteralType(text, base string) *tsType {
	return &tsType{text: text, base: base}
}

func arrayType(elem syntax.Type) *tsType {
	return &tsType{text: elem.Text() + "[]", elem: elem}
}

func structType(text string, resolve func() []syntax.Property) *tsType {
	return &tsType{text: text, resolve: resolve}
}

func (t *tsType) Text() string          { return t.text }
func (t *tsType) IsStringLiteral() bool { return t.literal }

func (t *tsType) Properties() []syntax.Property {
	t.once.Do(func() {
		if t.resolve != nil {
			t.props = t.resolve()
		}
	})
	return t.props
}

func (t *tsType) Property(name string) (syntax.Type, bool) {
	for _, p := range t.Properties() {
		if p.Name == name {
			return p.Type, true
		}
	}
	return nil, false
}

func (t *tsType) ElementType() (syntax.Type, bool) {
	return t.elem, t.elem != nil
}

// widen drops literal-ness the way `let` and object literal members do:
// "x" becomes string, 1 becomes number.
func widen(t syntax.Type) syntax.Type {
	if tt, ok := t.(*tsType); ok && tt.base != "" {
		return namedType(tt.base)
	}
	return t
}

// typeOf infers the type of an expression or declaration node.
func (p *Program) typeOf(f *sourceFile, n *tree_sitter.Node, depth int) syntax.Type {
	if n == nil || depth > maxResolveDepth {
		return anyType
	}

	switch n.Kind() {
	case "string":
		return stringLiteralType(stringValue(n, f.source))

	case "template_string":
		if firstNamedOfKind(n, "template_substitution") == nil {
			return stringLiteralType(strings.Trim(n.Utf8Text(f.source), "`"))
		}
		return namedType("string")

	case "number":
		return primitiveLiteralType(n.Utf8Text(f.source), "number")

	case "true", "false":
		return primitiveLiteralType(n.Kind(), "boolean")

	case "null":
		return namedType("null")

	case "binary_expression":
		return p.binaryType(f, n, depth)

	case "unary_expression":
		if fieldText(n, "operator", f.source) == "!" {
			return namedType("boolean")
		}
		return namedType("number")

	case "identifier", "shorthand_property_identifier":
		if n.Utf8Text(f.source) == "undefined" {
			return namedType("undefined")
		}
		b, ok := p.resolveName(f, n)
		if !ok {
			return anyType
		}
		return p.bindingType(b, depth+1)

	case "parenthesized_expression", "await_expression", "non_null_expression":
		if n.NamedChildCount() == 0 {
			return anyType
		}
		return p.typeOf(f, n.NamedChild(0), depth+1)

	case "as_expression", "satisfies_expression":
		if n.NamedChildCount() < 2 {
			return anyType
		}
		return p.typeFromNode(f, n.NamedChild(1), depth+1)

	case "object":
		return p.objectLiteralType(f, n, depth)

	case "array":
		if n.NamedChildCount() == 0 {
			return arrayType(anyType)
		}
		return arrayType(widen(p.typeOf(f, n.NamedChild(0), depth+1)))

	case "member_expression":
		obj := p.typeOf(f, n.ChildByFieldName("object"), depth+1)
		if pt, ok := obj.Property(fieldText(n, "property", f.source)); ok {
			return pt
		}
		return anyType

	case "variable_declarator", "required_parameter", "optional_parameter", "public_field_definition":
		return p.bindingType(binding{file: f, decl: n}, depth+1)
	}

	if isTypeNode(n.Kind()) {
		return p.typeFromNode(f, n, depth)
	}
	return anyType
}

func (p *Program) binaryType(f *sourceFile, n *tree_sitter.Node, depth int) syntax.Type {
	switch fieldText(n, "operator", f.source) {
	case "+":
		left := widen(p.typeOf(f, n.ChildByFieldName("left"), depth+1)).Text()
		right := widen(p.typeOf(f, n.ChildByFieldName("right"), depth+1)).Text()
		switch {
		case left == "string" || right == "string":
			return namedType("string")
		case left == "number" && right == "number":
			return namedType("number")
		}
		return anyType
	case "-", "*", "/", "%", "**", "|", "&", "^", "<<", ">>", ">>>":
		return namedType("number")
	case "==", "===", "!=", "!==", "<", "<=", ">", ">=", "instanceof", "in":
		return namedType("boolean")
	case "&&", "||", "??":
		return p.typeOf(f, n.ChildByFieldName("right"), depth+1)
	}
	return anyType
}

// bindingType is the declared type of a binding: its annotation when
// present, otherwise the type of its initializer. Only const declarations
// keep literal types.
func (p *Program) bindingType(b binding, depth int) syntax.Type {
	if b.isImport() || b.module || depth > maxResolveDepth {
		return anyType
	}
	decl := b.decl

	switch decl.Kind() {
	case "variable_declarator", "required_parameter", "optional_parameter", "public_field_definition":
		if t := decl.ChildByFieldName("type"); t != nil {
			return p.typeFromNode(b.file, t, depth+1)
		}
		value := decl.ChildByFieldName("value")
		if value == nil {
			return anyType
		}
		vt := p.typeOf(b.file, value, depth+1)
		if decl.Kind() == "variable_declarator" && isConstDeclarator(decl) {
			return vt
		}
		return widen(vt)

	case "enum_declaration":
		return namedType(fieldText(decl, "name", b.file.source))
	}
	return anyType
}

func isConstDeclarator(decl *tree_sitter.Node) bool {
	parent := decl.Parent()
	return parent != nil && parent.Kind() == "lexical_declaration" && hasToken(parent, "const")
}

// typeFromNode evaluates a type annotation.
func (p *Program) typeFromNode(f *sourceFile, n *tree_sitter.Node, depth int) syntax.Type {
	if n == nil || depth > maxResolveDepth {
		return anyType
	}

	switch n.Kind() {
	case "type_annotation", "parenthesized_type", "readonly_type":
		if n.NamedChildCount() == 0 {
			return anyType
		}
		return p.typeFromNode(f, n.NamedChild(n.NamedChildCount()-1), depth+1)

	case "predefined_type":
		return namedType(n.Utf8Text(f.source))

	case "type_identifier":
		return p.typeReference(f, n, depth)

	case "array_type":
		if n.NamedChildCount() == 0 {
			return arrayType(anyType)
		}
		return arrayType(p.typeFromNode(f, n.NamedChild(0), depth+1))

	case "generic_type":
		name := fieldText(n, "name", f.source)
		var args []*tree_sitter.Node
		if ta := n.ChildByFieldName("type_arguments"); ta != nil {
			for i := uint(0); i < ta.NamedChildCount(); i++ {
				args = append(args, ta.NamedChild(i))
			}
		}
		if (name == "Array" || name == "ReadonlyArray") && len(args) == 1 {
			return arrayType(p.typeFromNode(f, args[0], depth+1))
		}
		base := p.typeFromNode(f, n.ChildByFieldName("name"), depth+1)
		return structType(normalizeTypeText(n.Utf8Text(f.source)), base.Properties)

	case "object_type":
		return structType(normalizeTypeText(n.Utf8Text(f.source)), func() []syntax.Property {
			return p.memberProperties(f, n, depth+1)
		})

	case "literal_type":
		if n.NamedChildCount() == 0 {
			return namedType(n.Utf8Text(f.source))
		}
		lit := n.NamedChild(0)
		switch lit.Kind() {
		case "string":
			return stringLiteralType(stringValue(lit, f.source))
		case "number":
			return primitiveLiteralType(lit.Utf8Text(f.source), "number")
		case "true", "false":
			return primitiveLiteralType(lit.Kind(), "boolean")
		}
	}
	return namedType(normalizeTypeText(n.Utf8Text(f.source)))
}

// typeReference resolves a named type: interfaces and classes become
// structural types carrying their declared name, aliases of object types
// keep the alias name, other aliases evaluate to their target.
func (p *Program) typeReference(f *sourceFile, n *tree_sitter.Node, depth int) syntax.Type {
	name := n.Utf8Text(f.source)
	b, ok := f.lookup(n, name, typeSpace)
	if !ok {
		return namedType(name)
	}
	b, ok = p.follow(b, typeSpace)
	if !ok || b.isImport() || b.module {
		return namedType(name)
	}

	decl, file := b.decl, b.file
	declared := fieldText(decl, "name", file.source)
	if declared == "" {
		declared = name
	}

	switch decl.Kind() {
	case "interface_declaration":
		return structType(declared, func() []syntax.Property {
			return p.interfaceProperties(file, decl, depth+1)
		})

	case "type_alias_declaration":
		value := decl.ChildByFieldName("value")
		if value != nil && value.Kind() == "object_type" {
			return structType(declared, func() []syntax.Property {
				return p.memberProperties(file, value, depth+1)
			})
		}
		return p.typeFromNode(file, value, depth+1)

	case "class_declaration", "abstract_class_declaration":
		return structType(declared, func() []syntax.Property {
			return p.memberProperties(file, decl.ChildByFieldName("body"), depth+1)
		})
	}
	return namedType(declared)
}

// interfaceProperties lists own members first, then inherited ones not
// redeclared.
func (p *Program) interfaceProperties(f *sourceFile, decl *tree_sitter.Node, depth int) []syntax.Property {
	props := p.memberProperties(f, decl.ChildByFieldName("body"), depth)

	ext := firstNamedOfKind(decl, "extends_type_clause")
	if ext == nil {
		return props
	}
	seen := make(map[string]bool, len(props))
	for _, prop := range props {
		seen[prop.Name] = true
	}
	for i := uint(0); i < ext.NamedChildCount(); i++ {
		for _, prop := range p.typeFromNode(f, ext.NamedChild(i), depth+1).Properties() {
			if !seen[prop.Name] {
				seen[prop.Name] = true
				props = append(props, prop)
			}
		}
	}
	return props
}

// memberProperties reads property signatures of an interface body or object
// type, and field definitions of a class body.
func (p *Program) memberProperties(f *sourceFile, body *tree_sitter.Node, depth int) []syntax.Property {
	if body == nil || depth > maxResolveDepth {
		return nil
	}
	var props []syntax.Property
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		switch member.Kind() {
		case "property_signature":
			name := unquote(fieldText(member, "name", f.source))
			t := syntax.Type(anyType)
			if ann := member.ChildByFieldName("type"); ann != nil {
				t = p.typeFromNode(f, ann, depth+1)
			}
			props = append(props, syntax.Property{Name: name, Type: t})

		case "public_field_definition":
			name := unquote(fieldText(member, "name", f.source))
			props = append(props, syntax.Property{Name: name, Type: p.bindingType(binding{file: f, decl: member}, depth+1)})
		}
	}
	return props
}

// objectLiteralType types `{ a: 1, b }` with widened member types, in
// source order. Spread members contribute the properties of their type.
func (p *Program) objectLiteralType(f *sourceFile, n *tree_sitter.Node, depth int) syntax.Type {
	var props []syntax.Property
	add := func(name string, t syntax.Type) {
		for i, prop := range props {
			if prop.Name == name {
				props[i].Type = t
				return
			}
		}
		props = append(props, syntax.Property{Name: name, Type: t})
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		member := n.NamedChild(i)
		switch member.Kind() {
		case "pair":
			key := member.ChildByFieldName("key")
			if key == nil || key.Kind() == "computed_property_name" {
				continue
			}
			add(unquote(key.Utf8Text(f.source)), widen(p.typeOf(f, member.ChildByFieldName("value"), depth+1)))
		case "shorthand_property_identifier":
			add(member.Utf8Text(f.source), widen(p.typeOf(f, member, depth+1)))
		case "spread_element":
			if member.NamedChildCount() == 0 {
				continue
			}
			for _, prop := range p.typeOf(f, member.NamedChild(0), depth+1).Properties() {
				add(prop.Name, prop.Type)
			}
		}
	}

	if len(props) == 0 {
		return namedType("{}")
	}
	parts := make([]string, len(props))
	for i, prop := range props {
		parts[i] = prop.Name + ": " + prop.Type.Text()
	}
	resolved := props
	return structType("{ "+strings.Join(parts, "; ")+"; }", func() []syntax.Property { return resolved })
}

// isTypeNode reports whether kind is a type expression.
func isTypeNode(kind string) bool {
	switch kind {
	case "type_annotation", "predefined_type", "type_identifier", "nested_type_identifier",
		"generic_type", "array_type", "object_type", "literal_type", "union_type",
		"intersection_type", "tuple_type", "parenthesized_type", "readonly_type",
		"function_type", "type_query", "index_type_query", "lookup_type", "conditional_type":
		return true
	}
	return false
}

// stringValue returns the contents of a string literal node.
func stringValue(n *tree_sitter.Node, source []byte) string {
	text := n.Utf8Text(source)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

// normalizeTypeText collapses the whitespace of a type as written.
func normalizeTypeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
