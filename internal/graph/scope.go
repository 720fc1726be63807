package graph

import (
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// maxResolveDepth bounds alias, re-export and initializer chains.
const maxResolveDepth = 16

type namespace int

const (
	valueSpace namespace = iota
	typeSpace
)

// binding is a name resolved to the node declaring it. Import bindings carry
// the module specifier and the imported name ("default", "*" or the export
// name) until they are followed into the exporting file.
type binding struct {
	file      *sourceFile
	decl      *tree_sitter.Node
	specifier string
	imported  string
	module    bool // decl is the root of a whole module (namespace import)
}

func (b binding) isImport() bool { return b.specifier != "" }

// origin is the module a value comes from: a program file or an external
// declaration file.
type origin struct {
	file     *sourceFile
	external string
}

// lookup resolves name lexically, starting at node at and walking outwards
// through blocks, function parameters and the module scope.
func (f *sourceFile) lookup(at *tree_sitter.Node, name string, space namespace) (binding, bool) {
	for cur := at; cur != nil; cur = cur.Parent() {
		switch cur.Kind() {
		case "program", "statement_block", "switch_body":
			if b, ok := f.declaredIn(cur, name, space); ok {
				return b, true
			}
		case "function_declaration", "generator_function_declaration", "function_expression",
			"function", "arrow_function", "method_definition":
			if space != valueSpace {
				continue
			}
			if p := parameterNamed(cur, name, f.source); p != nil {
				return binding{file: f, decl: p}, true
			}
		}
	}
	return binding{}, false
}

// declaredIn scans the statements of a block for a declaration of name.
func (f *sourceFile) declaredIn(block *tree_sitter.Node, name string, space namespace) (binding, bool) {
	for i := uint(0); i < block.NamedChildCount(); i++ {
		if b, ok := f.declares(block.NamedChild(i), name, space); ok {
			return b, true
		}
	}
	return binding{}, false
}

// declares reports whether the single statement stmt declares name.
func (f *sourceFile) declares(stmt *tree_sitter.Node, name string, space namespace) (binding, bool) {
	if stmt == nil {
		return binding{}, false
	}
	if stmt.Kind() == "export_statement" {
		stmt = stmt.ChildByFieldName("declaration")
		if stmt == nil {
			return binding{}, false
		}
	}

	switch stmt.Kind() {
	case "lexical_declaration", "variable_declaration":
		if space != valueSpace {
			return binding{}, false
		}
		for i := uint(0); i < stmt.NamedChildCount(); i++ {
			d := stmt.NamedChild(i)
			if d.Kind() != "variable_declarator" {
				continue
			}
			id := d.ChildByFieldName("name")
			if id == nil || id.Kind() != "identifier" || id.Utf8Text(f.source) != name {
				continue
			}
			if spec, ok := requireSpecifier(d.ChildByFieldName("value"), f.source); ok {
				return binding{file: f, decl: d, specifier: spec, imported: "*"}, true
			}
			return binding{file: f, decl: d}, true
		}

	case "function_declaration", "generator_function_declaration":
		if space == valueSpace && fieldText(stmt, "name", f.source) == name {
			return binding{file: f, decl: stmt}, true
		}

	case "class_declaration", "abstract_class_declaration", "enum_declaration":
		if fieldText(stmt, "name", f.source) == name {
			return binding{file: f, decl: stmt}, true
		}

	case "interface_declaration", "type_alias_declaration":
		if space == typeSpace && fieldText(stmt, "name", f.source) == name {
			return binding{file: f, decl: stmt}, true
		}

	case "import_statement":
		return f.importBinding(stmt, name)
	}
	return binding{}, false
}

// importBinding finds name among the bindings an import statement creates:
// default, namespace and named imports, and `import x = require('y')`.
func (f *sourceFile) importBinding(stmt *tree_sitter.Node, name string) (binding, bool) {
	spec := unquote(fieldText(stmt, "source", f.source))

	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		c := stmt.NamedChild(i)
		switch c.Kind() {
		case "import_clause":
			for j := uint(0); j < c.NamedChildCount(); j++ {
				cc := c.NamedChild(j)
				switch cc.Kind() {
				case "identifier":
					if cc.Utf8Text(f.source) == name {
						return binding{file: f, decl: cc, specifier: spec, imported: "default"}, true
					}
				case "namespace_import":
					if id := firstNamedOfKind(cc, "identifier"); id != nil && id.Utf8Text(f.source) == name {
						return binding{file: f, decl: cc, specifier: spec, imported: "*"}, true
					}
				case "named_imports":
					for k := uint(0); k < cc.NamedChildCount(); k++ {
						s := cc.NamedChild(k)
						if s.Kind() != "import_specifier" {
							continue
						}
						imported := fieldText(s, "name", f.source)
						local := imported
						if alias := fieldText(s, "alias", f.source); alias != "" {
							local = alias
						}
						if local == name {
							return binding{file: f, decl: s, specifier: spec, imported: unquote(imported)}, true
						}
					}
				}
			}
		case "import_require_clause":
			if id := firstNamedOfKind(c, "identifier"); id != nil && id.Utf8Text(f.source) == name {
				return binding{file: f, decl: c, specifier: unquote(fieldText(c, "source", f.source)), imported: "*"}, true
			}
		}
	}
	return binding{}, false
}

// exported resolves an exported name of the module to its binding: export
// declarations, `export { a as b }`, `export default`, and re-exports from
// another module. Unexported top-level declarations are accepted as a
// fallback.
func (f *sourceFile) exported(name string, space namespace) (binding, bool) {
	root := f.root
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "export_statement" {
			continue
		}

		if name == "default" && hasToken(stmt, "default") {
			if d := stmt.ChildByFieldName("declaration"); d != nil {
				return binding{file: f, decl: d}, true
			}
			if v := stmt.ChildByFieldName("value"); v != nil {
				if v.Kind() == "identifier" {
					return f.lookup(root, v.Utf8Text(f.source), space)
				}
				return binding{file: f, decl: v}, true
			}
			continue
		}

		if b, ok := f.declares(stmt, name, space); ok {
			return b, true
		}

		clause := firstNamedOfKind(stmt, "export_clause")
		if clause == nil {
			continue
		}
		from := unquote(fieldText(stmt, "source", f.source))
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			s := clause.NamedChild(j)
			if s.Kind() != "export_specifier" {
				continue
			}
			local := fieldText(s, "name", f.source)
			public := local
			if alias := fieldText(s, "alias", f.source); alias != "" {
				public = alias
			}
			if public != name {
				continue
			}
			if from != "" {
				return binding{file: f, decl: s, specifier: from, imported: local}, true
			}
			return f.lookup(root, local, space)
		}
	}
	return f.declaredIn(root, name, space)
}

// follow chases import bindings into the program files that export them.
// The result is still an import binding when the module is external or
// could not be resolved.
func (p *Program) follow(b binding, space namespace) (binding, bool) {
	for depth := 0; b.isImport(); depth++ {
		if depth > maxResolveDepth {
			return binding{}, false
		}
		target, ok := p.resolver.Resolve(b.specifier, b.file.path)
		if !ok {
			return b, true
		}
		tf, ok := p.files[target]
		if !ok {
			return b, true
		}
		if b.imported == "*" {
			return binding{file: tf, decl: tf.root, module: true}, true
		}
		next, ok := tf.exported(b.imported, space)
		if !ok {
			return binding{}, false
		}
		b = next
	}
	return b, true
}

// externalPath returns the declaration file of the package an unresolved
// import binding names.
func (p *Program) externalPath(b binding) (string, bool) {
	return p.resolver.ResolvePackage(b.specifier)
}

// resolveName looks up the identifier-like node n and follows imports.
func (p *Program) resolveName(f *sourceFile, n *tree_sitter.Node) (binding, bool) {
	space := valueSpace
	if n.Kind() == "type_identifier" {
		space = typeSpace
	}
	b, ok := f.lookup(n, n.Utf8Text(f.source), space)
	if !ok {
		return binding{}, false
	}
	return p.follow(b, space)
}

// definitions returns the declaration an identifier refers to (one hop).
func (p *Program) definitions(f *sourceFile, n *tree_sitter.Node) []syntax.Node {
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier", "type_identifier":
	default:
		return nil
	}
	b, ok := p.resolveName(f, n)
	if !ok {
		return nil
	}
	return p.bindingNodes(b, n.Utf8Text(f.source))
}

// implementations returns the node implementing an identifier. Property
// names resolve to the module their receiver originates from, which is
// how `instance.get` is traced back to the client package.
func (p *Program) implementations(f *sourceFile, n *tree_sitter.Node) []syntax.Node {
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier", "type_identifier":
		return p.definitions(f, n)

	case "property_identifier":
		member := n.Parent()
		if member == nil || member.Kind() != "member_expression" {
			return nil
		}
		o, ok := p.valueOrigin(f, member.ChildByFieldName("object"), 0)
		if !ok {
			return nil
		}
		if o.file != nil {
			return []syntax.Node{o.file.wrap(o.file.root)}
		}
		return []syntax.Node{externalNode{path: o.external, name: n.Utf8Text(f.source)}}
	}
	return nil
}

func (p *Program) bindingNodes(b binding, name string) []syntax.Node {
	if b.isImport() {
		path, ok := p.externalPath(b)
		if !ok {
			return nil
		}
		return []syntax.Node{externalNode{path: path, name: name}}
	}
	return []syntax.Node{b.file.wrap(b.decl)}
}

// valueOrigin traces an expression back to the module its value comes from.
// Calls only propagate through configured instance factories such as
// `axios.create()`; the result of any other call is unknown.
func (p *Program) valueOrigin(f *sourceFile, n *tree_sitter.Node, depth int) (origin, bool) {
	if n == nil || depth > maxResolveDepth {
		return origin{}, false
	}
	switch n.Kind() {
	case "identifier":
		b, ok := f.lookup(n, n.Utf8Text(f.source), valueSpace)
		if !ok {
			return origin{}, false
		}
		return p.bindingOrigin(b, valueSpace, depth+1)

	case "member_expression":
		obj := n.ChildByFieldName("object")
		if obj != nil && obj.Kind() == "this" {
			return p.fieldOrigin(f, n, fieldText(n, "property", f.source), depth+1)
		}
		return p.valueOrigin(f, obj, depth+1)

	case "call_expression":
		fn := callee(n)
		if fn == nil || fn.Kind() != "member_expression" {
			return origin{}, false
		}
		if !slices.Contains(p.opts.InstanceFactories, fieldText(fn, "property", f.source)) {
			return origin{}, false
		}
		return p.valueOrigin(f, fn.ChildByFieldName("object"), depth+1)

	case "new_expression":
		return p.valueOrigin(f, n.ChildByFieldName("constructor"), depth+1)

	case "await_expression", "parenthesized_expression", "non_null_expression":
		if n.NamedChildCount() == 0 {
			return origin{}, false
		}
		return p.valueOrigin(f, n.NamedChild(0), depth+1)

	case "as_expression", "satisfies_expression":
		if n.NamedChildCount() < 2 {
			return origin{}, false
		}
		return p.typeOrigin(f, n.NamedChild(1), depth+1)
	}
	return origin{}, false
}

// typeOrigin traces a type annotation to the module declaring the type.
func (p *Program) typeOrigin(f *sourceFile, n *tree_sitter.Node, depth int) (origin, bool) {
	if n == nil || depth > maxResolveDepth {
		return origin{}, false
	}
	switch n.Kind() {
	case "type_annotation", "parenthesized_type":
		if n.NamedChildCount() == 0 {
			return origin{}, false
		}
		return p.typeOrigin(f, n.NamedChild(0), depth+1)

	case "type_identifier":
		b, ok := f.lookup(n, n.Utf8Text(f.source), typeSpace)
		if !ok {
			return origin{}, false
		}
		return p.bindingOrigin(b, typeSpace, depth+1)

	case "generic_type":
		return p.typeOrigin(f, n.ChildByFieldName("name"), depth+1)

	case "nested_type_identifier":
		// axios.AxiosInstance
		module := n.ChildByFieldName("module")
		if module == nil || module.Kind() != "identifier" {
			return origin{}, false
		}
		return p.valueOrigin(f, module, depth+1)
	}
	return origin{}, false
}

func (p *Program) bindingOrigin(b binding, space namespace, depth int) (origin, bool) {
	b, ok := p.follow(b, space)
	if !ok {
		return origin{}, false
	}
	if b.isImport() {
		path, ok := p.externalPath(b)
		if !ok {
			return origin{}, false
		}
		return origin{external: path}, true
	}
	if b.module {
		return origin{file: b.file}, true
	}

	switch b.decl.Kind() {
	case "variable_declarator", "required_parameter", "optional_parameter", "public_field_definition":
		if t := b.decl.ChildByFieldName("type"); t != nil {
			if o, ok := p.typeOrigin(b.file, t, depth+1); ok {
				return o, true
			}
		}
		return p.valueOrigin(b.file, b.decl.ChildByFieldName("value"), depth+1)

	case "function_declaration", "generator_function_declaration", "class_declaration",
		"abstract_class_declaration", "interface_declaration", "type_alias_declaration", "enum_declaration":
		return origin{file: b.file}, true
	}
	return origin{}, false
}

// fieldOrigin resolves `this.<name>` inside a class: declared fields and
// constructor parameter properties.
func (p *Program) fieldOrigin(f *sourceFile, at *tree_sitter.Node, name string, depth int) (origin, bool) {
	body := at
	for body != nil && body.Kind() != "class_body" {
		body = body.Parent()
	}
	if body == nil {
		return origin{}, false
	}

	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		switch member.Kind() {
		case "public_field_definition":
			if fieldText(member, "name", f.source) == name {
				return p.bindingOrigin(binding{file: f, decl: member}, valueSpace, depth+1)
			}
		case "method_definition":
			if fieldText(member, "name", f.source) != "constructor" {
				continue
			}
			params := member.ChildByFieldName("parameters")
			if params == nil {
				continue
			}
			for j := uint(0); j < params.NamedChildCount(); j++ {
				param := params.NamedChild(j)
				if !isParameterProperty(param) || fieldText(param, "pattern", f.source) != name {
					continue
				}
				return p.bindingOrigin(binding{file: f, decl: param}, valueSpace, depth+1)
			}
		}
	}
	return origin{}, false
}

// parameterNamed returns the parameter of fn called name.
func parameterNamed(fn *tree_sitter.Node, name string, source []byte) *tree_sitter.Node {
	// x => x.id
	if single := fn.ChildByFieldName("parameter"); single != nil {
		if single.Utf8Text(source) == name {
			return single
		}
		return nil
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	for i := uint(0); i < params.NamedChildCount(); i++ {
		param := params.NamedChild(i)
		switch param.Kind() {
		case "required_parameter", "optional_parameter":
			pattern := param.ChildByFieldName("pattern")
			if pattern != nil && pattern.Kind() == "identifier" && pattern.Utf8Text(source) == name {
				return param
			}
		}
	}
	return nil
}

func isParameterProperty(param *tree_sitter.Node) bool {
	switch param.Kind() {
	case "required_parameter", "optional_parameter":
	default:
		return false
	}
	return firstNamedOfKind(param, "accessibility_modifier") != nil ||
		hasToken(param, "readonly")
}

func fieldText(n *tree_sitter.Node, field string, source []byte) string {
	c := n.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return c.Utf8Text(source)
}

func firstNamedOfKind(n *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}

// hasToken reports whether n has an anonymous child token of the given kind.
func hasToken(n *tree_sitter.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && !c.IsNamed() && c.Kind() == kind {
			return true
		}
	}
	return false
}
