package graph

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsExtractor extracts symbols, DEFINES edges and raw IMPORTS edges from
// TypeScript and TSX files. It also collects every function-like
// declaration together with its syntax node so the program can analyze
// annotated functions without walking the tree again.
type tsExtractor struct{}

// extraction is the output of one extractor pass. function nodes point into
// the parsed tree and are only valid while that tree is open.
type extraction struct {
	symbols   []SymbolNode
	edges     []Edge
	functions []function
}

// function is a function-like declaration and the node spanning it.
type function struct {
	symbol SymbolNode
	node   *tree_sitter.Node
}

func (e *tsExtractor) extract(root *tree_sitter.Node, source []byte, filePath string) *extraction {
	x := &extraction{}

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, x)

	for _, s := range x.symbols {
		x.edges = append(x.edges, Edge{SourceID: filePath, TargetID: s.ID(), Kind: EdgeKindDefines})
	}
	return x
}

func (e *tsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, filePath string, x *extraction) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		if sym := e.extractNamedSymbol(node, source, filePath, SymbolKindFunction); sym != nil {
			x.addFunction(*sym, node)
		}

	case "class_declaration":
		if sym := e.extractNamedSymbol(node, source, filePath, SymbolKindClass); sym != nil {
			x.symbols = append(x.symbols, *sym)
		}

	case "interface_declaration":
		if sym := e.extractNamedSymbol(node, source, filePath, SymbolKindInterface); sym != nil {
			x.symbols = append(x.symbols, *sym)
		}

	case "type_alias_declaration":
		if sym := e.extractNamedSymbol(node, source, filePath, SymbolKindType); sym != nil {
			x.symbols = append(x.symbols, *sym)
		}

	case "enum_declaration":
		if sym := e.extractNamedSymbol(node, source, filePath, SymbolKindEnum); sym != nil {
			x.symbols = append(x.symbols, *sym)
		}

	case "method_definition":
		if sym := e.extractMethod(node, source, filePath); sym != nil {
			x.addFunction(*sym, node)
		}

	case "lexical_declaration", "variable_declaration":
		for _, fn := range e.extractFunctionVariables(node, source, filePath) {
			x.addFunction(fn.symbol, fn.node)
		}

	case "import_statement":
		if edge := e.extractImport(node, source, filePath); edge != nil {
			x.edges = append(x.edges, *edge)
		}

	case "call_expression":
		if edge := e.extractRequire(node, source, filePath); edge != nil {
			x.edges = append(x.edges, *edge)
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, filePath, x)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, filePath, x)
		}
		cursor.GotoParent()
	}
}

func (x *extraction) addFunction(sym SymbolNode, node *tree_sitter.Node) {
	x.symbols = append(x.symbols, sym)
	x.functions = append(x.functions, function{symbol: sym, node: node})
}

// extractNamedSymbol extracts a symbol from a node that has a "name" field child.
func (e *tsExtractor) extractNamedSymbol(
	node *tree_sitter.Node,
	source []byte,
	filePath string,
	symbolKind SymbolKind,
) *SymbolNode {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &SymbolNode{
		Name:      nameNode.Utf8Text(source),
		Kind:      symbolKind,
		Exported:  isTSExported(node),
		FilePath:  filePath,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Tags:      jsdocTags(node, source),
	}
}

// extractMethod names a class method "Class.method". Methods of anonymous
// classes are skipped.
func (e *tsExtractor) extractMethod(node *tree_sitter.Node, source []byte, filePath string) *SymbolNode {
	nameNode := node.ChildByFieldName("name")
	body := node.Parent()
	if nameNode == nil || body == nil || body.Kind() != "class_body" {
		return nil
	}
	class := body.Parent()
	if class == nil {
		return nil
	}
	className := class.ChildByFieldName("name")
	if className == nil {
		return nil
	}
	return &SymbolNode{
		Name:      className.Utf8Text(source) + "." + nameNode.Utf8Text(source),
		Kind:      SymbolKindMethod,
		Exported:  isTSExported(class),
		FilePath:  filePath,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Tags:      jsdocTags(node, source),
	}
}

// extractFunctionVariables looks for arrow functions and function
// expressions bound by a declaration, e.g. "const foo = () => { ... }".
// The declarator is the function's node.
func (e *tsExtractor) extractFunctionVariables(node *tree_sitter.Node, source []byte, filePath string) []function {
	var result []function
	exported := isTSExported(node)
	tags := jsdocTags(node, source)

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}

		valueNode := child.ChildByFieldName("value")
		if valueNode == nil {
			continue
		}
		switch valueNode.Kind() {
		case "arrow_function", "function_expression", "function":
		default:
			continue
		}

		nameNode := child.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}

		result = append(result, function{
			symbol: SymbolNode{
				Name:      nameNode.Utf8Text(source),
				Kind:      SymbolKindFunction,
				Exported:  exported,
				FilePath:  filePath,
				StartLine: int(child.StartPosition().Row) + 1,
				EndLine:   int(child.EndPosition().Row) + 1,
				Tags:      tags,
			},
			node: child,
		})
	}
	return result
}

func (e *tsExtractor) extractImport(node *tree_sitter.Node, source []byte, filePath string) *Edge {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		// Fall back: look for a string child.
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "string" {
				sourceNode = child
				break
			}
		}
	}
	if sourceNode == nil {
		return nil
	}

	importPath := unquote(sourceNode.Utf8Text(source))
	if importPath == "" {
		return nil
	}

	return &Edge{
		SourceID: filePath,
		TargetID: importPath,
		Kind:     EdgeKindImports,
	}
}

// extractRequire turns `require('x')` into a raw IMPORTS edge.
func (e *tsExtractor) extractRequire(node *tree_sitter.Node, source []byte, filePath string) *Edge {
	specifier, ok := requireSpecifier(node, source)
	if !ok {
		return nil
	}
	return &Edge{
		SourceID: filePath,
		TargetID: specifier,
		Kind:     EdgeKindImports,
	}
}

// requireSpecifier returns the module of a `require('x')` call.
func requireSpecifier(call *tree_sitter.Node, source []byte) (string, bool) {
	if call == nil || call.Kind() != "call_expression" {
		return "", false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" || fn.Utf8Text(source) != "require" {
		return "", false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return "", false
	}
	arg := args.NamedChild(0)
	if arg.Kind() != "string" {
		return "", false
	}
	spec := unquote(arg.Utf8Text(source))
	return spec, spec != ""
}

// isTSExported checks if a node is exported by looking at whether its parent
// is an export_statement.
func isTSExported(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	return parent.Kind() == "export_statement"
}

var jsdocTag = regexp.MustCompile(`@([\w-]+)[ \t]*([^@\r\n]*)`)

// jsdocTags parses the JSDoc block right before node (or before its
// export statement) into tag -> value. Returns nil when there is none.
func jsdocTags(node *tree_sitter.Node, source []byte) map[string]string {
	comment := precedingJSDoc(node, source)
	if comment == "" {
		return nil
	}
	matches := jsdocTag.FindAllStringSubmatch(comment, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make(map[string]string, len(matches))
	for _, m := range matches {
		value := strings.TrimSpace(m[2])
		value = strings.TrimSpace(strings.TrimSuffix(value, "*/"))
		tags[m[1]] = value
	}
	return tags
}

func precedingJSDoc(node *tree_sitter.Node, source []byte) string {
	if prev := node.PrevSibling(); prev != nil && prev.Kind() == "comment" {
		if c := prev.Utf8Text(source); strings.HasPrefix(c, "/**") {
			return c
		}
	}
	parent := node.Parent()
	if parent != nil && parent.Kind() == "export_statement" {
		return precedingJSDoc(parent, source)
	}
	return ""
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
