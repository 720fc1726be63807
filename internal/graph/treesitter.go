package graph

import (
	"bytes"
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// TreeSitterParser implements the Parser interface using the tree-sitter
// TypeScript and TSX grammars. A new tree-sitter parser is created per call,
// so concurrent Parse and parseTree calls are safe.
type TreeSitterParser struct {
	languages map[Language]*tree_sitter.Language
	extractor *tsExtractor
}

// Compile-time check that TreeSitterParser satisfies Parser.
var _ Parser = (*TreeSitterParser)(nil)

// NewTreeSitterParser creates a TreeSitterParser with the TypeScript and TSX
// grammars registered.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{
		languages: map[Language]*tree_sitter.Language{
			LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			LangTSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
		extractor: &tsExtractor{},
	}
}

// Parse extracts symbols and relationships from a single source file.
func (p *TreeSitterParser) Parse(_ context.Context, path string, source []byte, lang Language) (*ParseResult, error) {
	tree, err := p.parseTree(path, source, lang)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	x := p.extractor.extract(tree.RootNode(), source, path)
	return &ParseResult{
		File: FileNode{
			Path:     path,
			Language: lang,
			LOC:      countLOC(source),
		},
		Symbols: x.symbols,
		Edges:   x.edges,
	}, nil
}

// parseTree parses source and returns the syntax tree. The caller owns the
// tree and must Close it.
func (p *TreeSitterParser) parseTree(path string, source []byte, lang Language) (*tree_sitter.Tree, error) {
	tsLang, ok := p.languages[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	return tree, nil
}

// SupportedLanguages returns the languages this parser can handle.
func (p *TreeSitterParser) SupportedLanguages() []Language {
	langs := make([]Language, 0, len(p.languages))
	for l := range p.languages {
		langs = append(langs, l)
	}
	return langs
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error {
	return nil
}

// countLOC counts the number of lines in source by counting newline bytes
// and adding one for the final line if the source is non-empty.
func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	return bytes.Count(source, []byte{'\n'}) + 1
}
