package graph

import (
	"path/filepath"
	"strings"
)

// --- Enums ---

// NodeKind classifies nodes in the interaction graph.
type NodeKind string

const (
	NodeKindFile     NodeKind = "file"
	NodeKindSymbol   NodeKind = "symbol"
	NodeKindEndpoint NodeKind = "endpoint"
)

// SymbolKind classifies symbols within the code graph.
type SymbolKind string

const (
	SymbolKindFunction  SymbolKind = "function"
	SymbolKindClass     SymbolKind = "class"
	SymbolKindType      SymbolKind = "type"
	SymbolKindEnum      SymbolKind = "enum"
	SymbolKindInterface SymbolKind = "interface"
	SymbolKindVariable  SymbolKind = "variable"
	SymbolKindMethod    SymbolKind = "method"
)

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	EdgeKindDefines  EdgeKind = "DEFINES"  // file -> symbol
	EdgeKindImports  EdgeKind = "IMPORTS"  // file -> file
	EdgeKindRequests EdgeKind = "REQUESTS" // symbol -> endpoint
)

// Language identifies a source language for parsing.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

// SupportedLanguages are the grammars registered by NewTreeSitterParser.
var SupportedLanguages = []Language{LangTypeScript, LangTSX}

// extToLanguage maps file extensions to the grammar that parses them.
// Plain JavaScript is a subset of the TypeScript grammar.
var extToLanguage = map[string]Language{
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".js":  LangTypeScript,
	".mjs": LangTypeScript,
	".cjs": LangTypeScript,
	".tsx": LangTSX,
	".jsx": LangTSX,
}

// LanguageForPath returns the grammar for a file path, if any. Declaration
// files (.d.ts) are never analyzed.
func LanguageForPath(path string) (Language, bool) {
	if strings.HasSuffix(path, ".d.ts") {
		return "", false
	}
	lang, ok := extToLanguage[filepath.Ext(path)]
	return lang, ok
}

// --- Models ---

// FileNode represents a source file in the graph.
type FileNode struct {
	Path     string   `json:"path"`
	Language Language `json:"language"`
	LOC      int      `json:"loc"`
}

// SymbolNode represents a named symbol (function, class, type, etc.).
// Tags holds JSDoc tags found on the symbol's leading comment, e.g.
// {"pact": "", "pact-description": "get user"}.
type SymbolNode struct {
	Name      string            `json:"name"`
	Kind      SymbolKind        `json:"kind"`
	Exported  bool              `json:"exported"`
	FilePath  string            `json:"filePath"`
	StartLine int               `json:"startLine"`
	EndLine   int               `json:"endLine"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// ID returns the symbol's graph identifier, "filePath:name".
func (s SymbolNode) ID() string {
	return symbolID(s.FilePath, s.Name)
}

// EndpointNode is a provider endpoint requested by at least one function.
type EndpointNode struct {
	Provider string `json:"provider"`
	Method   string `json:"method"`
	Path     string `json:"path"`
}

// ID returns the endpoint's graph identifier, "provider METHOD path".
func (e EndpointNode) ID() string {
	return e.Provider + " " + e.Method + " " + e.Path
}

// Edge represents a relationship between two nodes.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
}

// GraphStats summarizes an interaction graph.
type GraphStats struct {
	FileCount     int `json:"fileCount"`
	SymbolCount   int `json:"symbolCount"`
	EndpointCount int `json:"endpointCount"`
	EdgeCount     int `json:"edgeCount"`
}

// symbolID produces a deterministic identifier for a symbol: "filePath:name".
func symbolID(filePath, name string) string {
	return filePath + ":" + name
}
