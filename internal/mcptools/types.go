package mcptools

import (
	"github.com/pawfa/pact-gen-ts/internal/generator"
	"github.com/pawfa/pact-gen-ts/internal/graph"
	"github.com/pawfa/pact-gen-ts/internal/pact"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// GenerateContractsInput is the input for the generate_contracts MCP tool.
type GenerateContractsInput struct {
	Provider string `json:"provider,omitempty" jsonschema:"only report interactions for this provider; all contracts are still written"`
}

// GenerateContractsOutput is the result of the generate_contracts MCP tool.
type GenerateContractsOutput struct {
	Contracts    []string            `json:"contracts"`
	Interactions []ToolInteraction   `json:"interactions"`
	Skipped      []generator.Skipped `json:"skipped,omitempty"`
}

// ToolInteraction is one generated interaction with its origin.
type ToolInteraction struct {
	Function    string           `json:"function"`
	File        string           `json:"file"`
	Provider    string           `json:"provider"`
	Interaction pact.Interaction `json:"interaction"`
}

// AnalyzeFunctionInput is the input for the analyze_function MCP tool.
type AnalyzeFunctionInput struct {
	File string `json:"file" jsonschema:"source file path relative to the project root"`
	Name string `json:"name" jsonschema:"function name, or Class.method for methods"`
}

// AnalyzeFunctionOutput is the result of the analyze_function MCP tool.
type AnalyzeFunctionOutput struct {
	Provider    string           `json:"provider"`
	Method      string           `json:"method"`
	Path        string           `json:"path"`
	Interaction pact.Interaction `json:"interaction"`
}

// ListEndpointsInput is the input for the list_endpoints MCP tool.
type ListEndpointsInput struct {
	Provider string `json:"provider,omitempty" jsonschema:"filter by provider name (default: all providers)"`
}

// ListEndpointsOutput is the result of the list_endpoints MCP tool.
type ListEndpointsOutput struct {
	Endpoints []graph.EndpointNode `json:"endpoints"`
	Total     int                  `json:"total"`
}

// QuerySymbolsInput is the input for the query_symbols MCP tool.
type QuerySymbolsInput struct {
	Query         string `json:"query" jsonschema:"search query for symbol names (substring match)"`
	Kind          string `json:"kind,omitempty" jsonschema:"filter by symbol kind: function, method, class, interface, type, variable"`
	AnnotatedOnly bool   `json:"annotatedOnly,omitempty" jsonschema:"only return functions carrying a @pact tag"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QuerySymbolsOutput is the result of the query_symbols MCP tool.
type QuerySymbolsOutput struct {
	Symbols []graph.SymbolNode `json:"symbols"`
	Total   int                `json:"total"`
}

// GetDependenciesInput is the input for the get_dependencies MCP tool.
type GetDependenciesInput struct {
	NodeID    string `json:"nodeId" jsonschema:"file path, symbol ID (file:name) or endpoint ID (provider METHOD path)"`
	Direction string `json:"direction,omitempty" jsonschema:"downstream (what it reaches) or upstream (what reaches it). Default: downstream"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetDependenciesOutput is the result of the get_dependencies MCP tool.
type GetDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}
