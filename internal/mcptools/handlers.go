package mcptools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pawfa/pact-gen-ts/internal/config"
	"github.com/pawfa/pact-gen-ts/internal/generator"
	"github.com/pawfa/pact-gen-ts/internal/graph"
	"github.com/pawfa/pact-gen-ts/internal/log"
	"github.com/pawfa/pact-gen-ts/internal/pact"
)

// PactService holds the project settings and the interaction graph of the
// last generation run, used by MCP tool handlers.
type PactService struct {
	root string
	cfg  *config.ProjectConfig

	mu    sync.RWMutex
	store graph.Store
}

// NewPactService creates a PactService for the project at root. The graph
// starts empty until generate_contracts runs.
func NewPactService(root string, cfg *config.ProjectConfig) *PactService {
	return &PactService{root: root, cfg: cfg, store: graph.NewMemStore()}
}

func (s *PactService) current() graph.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// GenerateContracts runs generation, writes the contract files and replaces
// the interaction graph with the one found by this run.
func (s *PactService) GenerateContracts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateContractsInput,
) (*mcp.CallToolResult, GenerateContractsOutput, error) {
	store := graph.NewMemStore()
	res, err := generator.New(s.root, s.cfg, store).Run(ctx)
	if err != nil {
		return nil, GenerateContractsOutput{}, fmt.Errorf("generate: %w", err)
	}

	s.mu.Lock()
	old := s.store
	s.store = store
	s.mu.Unlock()
	if err := old.Close(); err != nil {
		log.Warn("closing previous graph", "error", err)
	}

	out := GenerateContractsOutput{
		Contracts:    append([]string{}, res.Contracts...),
		Interactions: []ToolInteraction{},
		Skipped:      res.Skipped,
	}
	for _, a := range res.Analyses {
		if input.Provider != "" && a.Provider != input.Provider {
			continue
		}
		out.Interactions = append(out.Interactions, ToolInteraction{
			Function:    a.Function.Name,
			File:        a.Function.FilePath,
			Provider:    a.Provider,
			Interaction: a.Interaction,
		})
	}
	return nil, out, nil
}

// AnalyzeFunction analyzes one function without writing contracts.
func (s *PactService) AnalyzeFunction(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeFunctionInput,
) (*mcp.CallToolResult, AnalyzeFunctionOutput, error) {
	if input.File == "" || input.Name == "" {
		return nil, AnalyzeFunctionOutput{}, fmt.Errorf("file and name are required")
	}

	a, err := generator.New(s.root, s.cfg, nil).AnalyzeFunction(ctx, input.File, input.Name)
	if err != nil {
		return nil, AnalyzeFunctionOutput{}, fmt.Errorf("analyze %s: %w", input.Name, err)
	}

	return nil, AnalyzeFunctionOutput{
		Provider:    a.Provider,
		Method:      a.Descriptor.Method,
		Path:        a.Descriptor.Path,
		Interaction: a.Interaction,
	}, nil
}

// ListEndpoints returns the endpoints requested in the last run.
func (s *PactService) ListEndpoints(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListEndpointsInput,
) (*mcp.CallToolResult, ListEndpointsOutput, error) {
	endpoints, err := s.current().GetEndpoints(ctx, input.Provider)
	if err != nil {
		return nil, ListEndpointsOutput{}, fmt.Errorf("get endpoints: %w", err)
	}
	if endpoints == nil {
		endpoints = []graph.EndpointNode{}
	}
	return nil, ListEndpointsOutput{Endpoints: endpoints, Total: len(endpoints)}, nil
}

// QuerySymbols searches for symbols by name substring match.
func (s *PactService) QuerySymbols(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuerySymbolsInput,
) (*mcp.CallToolResult, QuerySymbolsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	// Filters apply after the store limit, so ask for everything when filtering.
	storeLimit := limit
	if input.Kind != "" || input.AnnotatedOnly {
		storeLimit = 0
	}
	symbols, err := s.current().QuerySymbols(ctx, input.Query, storeLimit)
	if err != nil {
		return nil, QuerySymbolsOutput{}, fmt.Errorf("query symbols: %w", err)
	}

	kind := graph.SymbolKind(strings.ToLower(input.Kind))
	filtered := []graph.SymbolNode{}
	for _, sym := range symbols {
		if input.Kind != "" && sym.Kind != kind {
			continue
		}
		if input.AnnotatedOnly && !pact.IsAnnotated(sym.Tags) {
			continue
		}
		filtered = append(filtered, sym)
		if len(filtered) == limit {
			break
		}
	}

	return nil, QuerySymbolsOutput{
		Symbols: filtered,
		Total:   len(filtered),
	}, nil
}

// GetDependencies traverses the interaction graph from a given node.
func (s *PactService) GetDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	if input.NodeID == "" {
		return nil, GetDependenciesOutput{}, fmt.Errorf("nodeId is required")
	}

	direction := graph.DirectionDownstream
	if strings.EqualFold(input.Direction, "upstream") {
		direction = graph.DirectionUpstream
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	chains, err := s.current().GetDependencies(ctx, input.NodeID, direction, maxDepth)
	if err != nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("get dependencies: %w", err)
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}

	return nil, GetDependenciesOutput{Chains: chains}, nil
}
