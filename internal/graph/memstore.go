package graph

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu        sync.RWMutex
	files     map[string]FileNode
	symbols   map[string]SymbolNode   // key: "filePath:name"
	endpoints map[string]EndpointNode // key: "provider METHOD path"
	edges     []Edge
	edgeSet   map[Edge]bool
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		files:     make(map[string]FileNode),
		symbols:   make(map[string]SymbolNode),
		endpoints: make(map[string]EndpointNode),
		edgeSet:   make(map[Edge]bool),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddFile stores a file node keyed by its path.
func (m *MemStore) AddFile(_ context.Context, node FileNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[node.Path] = node
	return nil
}

// AddSymbol stores a symbol node keyed by "filePath:name".
func (m *MemStore) AddSymbol(_ context.Context, node SymbolNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols[node.ID()] = node
	return nil
}

// AddEndpoint stores an endpoint node keyed by its ID.
func (m *MemStore) AddEndpoint(_ context.Context, node EndpointNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[node.ID()] = node
	return nil
}

// AddEdge records an edge. Duplicate edges are ignored.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edgeSet[edge] {
		return nil
	}
	m.edgeSet[edge] = true
	m.edges = append(m.edges, edge)
	return nil
}

// GetFile returns the file node for the given path, or nil if not found.
func (m *MemStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// GetSymbol returns the symbol for the given file path and name, or nil if not found.
func (m *MemStore) GetSymbol(_ context.Context, filePath, name string) (*SymbolNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.symbols[symbolID(filePath, name)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// QuerySymbols returns symbols whose name contains query (case-insensitive),
// sorted by ID, up to limit results. A limit <= 0 returns all matches.
func (m *MemStore) QuerySymbols(_ context.Context, query string, limit int) ([]SymbolNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	var results []SymbolNode
	for _, sym := range m.symbols {
		if strings.Contains(strings.ToLower(sym.Name), lowerQuery) {
			results = append(results, sym)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID() < results[j].ID() })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetEndpoints returns the endpoints of provider sorted by ID. An empty
// provider returns all endpoints.
func (m *MemStore) GetEndpoints(_ context.Context, provider string) ([]EndpointNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []EndpointNode
	for _, e := range m.endpoints {
		if provider == "" || e.Provider == provider {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// GetDependencies performs a BFS on edges from nodeID in the given direction,
// up to maxDepth hops. It returns one DependencyChain per reachable node.
func (m *MemStore) GetDependencies(_ context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return traverse(m.edges, nodeID, direction, maxDepth), nil
}

// GetAllEdges returns a copy of all edges in the store.
func (m *MemStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// Stats returns counts of all node and edge types in the graph.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &GraphStats{
		FileCount:     len(m.files),
		SymbolCount:   len(m.symbols),
		EndpointCount: len(m.endpoints),
		EdgeCount:     len(m.edges),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
