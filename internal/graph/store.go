package graph

import (
	"context"
	"io"
)

// Store is the interface for the interaction graph backend: which files
// define which functions, and which provider endpoints those functions
// request. Implementations: MemStore (default, testing), KuzuStore
// (persistent index, cgo).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddFile(ctx context.Context, node FileNode) error
	AddSymbol(ctx context.Context, node SymbolNode) error
	AddEndpoint(ctx context.Context, node EndpointNode) error
	AddEdge(ctx context.Context, edge Edge) error

	// Read operations.
	GetFile(ctx context.Context, path string) (*FileNode, error)
	GetSymbol(ctx context.Context, filePath, name string) (*SymbolNode, error)
	QuerySymbols(ctx context.Context, query string, limit int) ([]SymbolNode, error)
	GetEndpoints(ctx context.Context, provider string) ([]EndpointNode, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// Graph traversal.
	GetDependencies(ctx context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // who reaches this node?
	DirectionDownstream Direction = "downstream" // what does this node reach?
)

// DependencyChain is one path found by GetDependencies, starting at the
// queried node.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// traverse performs a BFS on edges from nodeID in the given direction, up to
// maxDepth hops. It returns one DependencyChain per reachable node.
func traverse(edges []Edge, nodeID string, direction Direction, maxDepth int) []DependencyChain {
	if maxDepth <= 0 {
		return nil
	}

	// BFS state: each entry tracks the path from nodeID to the current node.
	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{nodeID: true}
	queue := []bfsEntry{{id: nodeID, path: []string{nodeID}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, nb := range neighbors(edges, entry.id, direction) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{
					Nodes: newPath,
					Depth: len(newPath) - 1,
				})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}
	return chains
}

// neighbors returns IDs reachable from id in one hop along the given direction.
func neighbors(edges []Edge, id string, direction Direction) []string {
	var result []string
	for _, e := range edges {
		switch direction {
		case DirectionDownstream:
			if e.SourceID == id {
				result = append(result, e.TargetID)
			}
		case DirectionUpstream:
			if e.TargetID == id {
				result = append(result, e.SourceID)
			}
		}
	}
	return result
}
