package export

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pawfa/pact-gen-ts/internal/graph"
)

// GraphExport is the top-level JSON export of an interaction graph.
type GraphExport struct {
	ExportedAt string           `json:"exportedAt"`
	Stats      graph.GraphStats `json:"stats"`
	Providers  []ProviderExport `json:"providers"`
}

// ProviderExport lists the endpoints one provider is expected to serve.
type ProviderExport struct {
	Name      string           `json:"name"`
	Endpoints []EndpointExport `json:"endpoints"`
}

// EndpointExport is one endpoint and the functions requesting it.
type EndpointExport struct {
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	RequestedBy []string `json:"requestedBy,omitempty"`
}

// ExportGraph builds a GraphExport from the store.
func ExportGraph(ctx context.Context, store graph.Store) (*GraphExport, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	endpoints, err := store.GetEndpoints(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("get endpoints: %w", err)
	}
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("get edges: %w", err)
	}

	requestedBy := make(map[string][]string) // endpoint ID → symbol IDs
	for _, e := range edges {
		if e.Kind == graph.EdgeKindRequests {
			requestedBy[e.TargetID] = append(requestedBy[e.TargetID], e.SourceID)
		}
	}

	export := &GraphExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Stats:      *stats,
		Providers:  []ProviderExport{},
	}

	index := make(map[string]int)
	for _, ep := range endpoints {
		i, ok := index[ep.Provider]
		if !ok {
			i = len(export.Providers)
			index[ep.Provider] = i
			export.Providers = append(export.Providers, ProviderExport{Name: ep.Provider})
		}
		symbols := requestedBy[ep.ID()]
		sort.Strings(symbols)
		export.Providers[i].Endpoints = append(export.Providers[i].Endpoints, EndpointExport{
			Method:      ep.Method,
			Path:        ep.Path,
			RequestedBy: symbols,
		})
	}
	sort.Slice(export.Providers, func(i, j int) bool {
		return export.Providers[i].Name < export.Providers[j].Name
	})

	return export, nil
}
