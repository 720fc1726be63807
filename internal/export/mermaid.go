package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pawfa/pact-gen-ts/internal/graph"
)

// GenerateMermaid produces a Mermaid graph LR diagram from a graph store.
// Endpoints are grouped by provider; REQUESTS edges become arrows from the
// requesting function.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	endpoints, err := store.GetEndpoints(ctx, "")
	if err != nil {
		return "", fmt.Errorf("get endpoints: %w", err)
	}

	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	var providers []string
	byProvider := make(map[string][]graph.EndpointNode)
	for _, e := range endpoints {
		if _, ok := byProvider[e.Provider]; !ok {
			providers = append(providers, e.Provider)
		}
		byProvider[e.Provider] = append(byProvider[e.Provider], e)
	}
	sort.Strings(providers)

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	// Emit provider subgraphs.
	for _, p := range providers {
		fmt.Fprintf(&sb, "  subgraph %s[\"%s\"]\n", getID("provider:"+p), label(p))
		for _, e := range byProvider[p] {
			fmt.Fprintf(&sb, "    %s[\"%s %s\"]\n", getID(e.ID()), e.Method, label(e.Path))
		}
		sb.WriteString("  end\n")
	}

	var requests []graph.Edge
	for _, e := range edges {
		if e.Kind == graph.EdgeKindRequests {
			requests = append(requests, e)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		if requests[i].SourceID != requests[j].SourceID {
			return requests[i].SourceID < requests[j].SourceID
		}
		return requests[i].TargetID < requests[j].TargetID
	})

	// Emit functions, then REQUESTS edges.
	declared := make(map[string]bool)
	for _, e := range requests {
		if declared[e.SourceID] {
			continue
		}
		declared[e.SourceID] = true
		file, name := splitSymbolID(e.SourceID)
		fmt.Fprintf(&sb, "  %s(\"%s<br/>%s\")\n", getID(e.SourceID), label(name), label(file))
	}
	for _, e := range requests {
		fmt.Fprintf(&sb, "  %s --> %s\n", getID(e.SourceID), getID(e.TargetID))
	}

	return sb.String(), nil
}

// splitSymbolID splits "filePath:name" into its parts.
func splitSymbolID(id string) (file, name string) {
	i := strings.LastIndex(id, ":")
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}

func label(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
