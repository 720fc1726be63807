package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFixture is a small interaction graph: two source files, three
// functions and the endpoints they request.
//
//	src/api.ts --IMPORTS--> src/urls.ts
//	src/api.ts --DEFINES--> getUser, createUser
//	src/client.ts --DEFINES--> me
//	getUser --REQUESTS--> users GET /users/1
//	createUser --REQUESTS--> users POST /api/v1/users
//	me --REQUESTS--> auth GET /me
var (
	fixtureFiles = []FileNode{
		{Path: "src/api.ts", Language: LangTypeScript, LOC: 42},
		{Path: "src/urls.ts", Language: LangTypeScript, LOC: 1},
		{Path: "src/client.tsx", Language: LangTSX, LOC: 17},
	}
	fixtureSymbols = []SymbolNode{
		{Name: "getUser", Kind: SymbolKindFunction, Exported: true, FilePath: "src/api.ts", StartLine: 6, EndLine: 6,
			Tags: map[string]string{"pact": "", "pact-description": `"get user"`}},
		{Name: "createUser", Kind: SymbolKindFunction, Exported: true, FilePath: "src/api.ts", StartLine: 10, EndLine: 13},
		{Name: "UserClient.me", Kind: SymbolKindMethod, Exported: true, FilePath: "src/client.tsx", StartLine: 3, EndLine: 5},
	}
	fixtureEndpoints = []EndpointNode{
		{Provider: "users", Method: "GET", Path: "/users/1"},
		{Provider: "users", Method: "POST", Path: "/api/v1/users"},
		{Provider: "auth", Method: "GET", Path: "/me"},
	}
	fixtureEdges = []Edge{
		{SourceID: "src/api.ts", TargetID: "src/urls.ts", Kind: EdgeKindImports},
		{SourceID: "src/api.ts", TargetID: "src/api.ts:getUser", Kind: EdgeKindDefines},
		{SourceID: "src/api.ts", TargetID: "src/api.ts:createUser", Kind: EdgeKindDefines},
		{SourceID: "src/client.tsx", TargetID: "src/client.tsx:UserClient.me", Kind: EdgeKindDefines},
		{SourceID: "src/api.ts:getUser", TargetID: "users GET /users/1", Kind: EdgeKindRequests},
		{SourceID: "src/api.ts:createUser", TargetID: "users POST /api/v1/users", Kind: EdgeKindRequests},
		{SourceID: "src/client.tsx:UserClient.me", TargetID: "auth GET /me", Kind: EdgeKindRequests},
	}
)

func loadStoreFixture(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, f := range fixtureFiles {
		require.NoError(t, s.AddFile(ctx, f))
	}
	for _, sym := range fixtureSymbols {
		require.NoError(t, s.AddSymbol(ctx, sym))
	}
	for _, e := range fixtureEndpoints {
		require.NoError(t, s.AddEndpoint(ctx, e))
	}
	for _, e := range fixtureEdges {
		require.NoError(t, s.AddEdge(ctx, e))
	}
}

// testStore runs the behavior every Store implementation shares.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("FileRoundTrip", func(t *testing.T) {
		s := newStore(t)
		loadStoreFixture(t, s)

		got, err := s.GetFile(ctx, "src/client.tsx")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, fixtureFiles[2], *got)

		missing, err := s.GetFile(ctx, "src/nope.ts")
		require.NoError(t, err)
		assert.Nil(t, missing, "GetFile should return nil for a missing file")
	})

	t.Run("SymbolRoundTrip", func(t *testing.T) {
		s := newStore(t)
		loadStoreFixture(t, s)

		got, err := s.GetSymbol(ctx, "src/api.ts", "getUser")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, fixtureSymbols[0], *got, "tags survive the round trip")

		method, err := s.GetSymbol(ctx, "src/client.tsx", "UserClient.me")
		require.NoError(t, err)
		require.NotNil(t, method)
		assert.Equal(t, SymbolKindMethod, method.Kind)
		assert.Empty(t, method.Tags)

		missing, err := s.GetSymbol(ctx, "src/api.ts", "deleteUser")
		require.NoError(t, err)
		assert.Nil(t, missing, "GetSymbol should return nil for a missing symbol")
	})

	t.Run("AddSymbolUpserts", func(t *testing.T) {
		s := newStore(t)
		loadStoreFixture(t, s)

		updated := fixtureSymbols[1]
		updated.EndLine = 20
		require.NoError(t, s.AddSymbol(ctx, updated))

		got, err := s.GetSymbol(ctx, updated.FilePath, updated.Name)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 20, got.EndLine)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(fixtureSymbols), stats.SymbolCount)
	})

	t.Run("QuerySymbols", func(t *testing.T) {
		s := newStore(t)
		loadStoreFixture(t, s)

		got, err := s.QuerySymbols(ctx, "USER", 0)
		require.NoError(t, err)
		names := make([]string, len(got))
		for i, sym := range got {
			names[i] = sym.Name
		}
		assert.Equal(t, []string{"createUser", "getUser", "UserClient.me"}, names, "case-insensitive, ordered by ID")

		limited, err := s.QuerySymbols(ctx, "user", 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "createUser", limited[0].Name)

		none, err := s.QuerySymbols(ctx, "zzz", 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("GetEndpoints", func(t *testing.T) {
		s := newStore(t)
		loadStoreFixture(t, s)

		users, err := s.GetEndpoints(ctx, "users")
		require.NoError(t, err)
		assert.Equal(t, []EndpointNode{fixtureEndpoints[0], fixtureEndpoints[1]}, users)

		all, err := s.GetEndpoints(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.Equal(t, "auth", all[0].Provider, "ordered by ID")

		none, err := s.GetEndpoints(ctx, "billing")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("EdgesDeduplicated", func(t *testing.T) {
		s := newStore(t)
		loadStoreFixture(t, s)
		require.NoError(t, s.AddEdge(ctx, fixtureEdges[0]))

		edges, err := s.GetAllEdges(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, fixtureEdges, edges)
	})

	t.Run("Dependencies", func(t *testing.T) {
		s := newStore(t)
		loadStoreFixture(t, s)

		down, err := s.GetDependencies(ctx, "src/api.ts", DirectionDownstream, 2)
		require.NoError(t, err)
		reached := make(map[string]int)
		for _, c := range down {
			reached[c.Nodes[len(c.Nodes)-1]] = c.Depth
		}
		assert.Equal(t, map[string]int{
			"src/urls.ts":              1,
			"src/api.ts:getUser":       1,
			"src/api.ts:createUser":    1,
			"users GET /users/1":       2,
			"users POST /api/v1/users": 2,
		}, reached)

		up, err := s.GetDependencies(ctx, "auth GET /me", DirectionUpstream, 5)
		require.NoError(t, err)
		require.Len(t, up, 2)
		assert.Equal(t, []string{"auth GET /me", "src/client.tsx:UserClient.me", "src/client.tsx"}, up[1].Nodes)
	})

	t.Run("Stats", func(t *testing.T) {
		s := newStore(t)

		empty, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, GraphStats{}, *empty)

		loadStoreFixture(t, s)
		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, GraphStats{
			FileCount:     3,
			SymbolCount:   3,
			EndpointCount: 3,
			EdgeCount:     len(fixtureEdges),
		}, *stats)
	})

	t.Run("Close", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Close())
	})
}

func TestMemStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s := NewMemStore()
		require.NoError(t, s.InitSchema(context.Background()))
		return s
	})
}

// ---------------------------------------------------------------------------
// traverse
// ---------------------------------------------------------------------------

func TestTraverse_Diamond(t *testing.T) {
	// a -> b, a -> c, b -> d, c -> d
	edges := []Edge{
		{SourceID: "a", TargetID: "b", Kind: EdgeKindImports},
		{SourceID: "a", TargetID: "c", Kind: EdgeKindImports},
		{SourceID: "b", TargetID: "d", Kind: EdgeKindImports},
		{SourceID: "c", TargetID: "d", Kind: EdgeKindImports},
	}

	chains := traverse(edges, "a", DirectionDownstream, 10)
	require.Len(t, chains, 3, "d is reported once")
	assert.Equal(t, []string{"a", "b", "d"}, chains[2].Nodes, "first path wins")
	assert.Equal(t, 2, chains[2].Depth)
}

func TestTraverse_Bounds(t *testing.T) {
	edges := []Edge{
		{SourceID: "a", TargetID: "b", Kind: EdgeKindImports},
		{SourceID: "b", TargetID: "a", Kind: EdgeKindImports},
		{SourceID: "b", TargetID: "c", Kind: EdgeKindImports},
	}

	assert.Nil(t, traverse(edges, "a", DirectionDownstream, 0))
	assert.Len(t, traverse(edges, "a", DirectionDownstream, 1), 1)
	assert.Len(t, traverse(edges, "a", DirectionDownstream, 10), 2, "cycles terminate")
	assert.Empty(t, traverse(edges, "unknown", DirectionUpstream, 10))
}
