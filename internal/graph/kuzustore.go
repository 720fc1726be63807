//go:build cgo

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path, e.g. ".pactgen/graph". KuzuDB creates the leaf
// directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(dbPath string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		language STRING,
		loc INT64,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		id STRING,
		name STRING,
		kind STRING,
		exported BOOLEAN,
		file_path STRING,
		start_line INT64,
		end_line INT64,
		tags STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Endpoint(
		id STRING,
		provider STRING,
		method STRING,
		path STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEFINES(FROM File TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM File TO File)`,
	`CREATE REL TABLE IF NOT EXISTS REQUESTS(FROM Symbol TO Endpoint)`,
}

// relTables lists every relationship table with its endpoints' key columns.
var relTables = []struct {
	kind     EdgeKind
	from, to string
	fromKey  string
	toKey    string
}{
	{EdgeKindDefines, "File", "Symbol", "path", "id"},
	{EdgeKindImports, "File", "File", "path", "path"},
	{EdgeKindRequests, "Symbol", "Endpoint", "id", "id"},
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddFile upserts a File node.
func (s *KuzuStore) AddFile(_ context.Context, node FileNode) error {
	return s.exec(
		"MERGE (f:File {path: $path}) SET f.language = $lang, f.loc = $loc",
		map[string]any{
			"path": node.Path,
			"lang": string(node.Language),
			"loc":  int64(node.LOC),
		},
	)
}

// AddSymbol upserts a Symbol node. Tags are stored as a JSON object.
func (s *KuzuStore) AddSymbol(_ context.Context, node SymbolNode) error {
	tags, err := json.Marshal(node.Tags)
	if err != nil {
		return fmt.Errorf("kuzu: encode tags: %w", err)
	}
	return s.exec(
		`MERGE (s:Symbol {id: $id})
		 SET s.name = $name,
			s.kind = $kind,
			s.exported = $exported,
			s.file_path = $fp,
			s.start_line = $sl,
			s.end_line = $el,
			s.tags = $tags`,
		map[string]any{
			"id":       node.ID(),
			"name":     node.Name,
			"kind":     string(node.Kind),
			"exported": node.Exported,
			"fp":       node.FilePath,
			"sl":       int64(node.StartLine),
			"el":       int64(node.EndLine),
			"tags":     string(tags),
		},
	)
}

// AddEndpoint upserts an Endpoint node.
func (s *KuzuStore) AddEndpoint(_ context.Context, node EndpointNode) error {
	return s.exec(
		"MERGE (e:Endpoint {id: $id}) SET e.provider = $provider, e.method = $method, e.path = $path",
		map[string]any{
			"id":       node.ID(),
			"provider": node.Provider,
			"method":   node.Method,
			"path":     node.Path,
		},
	)
}

// AddEdge inserts a relationship between two existing nodes. Adding the same
// edge twice is a no-op.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	cypher, err := edgeCypher(edge.Kind)
	if err != nil {
		return err
	}
	return s.exec(cypher, map[string]any{
		"src": edge.SourceID,
		"dst": edge.TargetID,
	})
}

// edgeCypher returns the MATCH-MERGE Cypher for the given edge kind.
func edgeCypher(kind EdgeKind) (string, error) {
	for _, rt := range relTables {
		if rt.kind == kind {
			return fmt.Sprintf(`MATCH (a:%s {%s: $src}), (b:%s {%s: $dst})
				MERGE (a)-[:%s]->(b)`, rt.from, rt.fromKey, rt.to, rt.toKey, kind), nil
		}
	}
	return "", fmt.Errorf("kuzu: unsupported edge kind: %s", kind)
}

// ---------- Read operations ----------

// GetFile retrieves a single File node by path, or returns nil if not found.
func (s *KuzuStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	rows, err := s.query(
		"MATCH (f:File {path: $path}) RETURN f.path, f.language, f.loc",
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &FileNode{
		Path:     toString(r[0]),
		Language: Language(toString(r[1])),
		LOC:      toInt(r[2]),
	}, nil
}

const symbolColumns = "s.name, s.kind, s.exported, s.file_path, s.start_line, s.end_line, s.tags"

// GetSymbol retrieves a single Symbol node by file path and name, or nil if not found.
func (s *KuzuStore) GetSymbol(_ context.Context, filePath, name string) (*SymbolNode, error) {
	rows, err := s.query(
		"MATCH (s:Symbol {id: $id}) RETURN "+symbolColumns,
		map[string]any{"id": symbolID(filePath, name)},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToSymbol(rows[0]), nil
}

// QuerySymbols returns symbols whose name contains the query string, ordered
// by ID. A limit <= 0 returns all matches.
func (s *KuzuStore) QuerySymbols(_ context.Context, queryStr string, limit int) ([]SymbolNode, error) {
	cypher := "MATCH (s:Symbol) WHERE lower(s.name) CONTAINS lower($q) RETURN " + symbolColumns + " ORDER BY s.id"
	params := map[string]any{"q": queryStr}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]SymbolNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToSymbol(r))
	}
	return out, nil
}

// GetEndpoints returns the endpoints of provider ordered by ID. An empty
// provider returns all endpoints.
func (s *KuzuStore) GetEndpoints(_ context.Context, provider string) ([]EndpointNode, error) {
	rows, err := s.query(
		`MATCH (e:Endpoint) WHERE $provider = '' OR e.provider = $provider
		 RETURN e.provider, e.method, e.path ORDER BY e.id`,
		map[string]any{"provider": provider},
	)
	if err != nil {
		return nil, err
	}
	out := make([]EndpointNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, EndpointNode{
			Provider: toString(r[0]),
			Method:   toString(r[1]),
			Path:     toString(r[2]),
		})
	}
	return out, nil
}

// ---------- Graph traversal ----------

// GetDependencies performs a BFS over all relationship tables starting from
// nodeID (a file path, symbol ID or endpoint ID).
func (s *KuzuStore) GetDependencies(ctx context.Context, nodeID string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	edges, err := s.GetAllEdges(ctx)
	if err != nil {
		return nil, err
	}
	return traverse(edges, nodeID, dir, maxDepth), nil
}

// ---------- Edge enumeration ----------

// GetAllEdges returns all edges across all relationship tables.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	var edges []Edge
	for _, rt := range relTables {
		cypher := fmt.Sprintf("MATCH (a:%s)-[:%s]->(b:%s) RETURN a.%s, b.%s",
			rt.from, rt.kind, rt.to, rt.fromKey, rt.toKey)
		rows, err := s.query(cypher, nil)
		if err != nil {
			// Table may not exist yet; skip.
			continue
		}
		for _, r := range rows {
			edges = append(edges, Edge{
				SourceID: toString(r[0]),
				TargetID: toString(r[1]),
				Kind:     rt.kind,
			})
		}
	}
	return edges, nil
}

// ---------- Stats ----------

// Stats returns counts of all node and edge tables.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	files, err := s.countTable("File")
	if err != nil {
		return nil, err
	}
	symbols, err := s.countTable("Symbol")
	if err != nil {
		return nil, err
	}
	endpoints, err := s.countTable("Endpoint")
	if err != nil {
		return nil, err
	}
	edges, err := s.countEdges()
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		FileCount:     files,
		SymbolCount:   symbols,
		EndpointCount: endpoints,
		EdgeCount:     edges,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	rows, err := s.query(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// countEdges returns the total number of edges across all relationship tables.
func (s *KuzuStore) countEdges() (int, error) {
	total := 0
	for _, rt := range relTables {
		rows, err := s.query(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", rt.kind), nil)
		if err != nil {
			// Table may not exist yet; treat as zero.
			continue
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			total += toInt(rows[0][0])
		}
	}
	return total, nil
}

// rowToSymbol converts a symbolColumns result row into a SymbolNode.
func rowToSymbol(r []any) *SymbolNode {
	sym := &SymbolNode{
		Name:      toString(r[0]),
		Kind:      SymbolKind(toString(r[1])),
		Exported:  toBool(r[2]),
		FilePath:  toString(r[3]),
		StartLine: toInt(r[4]),
		EndLine:   toInt(r[5]),
	}
	if raw := toString(r[6]); raw != "" && raw != "null" {
		_ = json.Unmarshal([]byte(raw), &sym.Tags)
	}
	return sym
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
