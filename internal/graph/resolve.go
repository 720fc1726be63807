package graph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDependencyDir is where installed packages live.
const DefaultDependencyDir = "node_modules"

// Resolver rewrites raw import specifiers (extracted by tree-sitter) into
// repo-relative file paths that match FileNode.Path values. It is built once
// per program load with the set of known file paths and any workspace
// metadata discovered in the repository root. Specifiers naming installed
// packages resolve to the package's declaration file under the dependency
// directory.
type Resolver struct {
	repoRoot      string
	dependencyDir string
	fileSet       map[string]bool
	tsWorkspaces  map[string]*tsWorkspace
}

// tsWorkspace holds metadata about a single npm/bun workspace package.
type tsWorkspace struct {
	dir            string            // repo-relative directory (e.g. "packages/db")
	mainFile       string            // default export target, repo-relative
	subpathExports map[string]string // "./queries" → "packages/db/src/queries.ts"
}

// NewResolver builds a Resolver from the repository root and the set of
// known repo-relative file paths. An empty dependencyDir means
// DefaultDependencyDir.
func NewResolver(repoRoot string, knownFiles []string, dependencyDir string) *Resolver {
	if dependencyDir == "" {
		dependencyDir = DefaultDependencyDir
	}
	r := &Resolver{
		repoRoot:      repoRoot,
		dependencyDir: dependencyDir,
		fileSet:       make(map[string]bool, len(knownFiles)),
		tsWorkspaces:  make(map[string]*tsWorkspace),
	}
	for _, f := range knownFiles {
		r.fileSet[f] = true
	}

	r.scanTSWorkspaces()
	return r
}

// ResolveEdge attempts to resolve a single IMPORTS edge's TargetID from a raw
// import specifier to a repo-relative file path. Imports of external packages
// do not resolve. Non-IMPORTS edges pass through unchanged.
func (r *Resolver) ResolveEdge(edge Edge) (Edge, bool) {
	if edge.Kind != EdgeKindImports {
		return edge, true
	}
	resolved, ok := r.Resolve(edge.TargetID, edge.SourceID)
	if !ok {
		return edge, false
	}
	edge.TargetID = resolved
	return edge, true
}

// ResolveAll resolves a slice of edges, dropping unresolvable IMPORTS edges.
// Non-IMPORTS edges pass through unchanged.
func (r *Resolver) ResolveAll(edges []Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		resolved, ok := r.ResolveEdge(e)
		if ok {
			out = append(out, resolved)
		}
	}
	return out
}

var tsExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mts", ".cts",
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx",
}

// Resolve maps an import specifier used in sourceFile to a known project file.
func (r *Resolver) Resolve(importPath, sourceFile string) (string, bool) {
	// Relative imports.
	if isRelative(importPath) {
		sourceDir := filepath.Dir(sourceFile)
		base := filepath.Clean(filepath.Join(sourceDir, importPath))
		return r.probeFile(base, tsExtensions)
	}

	// Workspace package imports.
	return r.resolveTSWorkspace(importPath)
}

// ResolvePackage maps a bare specifier to the declaration file of an
// installed package, e.g. "axios" → "node_modules/axios/index.d.ts". The
// entry is read from package.json (types, typings, then main); when the
// package is not installed the conventional index.d.ts path is returned.
func (r *Resolver) ResolvePackage(importPath string) (string, bool) {
	if importPath == "" || isRelative(importPath) || strings.HasPrefix(importPath, "/") {
		return "", false
	}
	pkgName, subpath := splitPackage(importPath)
	pkgDir := filepath.Join(r.dependencyDir, pkgName)

	if subpath != "" {
		return filepath.Join(pkgDir, strings.TrimPrefix(subpath, "./")+".d.ts"), true
	}

	data, err := os.ReadFile(filepath.Join(r.repoRoot, pkgDir, "package.json"))
	if err == nil {
		var pkg packageJSON
		if json.Unmarshal(data, &pkg) == nil {
			for _, entry := range []string{pkg.Types, pkg.Typings, pkg.Main} {
				if entry != "" {
					return filepath.Clean(filepath.Join(pkgDir, entry)), true
				}
			}
		}
	}
	return filepath.Join(pkgDir, "index.d.ts"), true
}

func isRelative(importPath string) bool {
	return importPath == "." || importPath == ".." ||
		strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../")
}

// splitPackage separates a bare specifier into the package name and a
// "./"-prefixed subpath. For scoped packages: "@scope/pkg/sub/path" →
// ("@scope/pkg", "./sub/path"); for unscoped: "pkg/sub" → ("pkg", "./sub").
func splitPackage(importPath string) (pkgName, subpath string) {
	parts := strings.SplitN(importPath, "/", 3)
	n := 1
	if strings.HasPrefix(importPath, "@") {
		n = 2
	}
	if len(parts) <= n {
		return importPath, ""
	}
	pkgName = strings.Join(parts[:n], "/")
	return pkgName, "./" + strings.TrimPrefix(importPath, pkgName+"/")
}

func (r *Resolver) resolveTSWorkspace(importPath string) (string, bool) {
	// Try exact match first (e.g. "@test/logger" → mainFile).
	if ws, ok := r.tsWorkspaces[importPath]; ok {
		if ws.mainFile != "" {
			return ws.mainFile, true
		}
		return "", false // workspace has no default export
	}

	pkgName, subpath := splitPackage(importPath)
	if subpath == "" {
		return "", false // bare package, exact match already failed
	}

	ws, ok := r.tsWorkspaces[pkgName]
	if !ok {
		return "", false // external package
	}

	// Check subpath exports.
	if target, ok := ws.subpathExports[subpath]; ok {
		return target, true
	}

	// Fallback: try resolving subpath as a file relative to the workspace dir.
	base := filepath.Join(ws.dir, subpath[2:])
	return r.probeFile(base, tsExtensions)
}

// probeFile checks if basePath (with any of the given extensions appended)
// exists in the known file set. No filesystem I/O.
func (r *Resolver) probeFile(basePath string, extensions []string) (string, bool) {
	if r.fileSet[basePath] {
		return basePath, true
	}
	for _, ext := range extensions {
		candidate := basePath + ext
		if r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// --- Workspace scanning ---

// packageJSON is a minimal representation for reading package.json files.
type packageJSON struct {
	Name       string          `json:"name"`
	Main       string          `json:"main"`
	Types      string          `json:"types"`
	Typings    string          `json:"typings"`
	Workspaces json.RawMessage `json:"workspaces"`
	Exports    json.RawMessage `json:"exports"`
}

func (r *Resolver) scanTSWorkspaces() {
	data, err := os.ReadFile(filepath.Join(r.repoRoot, "package.json"))
	if err != nil {
		return
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return
	}

	// Workspaces can be an array of globs or an object with a "packages" key.
	for _, pattern := range parseWorkspacePatterns(pkg.Workspaces) {
		matches, err := filepath.Glob(filepath.Join(r.repoRoot, pattern))
		if err != nil {
			continue
		}
		for _, dir := range matches {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			r.loadWorkspacePackage(dir)
		}
	}
}

func parseWorkspacePatterns(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}

	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}

	return nil
}

func (r *Resolver) loadWorkspacePackage(absDir string) {
	data, err := os.ReadFile(filepath.Join(absDir, "package.json"))
	if err != nil {
		return
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return
	}

	relDir, err := filepath.Rel(r.repoRoot, absDir)
	if err != nil {
		return
	}

	ws := &tsWorkspace{
		dir:            relDir,
		subpathExports: make(map[string]string),
	}

	r.parseExports(ws, pkg.Exports)

	if ws.mainFile == "" && pkg.Main != "" {
		if resolved, ok := r.probeFile(filepath.Clean(filepath.Join(relDir, pkg.Main)), tsExtensions); ok {
			ws.mainFile = resolved
		}
	}

	// Last resort: index file in the package root or src/.
	if ws.mainFile == "" {
		for _, try := range []string{
			filepath.Join(relDir, "src", "index"),
			filepath.Join(relDir, "index"),
		} {
			if resolved, ok := r.probeFile(try, tsExtensions); ok {
				ws.mainFile = resolved
				break
			}
		}
	}

	r.tsWorkspaces[pkg.Name] = ws
}

func (r *Resolver) parseExports(ws *tsWorkspace, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	// "exports": "./src/index.ts"
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if probed, ok := r.probeFile(filepath.Clean(filepath.Join(ws.dir, str)), tsExtensions); ok {
			ws.mainFile = probed
		}
		return
	}

	// "exports": {".": "./src/index.ts", "./queries": "./src/queries.ts"}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return
	}

	for key, val := range obj {
		target := resolveExportValue(val)
		if target == "" {
			continue
		}
		finalPath, ok := r.probeFile(filepath.Clean(filepath.Join(ws.dir, target)), tsExtensions)
		if !ok {
			continue
		}
		if key == "." {
			ws.mainFile = finalPath
		} else {
			ws.subpathExports[key] = finalPath
		}
	}
}

// resolveExportValue extracts a file path from an export value, which can be
// a string or a conditional object {"types": "...", "import": "...", "default": "..."}.
func resolveExportValue(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}

	for _, key := range []string{"import", "default", "require"} {
		if v, ok := obj[key]; ok {
			return resolveExportValue(v)
		}
	}
	return ""
}
