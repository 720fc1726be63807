package graph

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// Compile-time assertions.
var (
	_ syntax.Project    = (*Program)(nil)
	_ syntax.SourceFile = (*sourceFile)(nil)
)

// DefaultConcurrency bounds parallel parsing when ProgramOptions leaves it
// unset.
const DefaultConcurrency = 8

// DefaultInstanceFactories are the client methods returning a configured
// instance, as in `axios.create()`.
var DefaultInstanceFactories = []string{"create"}

// ProgramOptions tunes LoadProgram.
type ProgramOptions struct {
	// DependencyDir is where installed packages live, relative to the root.
	DependencyDir string

	// InstanceFactories name the methods whose result carries the origin
	// of their receiver.
	InstanceFactories []string

	// Concurrency bounds parallel parsing.
	Concurrency int
}

func (o ProgramOptions) withDefaults() ProgramOptions {
	if o.DependencyDir == "" {
		o.DependencyDir = DefaultDependencyDir
	}
	if len(o.InstanceFactories) == 0 {
		o.InstanceFactories = DefaultInstanceFactories
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Program is a set of parsed TypeScript files with name, import and type
// resolution across them. It implements syntax.Project. A Program is
// immutable after LoadProgram and safe for concurrent analysis; Close
// releases the syntax trees.
type Program struct {
	root     string
	opts     ProgramOptions
	resolver *Resolver
	files    map[string]*sourceFile
	order    []*sourceFile
}

// sourceFile is one parsed file; it keeps its tree open for the lifetime of
// the program.
type sourceFile struct {
	prog      *Program
	path      string
	source    []byte
	tree      *tree_sitter.Tree
	root      *tree_sitter.Node
	result    *ParseResult
	functions []function
}

// Function is a function-like declaration of the program, with its JSDoc
// tags in Symbol.Tags.
type Function struct {
	Symbol SymbolNode
	Node   syntax.Node
}

// LoadProgram parses the given repo-relative paths below root in parallel.
// Import edges of the parse results are resolved against the loaded files.
func LoadProgram(ctx context.Context, parser *TreeSitterParser, root string, paths []string, opts ProgramOptions) (*Program, error) {
	opts = opts.withDefaults()
	p := &Program{
		root:     root,
		opts:     opts,
		resolver: NewResolver(root, paths, opts.DependencyDir),
		files:    make(map[string]*sourceFile, len(paths)),
	}

	loaded := make([]*sourceFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := p.loadFile(parser, path)
			if err != nil {
				return err
			}
			loaded[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range loaded {
			if f != nil {
				f.tree.Close()
			}
		}
		return nil, err
	}

	for _, f := range loaded {
		f.result.Edges = p.resolver.ResolveAll(f.result.Edges)
		p.files[f.path] = f
		p.order = append(p.order, f)
	}
	return p, nil
}

func (p *Program) loadFile(parser *TreeSitterParser, path string) (*sourceFile, error) {
	lang, ok := LanguageForPath(path)
	if !ok {
		return nil, fmt.Errorf("load %s: unsupported file type", path)
	}
	source, err := os.ReadFile(filepath.Join(p.root, path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	tree, err := parser.parseTree(path, source, lang)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	root := tree.RootNode()
	x := parser.extractor.extract(root, source, path)
	return &sourceFile{
		prog:   p,
		path:   path,
		source: source,
		tree:   tree,
		root:   root,
		result: &ParseResult{
			File:    FileNode{Path: path, Language: lang, LOC: countLOC(source)},
			Symbols: x.symbols,
			Edges:   x.edges,
		},
		functions: x.functions,
	}, nil
}

// Close releases all syntax trees. Nodes obtained from the program must not
// be used afterwards.
func (p *Program) Close() error {
	for _, f := range p.order {
		f.tree.Close()
	}
	p.order = nil
	p.files = map[string]*sourceFile{}
	return nil
}

// Root returns the directory the program was loaded from.
func (p *Program) Root() string { return p.root }

// SourceFile returns the loaded file at a repo-relative path.
func (p *Program) SourceFile(path string) (syntax.SourceFile, bool) {
	f, ok := p.files[filepath.Clean(path)]
	if !ok {
		return nil, false
	}
	return f, true
}

// Results returns the parse result of every file, in load order.
func (p *Program) Results() []*ParseResult {
	out := make([]*ParseResult, len(p.order))
	for i, f := range p.order {
		out[i] = f.result
	}
	return out
}

// Functions returns every function-like declaration, by file and position.
func (p *Program) Functions() []Function {
	var out []Function
	for _, f := range p.order {
		for _, fn := range f.functions {
			out = append(out, Function{Symbol: fn.symbol, Node: f.wrap(fn.node)})
		}
	}
	return out
}

// Function returns the function called name in filePath. Methods are named
// "Class.method".
func (p *Program) Function(filePath, name string) (Function, bool) {
	f, ok := p.files[filepath.Clean(filePath)]
	if !ok {
		return Function{}, false
	}
	for _, fn := range f.functions {
		if fn.symbol.Name == name {
			return Function{Symbol: fn.symbol, Node: f.wrap(fn.node)}, true
		}
	}
	return Function{}, false
}

func (f *sourceFile) Path() string { return f.path }

// VariableDeclaration returns the top-level declarator of name, exported or
// not.
func (f *sourceFile) VariableDeclaration(name string) (syntax.Node, bool) {
	for i := uint(0); i < f.root.NamedChildCount(); i++ {
		stmt := f.root.NamedChild(i)
		if stmt.Kind() == "export_statement" {
			stmt = stmt.ChildByFieldName("declaration")
			if stmt == nil {
				continue
			}
		}
		if stmt.Kind() != "lexical_declaration" && stmt.Kind() != "variable_declaration" {
			continue
		}
		if b, ok := f.declares(stmt, name, valueSpace); ok {
			return f.wrap(b.decl), true
		}
	}
	return nil, false
}

// CollectSources walks the source directories below root and returns the
// repo-relative paths of every analyzable file, sorted. Directories named in
// exclude are skipped at any depth.
func CollectSources(root string, dirs, exclude []string) ([]string, error) {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	excludeSet := make(map[string]bool, len(exclude))
	for _, d := range exclude {
		excludeSet[d] = true
	}

	seen := make(map[string]bool)
	var paths []string
	for _, dir := range dirs {
		start := filepath.Join(root, dir)
		walkErr := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == start {
					return err
				}
				return nil // skip inaccessible paths
			}
			if d.IsDir() {
				if path != start && excludeSet[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := LanguageForPath(path); !ok {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			if !seen[rel] {
				seen[rel] = true
				paths = append(paths, rel)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, walkErr)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
