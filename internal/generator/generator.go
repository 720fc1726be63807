// Package generator runs contract generation for a project: it loads the
// sources, analyzes every @pact function concurrently, writes one contract
// per provider and records what it found in the interaction graph.
package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pawfa/pact-gen-ts/internal/config"
	"github.com/pawfa/pact-gen-ts/internal/examples"
	"github.com/pawfa/pact-gen-ts/internal/graph"
	"github.com/pawfa/pact-gen-ts/internal/log"
	"github.com/pawfa/pact-gen-ts/internal/pact"
	"github.com/pawfa/pact-gen-ts/internal/pactaxios"
)

var (
	// ErrMissingProvider means neither @pact-provider nor the config names
	// the provider of a function.
	ErrMissingProvider = errors.New("no provider configured")

	// ErrFunctionNotFound is returned by AnalyzeFunction.
	ErrFunctionNotFound = errors.New("function not found")
)

// Generator produces contracts for one project root. It is safe to call Run
// repeatedly, e.g. from watch mode; every run reloads the sources.
type Generator struct {
	root     string
	cfg      *config.ProjectConfig
	parser   *graph.TreeSitterParser
	examples *examples.Registry
	store    graph.Store
}

// New returns a Generator. store may be nil when no index is kept.
func New(root string, cfg *config.ProjectConfig, store graph.Store) *Generator {
	return &Generator{
		root:     root,
		cfg:      cfg,
		parser:   graph.NewTreeSitterParser(),
		examples: examples.NewRegistry(cfg.Examples),
		store:    store,
	}
}

// Analysis is the outcome for one annotated function.
type Analysis struct {
	Function    graph.SymbolNode
	Provider    string
	Descriptor  pactaxios.RequestDescriptor
	Interaction pact.Interaction
}

// Endpoint returns the graph node of the analyzed request.
func (a Analysis) Endpoint() graph.EndpointNode {
	return graph.EndpointNode{Provider: a.Provider, Method: a.Descriptor.Method, Path: a.Descriptor.Path}
}

// Skipped is an annotated function that could not be analyzed.
type Skipped struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Error    string `json:"error"`
}

// Result summarizes a run.
type Result struct {
	Contracts    []string   `json:"contracts"`
	Interactions int        `json:"interactions"`
	Analyses     []Analysis `json:"-"`
	Skipped      []Skipped  `json:"skipped,omitempty"`
}

// Run generates and writes the contracts.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}

	prog, err := g.Load(ctx)
	if err != nil {
		return nil, err
	}
	defer prog.Close()

	var annotated []graph.Function
	for _, fn := range prog.Functions() {
		if pact.IsAnnotated(fn.Symbol.Tags) {
			annotated = append(annotated, fn)
		}
	}
	log.Info("analyzing functions", "files", len(prog.Results()), "annotated", len(annotated))

	analyses, skipped, err := g.analyzeAll(ctx, prog, annotated)
	if err != nil {
		return nil, err
	}

	res := &Result{Analyses: analyses, Skipped: skipped, Interactions: len(analyses)}
	for _, c := range g.contracts(analyses) {
		path, err := pact.Write(g.outputDir(), c)
		if err != nil {
			return nil, fmt.Errorf("write contract for %s: %w", c.Provider.Name, err)
		}
		log.Info("contract written", "provider", c.Provider.Name, "interactions", len(c.Interactions), "path", path)
		res.Contracts = append(res.Contracts, path)
	}

	if g.store != nil {
		if err := g.index(ctx, prog, analyses); err != nil {
			return nil, fmt.Errorf("index: %w", err)
		}
	}
	return res, nil
}

// Load parses the configured source directories.
func (g *Generator) Load(ctx context.Context) (*graph.Program, error) {
	paths, err := graph.CollectSources(g.root, g.cfg.SourceDirs, g.cfg.ExcludeDirs)
	if err != nil {
		return nil, err
	}
	return graph.LoadProgram(ctx, g.parser, g.root, paths, graph.ProgramOptions{
		DependencyDir:     g.cfg.DependencyDir,
		InstanceFactories: g.cfg.InstanceFactories,
		Concurrency:       g.cfg.Concurrency,
	})
}

// AnalyzeFunction analyzes a single function, annotated or not. Methods are
// named "Class.method".
func (g *Generator) AnalyzeFunction(ctx context.Context, file, name string) (*Analysis, error) {
	prog, err := g.Load(ctx)
	if err != nil {
		return nil, err
	}
	defer prog.Close()

	fn, ok := prog.Function(file, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrFunctionNotFound, name, file)
	}
	a, err := g.analyze(g.analyzer(prog), fn)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (g *Generator) analyzer(prog *graph.Program) *pactaxios.Analyzer {
	return pactaxios.NewAnalyzer(prog, g.examples,
		pactaxios.WithClientPackage(g.cfg.ClientPackage),
		pactaxios.WithDependencyDir(g.cfg.DependencyDir),
	)
}

// analyzeAll runs the analyzer over fns with bounded concurrency. Failed
// functions are logged and skipped; only cancellation aborts the run.
// Workers share prog: its trees are only read, and the caller closes it
// after Wait returns.
func (g *Generator) analyzeAll(ctx context.Context, prog *graph.Program, fns []graph.Function) ([]Analysis, []Skipped, error) {
	analyzer := g.analyzer(prog)
	results := make([]Analysis, len(fns))
	errs := make([]error, len(fns))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Concurrency)
	for i, fn := range fns {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = g.analyze(analyzer, fn)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var analyses []Analysis
	var skipped []Skipped
	for i, fn := range fns {
		if errs[i] != nil {
			log.Warn("skipping function", "function", fn.Symbol.Name, "file", fn.Symbol.FilePath, "error", errs[i])
			skipped = append(skipped, Skipped{Function: fn.Symbol.Name, File: fn.Symbol.FilePath, Error: errs[i].Error()})
			continue
		}
		analyses = append(analyses, results[i])
	}
	return analyses, skipped, nil
}

func (g *Generator) analyze(analyzer *pactaxios.Analyzer, fn graph.Function) (Analysis, error) {
	ann, err := pact.ParseAnnotations(fn.Symbol.Tags, fn.Symbol.Name)
	if err != nil {
		return Analysis{}, err
	}
	provider := ann.Provider
	if provider == "" {
		provider = g.cfg.Provider
	}
	if provider == "" {
		return Analysis{}, ErrMissingProvider
	}

	desc, err := analyzer.Analyze(fn.Node)
	if err != nil {
		return Analysis{}, err
	}
	log.Debug("function analyzed", "function", fn.Symbol.Name, "method", desc.Method, "path", desc.Path)
	return Analysis{
		Function:    fn.Symbol,
		Provider:    provider,
		Descriptor:  desc,
		Interaction: pact.BuildInteraction(ann, desc, g.examples),
	}, nil
}

// contracts groups interactions by provider, ordered by provider name.
func (g *Generator) contracts(analyses []Analysis) []*pact.Contract {
	byProvider := make(map[string]*pact.Contract)
	for _, a := range analyses {
		c, ok := byProvider[a.Provider]
		if !ok {
			c = pact.NewContract(g.cfg.Consumer, a.Provider, g.cfg.PactSpecification)
			byProvider[a.Provider] = c
		}
		c.Merge(a.Interaction)
	}
	out := make([]*pact.Contract, 0, len(byProvider))
	for _, c := range byProvider {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider.Name < out[j].Provider.Name })
	return out
}

func (g *Generator) outputDir() string {
	if filepath.IsAbs(g.cfg.OutputDir) {
		return g.cfg.OutputDir
	}
	return filepath.Join(g.root, g.cfg.OutputDir)
}

// index records files, symbols, imports and requested endpoints. Nodes are
// written before the edges referencing them.
func (g *Generator) index(ctx context.Context, prog *graph.Program, analyses []Analysis) error {
	if err := g.store.InitSchema(ctx); err != nil {
		return err
	}
	results := prog.Results()
	for _, r := range results {
		if err := g.store.AddFile(ctx, r.File); err != nil {
			return err
		}
		for _, s := range r.Symbols {
			if err := g.store.AddSymbol(ctx, s); err != nil {
				return err
			}
		}
	}
	for _, a := range analyses {
		if err := g.store.AddEndpoint(ctx, a.Endpoint()); err != nil {
			return err
		}
	}
	for _, r := range results {
		for _, e := range r.Edges {
			if err := g.store.AddEdge(ctx, e); err != nil {
				return err
			}
		}
	}
	for _, a := range analyses {
		edge := graph.Edge{SourceID: a.Function.ID(), TargetID: a.Endpoint().ID(), Kind: graph.EdgeKindRequests}
		if err := g.store.AddEdge(ctx, edge); err != nil {
			return err
		}
	}
	return nil
}
