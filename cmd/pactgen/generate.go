package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/pawfa/pact-gen-ts/internal/config"
	"github.com/pawfa/pact-gen-ts/internal/generator"
	"github.com/pawfa/pact-gen-ts/internal/graph"
	"github.com/pawfa/pact-gen-ts/internal/log"
	"github.com/pawfa/pact-gen-ts/internal/mcptools"
	"github.com/pawfa/pact-gen-ts/internal/watch"
)

func runGenerate(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig) error {
	var store graph.Store
	if flags.Index {
		s, err := openIndex(flags.ProjectRoot, true)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	gen := generator.New(flags.ProjectRoot, cfg, store)
	if err := generate(ctx, gen); err != nil {
		return err
	}
	if !flags.Watch {
		return nil
	}

	dirs := make([]string, 0, len(cfg.SourceDirs))
	for _, d := range cfg.SourceDirs {
		dirs = append(dirs, filepath.Join(flags.ProjectRoot, d))
	}
	opts := watch.Options{
		Exclude: cfg.ExcludeDirs,
		Match: func(path string) bool {
			if _, ok := graph.LanguageForPath(path); ok {
				return true
			}
			return slices.Contains(config.FileNames, filepath.Base(path))
		},
	}

	log.Info("watching for changes", "dirs", dirs)
	changes := make(chan struct{}, 1)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watch.Run(ctx, dirs, opts, changes)
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				if err := generate(ctx, gen); err != nil {
					log.Error("generation failed", "error", err)
				}
			}
		}
	})
	return g.Wait()
}

// generate runs one generation and prints the written contracts.
func generate(ctx context.Context, gen *generator.Generator) error {
	res, err := gen.Run(ctx)
	if err != nil {
		return err
	}
	for _, path := range res.Contracts {
		fmt.Printf("  wrote %s\n", path)
	}
	fmt.Printf("%d interactions, %d skipped\n", res.Interactions, len(res.Skipped))
	return nil
}

func runServe(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig) error {
	server := mcptools.NewPactMCPServer(mcptools.NewPactService(flags.ProjectRoot, cfg))
	if flags.MCPAddr != "" {
		log.Info("serving MCP over HTTP", "addr", flags.MCPAddr)
		return mcptools.RunHTTP(ctx, server, flags.MCPAddr)
	}
	return mcptools.RunStdio(ctx, server)
}
