//go:build cgo

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pawfa/pact-gen-ts/internal/export"
	"github.com/pawfa/pact-gen-ts/internal/graph"
)

// indexDir is where -index persists the interaction graph.
const indexDir = ".pactgen/graph"

// openIndex opens the persistent graph of projectRoot. reset drops the
// previous index so removed functions and endpoints do not linger.
func openIndex(projectRoot string, reset bool) (graph.Store, error) {
	graphPath := filepath.Join(projectRoot, filepath.FromSlash(indexDir))
	if reset {
		if err := os.RemoveAll(graphPath); err != nil {
			return nil, fmt.Errorf("reset index: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(graphPath), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	} else if _, err := os.Stat(graphPath); err != nil {
		return nil, fmt.Errorf("no graph found at %s\nRun 'pactgen -index' first to index the project", graphPath)
	}

	store, err := graph.NewKuzuFileStore(graphPath)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	if err := store.InitSchema(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func runDiagram(ctx context.Context, args []string) error {
	projectRoot, err := parseIndexFlags("diagram", args)
	if err != nil {
		return err
	}

	store, err := openIndex(projectRoot, false)
	if err != nil {
		return err
	}
	defer store.Close()

	mermaid, err := export.GenerateMermaid(ctx, store)
	if err != nil {
		return err
	}

	fmt.Print(mermaid)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	projectRoot, err := parseIndexFlags("export", args)
	if err != nil {
		return err
	}

	store, err := openIndex(projectRoot, false)
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := export.ExportGraph(ctx, store)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}

func parseIndexFlags(name string, args []string) (string, error) {
	fs := flag.NewFlagSet("pactgen "+name, flag.ContinueOnError)
	projectRoot := fs.String("project-root", ".", "path to the TypeScript project")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *projectRoot, nil
}
