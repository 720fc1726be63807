//go:build !cgo

package main

import (
	"context"
	"errors"

	"github.com/pawfa/pact-gen-ts/internal/graph"
)

var errNoCgo = errors.New("the graph index requires a cgo build")

func openIndex(string, bool) (graph.Store, error) { return nil, errNoCgo }

func runDiagram(context.Context, []string) error { return errNoCgo }

func runExport(context.Context, []string) error { return errNoCgo }
