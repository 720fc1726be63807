package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pawfa/pact-gen-ts/internal/config"
	"github.com/pawfa/pact-gen-ts/internal/log"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot string
	Config      string
	OutputDir   string
	Consumer    string
	Provider    string
	LogLevel    string
	Watch       bool
	Index       bool
	ServeMCP    bool
	MCPAddr     string
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: pactgen [flags]            generate contracts
       pactgen init [flags]       write pactgen.yml and the .mcp.json entry
       pactgen diagram [flags]    print the indexed interaction graph as Mermaid
       pactgen export [flags]     print the indexed interaction graph as JSON`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "generate":
			args = args[1:]
		case "init":
			return runInit(args[1:])
		case "diagram":
			return runDiagram(ctx, args[1:])
		case "export":
			return runExport(ctx, args[1:])
		case "help":
			fmt.Println(usage)
			return nil
		}
	}

	var flags cliFlags

	fs := flag.NewFlagSet("pactgen", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the TypeScript project")
	fs.StringVar(&flags.Config, "config", "", "config file (default: pactgen.yml in the project root)")
	fs.StringVar(&flags.OutputDir, "output-dir", "", "directory contracts are written to")
	fs.StringVar(&flags.Consumer, "consumer", "", "consumer name")
	fs.StringVar(&flags.Provider, "provider", "", "provider name for functions without @pact-provider")
	fs.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&flags.Watch, "watch", false, "regenerate when sources change")
	fs.BoolVar(&flags.Index, "index", false, "persist the interaction graph to .pactgen/graph")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "", "serve MCP over HTTP on this address instead of stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if flags.ServeMCP || flags.MCPAddr != "" {
		return runServe(ctx, flags, cfg)
	}
	return runGenerate(ctx, flags, cfg)
}

// loadConfig reads the project config and applies flag overrides.
func loadConfig(flags cliFlags) (*config.ProjectConfig, error) {
	var cfg *config.ProjectConfig
	var err error
	if flags.Config != "" {
		cfg, err = config.LoadFile(flags.Config)
	} else {
		cfg, err = config.Load(flags.ProjectRoot)
	}
	if err != nil {
		return nil, err
	}

	if flags.OutputDir != "" {
		cfg.OutputDir = flags.OutputDir
	}
	if flags.Consumer != "" {
		cfg.Consumer = flags.Consumer
	}
	if flags.Provider != "" {
		cfg.Provider = flags.Provider
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Init(cfg.LogLevel, nil)
	return cfg, nil
}
