package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pawfa/pact-gen-ts/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// pactgenMCPEntry is the MCP server configuration for the pactgen binary.
var pactgenMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "pactgen",
  "args": ["--serve-mcp"]
}`)

// runInit writes a starter pactgen.yml and registers the MCP server in the
// target project directory.
func runInit(args []string) error {
	fs := flag.NewFlagSet("pactgen init", flag.ContinueOnError)
	projectRoot := fs.String("project-root", ".", "path to the TypeScript project")
	provider := fs.String("provider", "", "default provider name")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	abs, err := filepath.Abs(*projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	if err := writeProjectConfig(abs, *provider, *force); err != nil {
		return err
	}
	if err := mergeMCPConfig(filepath.Join(abs, ".mcp.json"), *force); err != nil {
		return err
	}

	fmt.Println("\nSetup complete. Annotate functions with @pact and run pactgen.")
	return nil
}

// writeProjectConfig creates pactgen.yml. The consumer defaults to the
// package.json name and the sources to src/ when it exists.
func writeProjectConfig(root, provider string, force bool) error {
	path := filepath.Join(root, config.FileNames[0])
	if !force {
		for _, name := range config.FileNames {
			if _, err := os.Stat(filepath.Join(root, name)); err == nil {
				fmt.Printf("  skipped %s (exists, use --force to overwrite)\n", name)
				return nil
			}
		}
	}

	cfg := config.ProjectConfig{
		Consumer:  packageName(root),
		Provider:  provider,
		OutputDir: config.DefaultOutputDir,
	}
	if info, err := os.Stat(filepath.Join(root, "src")); err == nil && info.IsDir() {
		cfg.SourceDirs = []string{"src"}
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("  created %s\n", dotRelative(root, path))
	return nil
}

// packageName returns the name field of root/package.json, or "".
func packageName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return ""
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Name
}

// mergeMCPConfig creates or merges the pactgen entry into .mcp.json.
func mergeMCPConfig(mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["pactgen"]; exists && !force {
		fmt.Printf("  skipped .mcp.json pactgen entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["pactgen"] = pactgenMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Printf("  %s .mcp.json with pactgen MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
