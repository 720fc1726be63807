package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// File names probed by Load, in order.
var FileNames = []string{"pactgen.yml", "pactgen.yaml"}

// Defaults.
const (
	DefaultOutputDir         = "pacts"
	DefaultClientPackage     = "axios"
	DefaultDependencyDir     = "node_modules"
	DefaultConcurrency       = 8
	DefaultLogLevel          = "info"
	DefaultPactSpecification = "2.0.0"
)

var (
	DefaultSourceDirs        = []string{"."}
	DefaultExcludeDirs       = []string{"node_modules", ".git", "dist"}
	DefaultInstanceFactories = []string{"create"}
)

// ErrMissingConsumer means no consumer name was configured.
var ErrMissingConsumer = errors.New("consumer name is required")

// ProjectConfig holds project-level settings loaded from pactgen.yml.
type ProjectConfig struct {
	// Consumer names the pacticipant generating contracts.
	Consumer string `yaml:"consumer,omitempty"`
	// Provider is used for functions without a @pact-provider tag.
	Provider string `yaml:"provider,omitempty"`

	OutputDir   string   `yaml:"outputDir,omitempty"`
	SourceDirs  []string `yaml:"sourceDirs,omitempty"`
	ExcludeDirs []string `yaml:"excludeDirs,omitempty"`

	ClientPackage     string   `yaml:"clientPackage,omitempty"`
	DependencyDir     string   `yaml:"dependencyDir,omitempty"`
	InstanceFactories []string `yaml:"instanceFactories,omitempty"`

	// Examples overrides example values by type name, e.g. Date: "2024-01-01".
	Examples map[string]string `yaml:"examples,omitempty"`

	Concurrency       int    `yaml:"concurrency,omitempty"`
	LogLevel          string `yaml:"logLevel,omitempty"`
	PactSpecification string `yaml:"pactSpecification,omitempty"`
}

// Load attempts to read pactgen.yml or pactgen.yaml from the given
// directory. A missing file is not an error: the defaults are returned.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	cfg := &ProjectConfig{}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadFile reads the config file at path and applies defaults.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every unset field.
func (c *ProjectConfig) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if len(c.SourceDirs) == 0 {
		c.SourceDirs = slices.Clone(DefaultSourceDirs)
	}
	if len(c.ExcludeDirs) == 0 {
		c.ExcludeDirs = slices.Clone(DefaultExcludeDirs)
	}
	if c.ClientPackage == "" {
		c.ClientPackage = DefaultClientPackage
	}
	if c.DependencyDir == "" {
		c.DependencyDir = DefaultDependencyDir
	}
	if len(c.InstanceFactories) == 0 {
		c.InstanceFactories = slices.Clone(DefaultInstanceFactories)
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.PactSpecification == "" {
		c.PactSpecification = DefaultPactSpecification
	}
}

// Validate checks the settings generation cannot run without.
func (c *ProjectConfig) Validate() error {
	if c.Consumer == "" {
		return ErrMissingConsumer
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
