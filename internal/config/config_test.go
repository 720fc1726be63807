package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Fixture(t *testing.T) {
	cfg, err := Load("../../testdata/fixtures/axios_project")
	require.NoError(t, err)

	assert.Equal(t, "user-web", cfg.Consumer)
	assert.Equal(t, "user-service", cfg.Provider)
	assert.Equal(t, "pacts", cfg.OutputDir)
	assert.Equal(t, []string{"src"}, cfg.SourceDirs)
	assert.Equal(t, map[string]string{"Date": "2024-01-01T00:00:00Z"}, cfg.Examples)

	// Defaults fill the rest.
	assert.Equal(t, DefaultExcludeDirs, cfg.ExcludeDirs)
	assert.Equal(t, "axios", cfg.ClientPackage)
	assert.Equal(t, "node_modules", cfg.DependencyDir)
	assert.Equal(t, []string{"create"}, cfg.InstanceFactories)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "2.0.0", cfg.PactSpecification)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultSourceDirs, cfg.SourceDirs)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingConsumer)
}

func TestLoad_YAMLExtension(t *testing.T) {
	dir := t.TempDir()
	content := `consumer: web
excludeDirs: [vendor]
instanceFactories: [create, withAuth]
examples:
  UserId: 42
concurrency: 2
logLevel: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pactgen.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.Consumer)
	assert.Equal(t, []string{"vendor"}, cfg.ExcludeDirs)
	assert.Equal(t, []string{"create", "withAuth"}, cfg.InstanceFactories)
	assert.Equal(t, "42", cfg.Examples["UserId"], "scalars decode as text")
	assert.Equal(t, 2, cfg.Concurrency)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pactgen.yml"), []byte("consumer: [unterminated"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pactgen.yml")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "custom.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := &ProjectConfig{Consumer: "web", LogLevel: "loud"}
	assert.Error(t, cfg.Validate())
}
