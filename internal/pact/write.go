package pact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileName returns the conventional pact file name for a contract.
func FileName(consumer, provider string) string {
	return consumer + "-" + provider + ".json"
}

// Read loads a contract file.
func Read(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Contract
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

// Write stores c in dir as <consumer>-<provider>.json and returns the path.
// Interactions of an existing file are kept unless c redefines them by
// description. The file is replaced atomically.
func Write(dir string, c *Contract) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(c.Consumer.Name, c.Provider.Name))

	merged := NewContract(c.Consumer.Name, c.Provider.Name, c.Metadata.PactSpecification.Version)
	existing, err := Read(path)
	switch {
	case err == nil:
		merged.Merge(existing.Interactions...)
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}
	merged.Merge(c.Interactions...)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal contract: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pact-*.json")
	if err != nil {
		return "", fmt.Errorf("write contract: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write contract: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write contract: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write contract: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write contract: %w", err)
	}
	return path, nil
}
