package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// scanConfig is the optional .modgraph.yml at the scan root.
type scanConfig struct {
	Extensions []string `yaml:"extensions"`
	Ignore     []string `yaml:"ignore"`
}

// loadConfig reads .modgraph.yml from the scan root if present. A missing
// file yields zero config; a malformed one is an error so typos don't
// silently scan the wrong set.
func loadConfig(rootPath string) (*scanConfig, error) {
	cfg := &scanConfig{}
	data, err := os.ReadFile(filepath.Join(rootPath, ".modgraph.yml"))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse .modgraph.yml: %w", err)
	}
	return cfg, nil
}
