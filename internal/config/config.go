// Package config loads the parityscan project configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a value.
const (
	DefaultLedgerPath = "indicators.csv"
	DefaultStorePath  = "code_chunks_vector_store.db"
	DefaultReportDir  = "reports"
	DefaultReportPath = "README_comparison.md"
	DefaultBranch     = "develop"
	DefaultBatchSize  = 50
	DefaultChunkLines = 300
	DefaultTopK       = 8
)

// Target selects one subtree and the file extensions collected from it.
type Target struct {
	Path       string   `yaml:"path"`
	Extensions []string `yaml:"extensions"`
}

// Provider configures one model service endpoint.
type Provider struct {
	Type    string `yaml:"type"` // openai, ollama, mock
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Config is the full project configuration.
type Config struct {
	RepoPath   string   `yaml:"repo_path"`
	Branch     string   `yaml:"branch"`
	LedgerPath string   `yaml:"ledger_path"`
	StorePath  string   `yaml:"store_path"`
	ReportDir  string   `yaml:"report_dir"`
	ReportPath string   `yaml:"report_path"`
	BatchSize  int      `yaml:"batch_size"`
	ChunkLines int      `yaml:"chunk_lines"`
	TopK       int      `yaml:"top_k"`
	Targets    []Target `yaml:"targets"`
	Embedding  Provider `yaml:"embedding"`
	Completion Provider `yaml:"completion"`
}

// Load reads and validates a config file. A missing file is an error; use
// Default for a config-free run against a plain directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config populated with defaults and no targets.
func Default() *Config {
	return &Config{
		Branch:     DefaultBranch,
		LedgerPath: DefaultLedgerPath,
		StorePath:  DefaultStorePath,
		ReportDir:  DefaultReportDir,
		ReportPath: DefaultReportPath,
		BatchSize:  DefaultBatchSize,
		ChunkLines: DefaultChunkLines,
		TopK:       DefaultTopK,
	}
}

// Validate checks required fields and fills zero values with defaults.
func (c *Config) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("config: repo_path is required")
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ChunkLines <= 0 {
		c.ChunkLines = DefaultChunkLines
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	if c.LedgerPath == "" {
		c.LedgerPath = DefaultLedgerPath
	}
	if c.StorePath == "" {
		c.StorePath = DefaultStorePath
	}
	if c.ReportDir == "" {
		c.ReportDir = DefaultReportDir
	}
	if c.ReportPath == "" {
		c.ReportPath = DefaultReportPath
	}
	for i, t := range c.Targets {
		if t.Path == "" {
			return fmt.Errorf("config: targets[%d].path is required", i)
		}
		if len(t.Extensions) == 0 {
			return fmt.Errorf("config: targets[%d].extensions is required", i)
		}
	}
	return nil
}
