// Package config loads the fsdbench configuration: a fsdbench.yaml in the
// working directory, all fields optional, with FSDBENCH_* environment
// variables taking precedence over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is consulted when neither --config nor FSDBENCH_CONFIG is set.
const DefaultPath = "fsdbench.yaml"

// Config represents the harness configuration.
type Config struct {
	DataRoot      string            `yaml:"data_root"`
	Dataset       string            `yaml:"dataset"`
	Python        string            `yaml:"python"`
	Venv          string            `yaml:"venv"`
	Scripts       ScriptsConfig     `yaml:"scripts"`
	DefaultSearch string            `yaml:"default_search"`
	FiguresDir    string            `yaml:"figures_dir"`
	PCATable      map[string]string `yaml:"pca_table"`
	History       HistoryConfig     `yaml:"history"`
	Logging       LoggingConfig     `yaml:"logging"`
}

// ScriptsConfig locates the external Python stage programs.
type ScriptsConfig struct {
	Prepare  string `yaml:"prepare"`
	Search   string `yaml:"search"`
	Evaluate string `yaml:"evaluate"`
	Plot     string `yaml:"plot"`
	Extract  string `yaml:"extract"`
}

type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the convention configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		DataRoot:      "data",
		Dataset:       "FSD50K.eval_audio",
		Python:        "python",
		DefaultSearch: "nn",
		Scripts: ScriptsConfig{
			Prepare:  "prepare_embeddings.py",
			Search:   "similarity_search.py",
			Evaluate: "evaluate.py",
			Plot:     "plot_evaluation_results_comparisons.py",
			Extract:  "embedding_extractor.py",
		},
		Logging: LoggingConfig{Level: "info"},
	}
	return cfg
}

// Load reads configuration from path. An empty path means: use
// FSDBENCH_CONFIG if set, else fsdbench.yaml if it exists, else defaults.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	explicit := path != ""
	if path == "" {
		path = os.Getenv("FSDBENCH_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file is fine; conventions apply.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FSDBENCH_DATA_ROOT"); v != "" {
		c.DataRoot = v
	}
	if v := os.Getenv("FSDBENCH_DATASET"); v != "" {
		c.Dataset = v
	}
	if v := os.Getenv("FSDBENCH_PYTHON"); v != "" {
		c.Python = v
	}
	if v := os.Getenv("FSDBENCH_VENV"); v != "" {
		c.Venv = v
	}
	if v := os.Getenv("FSDBENCH_DB"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("FSDBENCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.DataRoot == "" {
		c.DataRoot = def.DataRoot
	}
	if c.Dataset == "" {
		c.Dataset = def.Dataset
	}
	if c.Python == "" {
		c.Python = def.Python
	}
	if c.DefaultSearch == "" {
		c.DefaultSearch = def.DefaultSearch
	}
	if c.Scripts.Prepare == "" {
		c.Scripts.Prepare = def.Scripts.Prepare
	}
	if c.Scripts.Search == "" {
		c.Scripts.Search = def.Scripts.Search
	}
	if c.Scripts.Evaluate == "" {
		c.Scripts.Evaluate = def.Scripts.Evaluate
	}
	if c.Scripts.Plot == "" {
		c.Scripts.Plot = def.Scripts.Plot
	}
	if c.Scripts.Extract == "" {
		c.Scripts.Extract = def.Scripts.Extract
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.DataRoot, "fsdbench.db")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// PythonBin resolves the interpreter: <venv>/bin/python when a virtualenv is
// configured, the configured binary otherwise.
func (c *Config) PythonBin() string {
	if c.Venv != "" {
		return filepath.Join(c.Venv, "bin", "python")
	}
	return c.Python
}

// HistoryEnabled reports whether runs should be recorded in the ledger.
// Recording is on unless the config turns it off.
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}
