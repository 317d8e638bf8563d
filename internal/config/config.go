// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the YAML configuration of a pipeline run.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config describes one pipeline run.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	ResultsDir string `yaml:"results_dir"`
	Pattern    string `yaml:"pattern"`

	// Bucket and Prefix locate run logs in Cloud Storage. An empty
	// Bucket skips the sync step.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// Prices is the instance price table. If empty, the economy step
	// looks for instance_prices.csv in ResultsDir and is skipped when
	// there is none.
	Prices    string `yaml:"prices"`
	VCPUsUsed int    `yaml:"vcpus_used"`

	DB DB `yaml:"db"`

	Charts bool `yaml:"charts"`
	HTML   bool `yaml:"html"`
}

// DB selects the database normalized rows are saved to. An empty
// Driver skips the save step.
type DB struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:    "data",
		ResultsDir: "results",
		Pattern:    "*.jsonl",
		VCPUsUsed:  2,
		Charts:     true,
	}
}

// Load reads a configuration file. Keys missing from the file keep
// their Default values.
func Load(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", file, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", file, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", file, err)
	}
	return cfg, nil
}

// Validate checks cfg for consistency and fills in derived defaults.
func (cfg *Config) Validate() error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = filepath.Join(cfg.DataDir, "results")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "*.jsonl"
	}
	if _, err := path.Match(cfg.Pattern, ""); err != nil {
		return fmt.Errorf("pattern %q: %w", cfg.Pattern, err)
	}
	if cfg.Prefix != "" && cfg.Bucket == "" {
		return fmt.Errorf("prefix %q set without bucket", cfg.Prefix)
	}
	if cfg.VCPUsUsed < 1 {
		return fmt.Errorf("vcpus_used must be at least 1")
	}
	switch cfg.DB.Driver {
	case "":
		if cfg.DB.DSN != "" {
			return fmt.Errorf("db.dsn set without db.driver")
		}
	case "sqlite3", "mysql":
		if cfg.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for driver %s", cfg.DB.Driver)
		}
	default:
		return fmt.Errorf("db.driver %q is not supported", cfg.DB.Driver)
	}
	return nil
}
