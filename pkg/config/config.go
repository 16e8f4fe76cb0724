// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"angelhub/pkg/utils"
)

// AppConfig holds the global application configuration
type AppConfig struct {
	DataDir           string        `yaml:"data_dir"`                     // Library database location
	ListenAddr        string        `yaml:"listen_addr,omitempty"`        // HTTP API bind address
	ExportDir         string        `yaml:"export_dir,omitempty"`         // Where export files are written
	AutosaveInterval  time.Duration `yaml:"autosave_interval,omitempty"`  // Editing session autosave tick
	MaxVersions       int           `yaml:"max_versions,omitempty"`       // Snapshot history bound per work
	GCInterval        time.Duration `yaml:"gc_interval,omitempty"`        // Database value log GC interval
	ImportConcurrency int64         `yaml:"import_concurrency,omitempty"` // Parallel DOCX imports
	TokenizerEncoding string        `yaml:"tokenizer_encoding,omitempty"` // Encoding for token statistics
	LogLevel          string        `yaml:"log_level,omitempty"`
}

// Load reads and parses a YAML config file. Validation is the caller's
// next step.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config file %s: %w", utils.ErrFilesystem, path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config file %s: %w", utils.ErrConfigValidation, path, err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.Validate()
	return cfg
}
