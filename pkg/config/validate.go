package config

import (
	"fmt"
	"time"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// DataDir
	if c.DataDir == "" {
		warnings = append(warnings, "data_dir is empty, defaulting to './angelhub_data'")
		c.DataDir = "./angelhub_data"
	}

	// ListenAddr
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8787"
	}

	// ExportDir
	if c.ExportDir == "" {
		warnings = append(warnings, "export_dir is empty, defaulting to './exports'")
		c.ExportDir = "./exports"
	}

	// AutosaveInterval
	if c.AutosaveInterval < 0 {
		return warnings, fmt.Errorf("autosave_interval cannot be negative: %v", c.AutosaveInterval)
	}
	if c.AutosaveInterval == 0 {
		c.AutosaveInterval = 30 * time.Second
	}
	if c.AutosaveInterval < time.Second {
		warnings = append(warnings, fmt.Sprintf(
			"autosave_interval (%v) is very aggressive, raising to 1s", c.AutosaveInterval))
		c.AutosaveInterval = time.Second
	}

	// MaxVersions
	if c.MaxVersions < 0 {
		warnings = append(warnings, "max_versions cannot be negative, defaulting to 30")
		c.MaxVersions = 0
	}
	if c.MaxVersions == 0 {
		c.MaxVersions = 30
	}

	// GCInterval
	if c.GCInterval <= 0 {
		c.GCInterval = 10 * time.Minute
	}

	// ImportConcurrency
	if c.ImportConcurrency <= 0 {
		c.ImportConcurrency = 4
	}

	// TokenizerEncoding
	if c.TokenizerEncoding == "" {
		c.TokenizerEncoding = "cl100k_base"
	}

	// LogLevel
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	return warnings, nil
}
