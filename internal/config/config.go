// Package config provides configuration loading and validation. Settings
// come from an optional YAML file overridden by SESSMEM_* environment
// variables; GOOGLE_API_KEY is honored as the conventional key variable.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SESSMEM_"

// Config holds the full application configuration.
type Config struct {
	Sessions SessionsConfig `koanf:"sessions"`
	Store    StoreConfig    `koanf:"store"`
	Oracle   OracleConfig   `koanf:"oracle"`
	Generate GenerateConfig `koanf:"generate"`
}

// SessionsConfig locates recorded session transcripts.
type SessionsConfig struct {
	// Dir is the projects directory holding per-project session files.
	// Empty selects the default location under the user's home.
	Dir string `koanf:"dir"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `koanf:"driver"`
	// URL is the SQLite file path or PostgreSQL connection string.
	URL string `koanf:"url"`
}

// OracleConfig configures the language model boundary.
type OracleConfig struct {
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`
	MaxTurns int    `koanf:"max_turns"`
}

// GenerateConfig tunes artifact generation.
type GenerateConfig struct {
	// MinFrequency is the repetition threshold for documenting an item.
	MinFrequency int `koanf:"min_frequency"`
	// DocumentName is the file name used by the apply operation.
	DocumentName string `koanf:"document_name"`
	// Concurrency bounds parallel batch extraction.
	Concurrency int `koanf:"concurrency"`
}

// Load reads the configuration. configPath may be empty; environment
// variables always apply on top of the file.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// SESSMEM_STORE_DRIVER -> store.driver, SESSMEM_ORACLE_API_KEY ->
	// oracle.api_key. The first underscore separates section from field.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.URL == "" && cfg.Store.Driver == "sqlite" {
		cfg.Store.URL = ".data/memory.db"
	}
	if cfg.Oracle.APIKey == "" {
		cfg.Oracle.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Oracle.MaxTurns <= 0 {
		cfg.Oracle.MaxTurns = 30
	}
	if cfg.Generate.MinFrequency <= 0 {
		cfg.Generate.MinFrequency = 2
	}
	if cfg.Generate.DocumentName == "" {
		cfg.Generate.DocumentName = "AGENTS.md"
	}
	if cfg.Generate.Concurrency <= 0 {
		cfg.Generate.Concurrency = 2
	}
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return fmt.Errorf("store driver must be 'sqlite' or 'postgres', got %q", c.Store.Driver)
	}
	if c.Store.URL == "" {
		return fmt.Errorf("store url is required for the %s driver", c.Store.Driver)
	}
	return nil
}
