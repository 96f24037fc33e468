package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Store.URL == "" {
		t.Error("sqlite URL default missing")
	}
	if cfg.Oracle.MaxTurns != 30 {
		t.Errorf("MaxTurns = %d, want 30", cfg.Oracle.MaxTurns)
	}
	if cfg.Generate.MinFrequency != 2 {
		t.Errorf("MinFrequency = %d, want 2", cfg.Generate.MinFrequency)
	}
	if cfg.Generate.DocumentName != "AGENTS.md" {
		t.Errorf("DocumentName = %q, want AGENTS.md", cfg.Generate.DocumentName)
	}
	if cfg.Generate.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Generate.Concurrency)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  driver: postgres
  url: postgres://localhost/mem
oracle:
  model: gemini-2.5-pro
  max_turns: 10
generate:
  min_frequency: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != "postgres" || cfg.Store.URL != "postgres://localhost/mem" {
		t.Errorf("store config = %+v", cfg.Store)
	}
	if cfg.Oracle.Model != "gemini-2.5-pro" || cfg.Oracle.MaxTurns != 10 {
		t.Errorf("oracle config = %+v", cfg.Oracle)
	}
	if cfg.Generate.MinFrequency != 3 {
		t.Errorf("MinFrequency = %d, want 3", cfg.Generate.MinFrequency)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  driver: sqlite\n  url: file.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SESSMEM_STORE_URL", "env.db")
	t.Setenv("SESSMEM_ORACLE_API_KEY", "key-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.URL != "env.db" {
		t.Errorf("URL = %q, want env override", cfg.Store.URL)
	}
	if cfg.Oracle.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q, want env value", cfg.Oracle.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid sqlite", func(c *Config) {}, false},
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, true},
		{"missing url", func(c *Config) { c.Store.URL = "" }, true},
		{"valid postgres", func(c *Config) {
			c.Store.Driver = "postgres"
			c.Store.URL = "postgres://localhost/mem"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
