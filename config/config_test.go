package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.API.TimeoutSeconds)
	}
	if cfg.Cache.TTLSeconds != 300 {
		t.Errorf("TTLSeconds = %d, want 300", cfg.Cache.TTLSeconds)
	}
	if cfg.Redis.Enabled || cfg.Tracing.Enabled {
		t.Error("redis and tracing must default to disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"api": {"base_url": "https://rewards.example.com", "timeout_seconds": 10}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "https://rewards.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d, want 10", cfg.API.TimeoutSeconds)
	}
	// Untouched sections keep their defaults.
	if cfg.Store.Path != "./pointsnav.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api:\n  base_url: https://rewards.example.com\nredis:\n  enabled: true\n  addr: redis:6379\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "https://rewards.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"api": {"base_url": "https://from-file"}}`), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("POINTSNAV_API_URL", "https://from-env")
	t.Setenv("POINTSNAV_CACHE_TTL", "60")
	t.Setenv("POINTSNAV_TRACING_ENABLED", "true")
	t.Setenv("POINTSNAV_TRACING_ENDPOINT", "http://jaeger:14268/api/traces")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "https://from-env" {
		t.Errorf("BaseURL = %q, env must win over the file", cfg.API.BaseURL)
	}
	if cfg.Cache.TTLSeconds != 60 {
		t.Errorf("TTLSeconds = %d, want 60", cfg.Cache.TTLSeconds)
	}
	if !cfg.Tracing.Enabled {
		t.Error("tracing should be enabled from env")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.API.TimeoutSeconds = 0 }},
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTLSeconds = 0 }},
		{"redis enabled without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }},
		{"tracing enabled without endpoint", func(c *Config) { c.Tracing.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
