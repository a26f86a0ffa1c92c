// Package config loads client configuration from environment variables
// and an optional JSON or YAML file. Environment variables take precedence
// over file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all client configuration.
type Config struct {
	API     APIConfig     `json:"api" yaml:"api"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`
	Redis   RedisConfig   `json:"redis" yaml:"redis"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

// APIConfig locates the remote rewards API.
type APIConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// StoreConfig locates the durable session store.
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// CacheConfig controls the last-good reference-data cache.
type CacheConfig struct {
	TTLSeconds int `json:"ttl_seconds" yaml:"ttl_seconds"`
}

// RedisConfig enables the shared Redis cache backend. When disabled the
// in-memory cache is used.
type RedisConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// TracingConfig controls OpenTelemetry tracing of API calls.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"` // Jaeger collector endpoint
	ServiceName string `json:"service_name" yaml:"service_name"`
	Environment string `json:"environment" yaml:"environment"`
}

// Load builds a Config from defaults, an optional config file, and
// environment variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 30,
		},
		Store: StoreConfig{
			Path: "./pointsnav.db",
		},
		Cache: CacheConfig{
			TTLSeconds: 300,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Tracing: TracingConfig{
			ServiceName: "pointsnav-client",
			Environment: "development",
		},
	}

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	overrideFromEnv(cfg)

	return cfg, nil
}

// loadFromFile loads configuration from a JSON or YAML file, selected by
// extension.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// overrideFromEnv overrides configuration with environment variables.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POINTSNAV_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("POINTSNAV_API_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.API.TimeoutSeconds = i
		}
	}
	if v := os.Getenv("POINTSNAV_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("POINTSNAV_CACHE_TTL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTLSeconds = i
		}
	}
	if v := os.Getenv("POINTSNAV_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = isTrue(v)
	}
	if v := os.Getenv("POINTSNAV_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("POINTSNAV_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("POINTSNAV_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = i
		}
	}
	if v := os.Getenv("POINTSNAV_TRACING_ENABLED"); v != "" {
		cfg.Tracing.Enabled = isTrue(v)
	}
	if v := os.Getenv("POINTSNAV_TRACING_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
	}
	if v := os.Getenv("POINTSNAV_TRACING_SERVICE"); v != "" {
		cfg.Tracing.ServiceName = v
	}
	if v := os.Getenv("POINTSNAV_TRACING_ENVIRONMENT"); v != "" {
		cfg.Tracing.Environment = v
	}
}

func isTrue(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base URL is required")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	return nil
}
