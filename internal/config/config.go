// Package config provides configuration management with hot-reload support.
// It uses fsnotify to watch for file changes and atomic pointer swaps for
// zero-downtime updates.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Session   SessionConfig   `yaml:"session"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Market    MarketConfig    `yaml:"market"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig contains PostgreSQL settings. An empty DSN selects the
// in-memory backends.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig contains Redis cache settings. Disabled by default; the
// cache then runs on the configured database or in memory.
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`
}

// CacheConfig contains analysis cache settings.
type CacheConfig struct {
	// DefaultTTL applies when a write does not carry its own TTL.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// SweepInterval is how often expired entries and sessions are purged
	// in the background. Zero disables the ticker; expiry is still
	// enforced lazily on read.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// SessionConfig contains session registry settings.
type SessionConfig struct {
	// TTL is the sliding inactivity window after which a session and its
	// analyses are discarded.
	TTL time.Duration `yaml:"ttl"`
}

// EmbeddingConfig contains embedding generator settings.
type EmbeddingConfig struct {
	Enabled   bool          `yaml:"enabled"`
	APIKey    string        `yaml:"api_key"`
	APIBase   string        `yaml:"api_base"`
	Model     string        `yaml:"model"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MarketConfig contains market data provider settings.
type MarketConfig struct {
	// QuoteTTL is how long fetched quotes stay cached in process.
	QuoteTTL time.Duration `yaml:"quote_ttl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`     // OTLP endpoint (e.g., "localhost:4317")
	ServiceName string  `yaml:"service_name"` // Service name for traces
	SampleRate  float64 `yaml:"sample_rate"`  // Sampling rate (0.0 to 1.0)
	Insecure    bool    `yaml:"insecure"`     // Use insecure connection (no TLS)
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:   false,
			Addr:      "localhost:6379",
			Namespace: "fundlens",
		},
		Cache: CacheConfig{
			DefaultTTL:    time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Session: SessionConfig{
			TTL: time.Hour,
		},
		Embedding: EmbeddingConfig{
			Enabled:   false,
			APIBase:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			Timeout:   30 * time.Second,
		},
		Market: MarketConfig{
			QuoteTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "fundlens",
			SampleRate:  1.0,
			Insecure:    true,
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl cannot be negative")
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache.sweep_interval cannot be negative")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl cannot be negative")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Embedding.Enabled {
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required when embedding is enabled")
		}
		if c.Embedding.Dimension <= 0 {
			return fmt.Errorf("embedding.dimension must be positive")
		}
	}
	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0")
		}
	}
	return nil
}
