// Package config loads and validates relay.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Sentinel errors surfaced by the loader.
var (
	ErrInvalidYAML = errors.New("invalid YAML syntax")
)

// Config is the resolved runtime configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Stream   StreamConfig   `yaml:"stream"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// IngestTokenEnv names the environment variable holding the bearer token
	// required on ingest endpoints. Empty disables ingest auth.
	IngestTokenEnv string `yaml:"ingest_token_env"`

	// AllowedOrigins are CORS origins permitted to open SSE connections.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// HeartbeatInterval and WriteTimeout are duration strings ("15s", "1m").
	HeartbeatInterval string `yaml:"heartbeat_interval"`
	WriteTimeout      string `yaml:"write_timeout"`
}

// StreamConfig holds projection and fan-out settings.
type StreamConfig struct {
	IDPrefix         string `yaml:"id_prefix"`
	MaxChunkChars    int    `yaml:"max_chunk_chars"`
	SubscriberBuffer int    `yaml:"subscriber_buffer"`

	// RetentionTTL is how long finished stream records are kept.
	RetentionTTL string `yaml:"retention_ttl"`
}

// DatabaseConfig controls the optional stream metadata store.
type DatabaseConfig struct {
	Enabled bool `yaml:"enabled"`
}

// defaultConfig returns the built-in configuration.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			IngestTokenEnv:    "RELAY_INGEST_TOKEN",
			HeartbeatInterval: "15s",
			WriteTimeout:      "10s",
		},
		Stream: StreamConfig{
			IDPrefix:         "str",
			MaxChunkChars:    131072,
			SubscriberBuffer: 256,
			RetentionTTL:     "24h",
		},
	}
}

// Initialize loads, merges, and validates configuration from
// configDir/relay.yaml. A missing file yields the built-in defaults; a
// present file is merged on top of them.
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	cfg := defaultConfig()
	path := filepath.Join(configDir, "relay.yaml")

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.Info("No relay.yaml found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		data = ExpandEnv(data)

		var loaded Config
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		if err := mergo.Merge(cfg, &loaded, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge configuration: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized",
		"port", cfg.Server.Port,
		"database_enabled", cfg.Database.Enabled)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Stream.IDPrefix == "" {
		return errors.New("stream.id_prefix must not be empty")
	}
	if c.Stream.MaxChunkChars < 1 {
		return fmt.Errorf("stream.max_chunk_chars must be positive, got %d", c.Stream.MaxChunkChars)
	}
	if c.Stream.SubscriberBuffer < 1 {
		return fmt.Errorf("stream.subscriber_buffer must be positive, got %d", c.Stream.SubscriberBuffer)
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"server.heartbeat_interval", c.Server.HeartbeatInterval},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"stream.retention_ttl", c.Stream.RetentionTTL},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", field.name, field.value)
		}
	}
	return nil
}

// IngestToken resolves the ingest bearer token from the configured
// environment variable. Empty means ingest auth is disabled.
func (c *Config) IngestToken() string {
	if c.Server.IngestTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Server.IngestTokenEnv)
}

// HeartbeatInterval returns the parsed SSE heartbeat interval.
func (c *Config) HeartbeatInterval() time.Duration {
	return mustDuration(c.Server.HeartbeatInterval, 15*time.Second)
}

// WriteTimeout returns the parsed per-send write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return mustDuration(c.Server.WriteTimeout, 10*time.Second)
}

// RetentionTTL returns how long finished stream records are kept.
func (c *Config) RetentionTTL() time.Duration {
	return mustDuration(c.Stream.RetentionTTL, 24*time.Hour)
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// mustDuration parses a duration already checked by validate. The fallback
// only applies to Config values constructed outside Initialize (tests).
func mustDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
