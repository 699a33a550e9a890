// Package config handles loading and validating Clawboard configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func init() {
	// Load .env file if it exists.
	_ = godotenv.Load()
}

// Config is the root configuration for Clawboard.
type Config struct {
	Server        ServerConfig         `json:"server" yaml:"server"`
	Gateway       GatewayConfig        `json:"gateway" yaml:"gateway"`
	Cache         *CacheConfig         `json:"cache,omitempty" yaml:"cache,omitempty"`                 // nil = in-memory cache
	Warmer        *WarmerConfig        `json:"warmer,omitempty" yaml:"warmer,omitempty"`               // nil = no background warm
	Observability *ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"` // nil = observability disabled
	Logging       LoggingConfig        `json:"logging" yaml:"logging"`
}

// ServerConfig configures the HTTP API surface.
type ServerConfig struct {
	ListenAddr string            `json:"listen_addr" yaml:"listen_addr"` // Default ":8089".
	APIKeys    map[string]string `json:"api_keys" yaml:"api_keys"`       // API key → user ID. CLAWBOARD_API_KEY adds key → "admin".
	EnableDocs bool              `json:"enable_docs" yaml:"enable_docs"`
}

// GatewayConfig holds the process-default OpenClaw gateway settings. A
// request may override them per call; these serve callers without stored
// settings of their own.
type GatewayConfig struct {
	URL          string `json:"url" yaml:"url"`
	Token        string `json:"token" yaml:"token"`
	AllowPrivate bool   `json:"allow_private" yaml:"allow_private"` // Permit localhost gateways (single-box setups).
}

// CacheConfig configures the distributed config-cache tier.
// When nil, an in-process memory store is used.
type CacheConfig struct {
	Driver     string `json:"driver" yaml:"driver"`                 // "memory" (default), "sqlite", "postgres".
	Path       string `json:"path,omitempty" yaml:"path,omitempty"` // SQLite file path.
	DSN        string `json:"dsn,omitempty" yaml:"dsn,omitempty"`   // PostgreSQL DSN. Override: CLAWBOARD_DB_DSN.
	TTLSeconds int    `json:"ttl_seconds" yaml:"ttl_seconds"`       // Default 120.
}

// CacheDriver returns the configured driver, defaulting to "memory".
func (c *CacheConfig) CacheDriver() string {
	if c != nil && c.Driver != "" {
		return c.Driver
	}
	return "memory"
}

// TTL returns the cache TTL, defaulting to 120 seconds.
func (c *CacheConfig) TTL() time.Duration {
	if c != nil && c.TTLSeconds > 0 {
		return time.Duration(c.TTLSeconds) * time.Second
	}
	return 120 * time.Second
}

// WarmerConfig configures the background config-cache warmer.
type WarmerConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Schedule string `json:"schedule" yaml:"schedule"` // Cron spec. Default "@every 90s", inside the cache TTL.
}

// CronSchedule returns the warm schedule, defaulting to "@every 90s".
func (w *WarmerConfig) CronSchedule() string {
	if w != nil && w.Schedule != "" {
		return w.Schedule
	}
	return "@every 90s"
}

// ObservabilityConfig configures metrics and tracing.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Tracing *TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"` // Default: "/metrics"
}

// TracingConfig configures OpenTelemetry tracing via OTLP.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	ServiceName string  `json:"service_name" yaml:"service_name"` // Default: "clawboard"
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // OTLP endpoint, host:port.
	Protocol    string  `json:"protocol" yaml:"protocol"`         // "grpc" (default) or "http".
	Insecure    bool    `json:"insecure" yaml:"insecure"`
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"` // Default 1.0.
}

// LoggingConfig configures the slog handler built in cmd.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // "debug", "info" (default), "warn", "error".
	Format string `json:"format" yaml:"format"` // "text" (default) or "json".
}

// DefaultConfigPath returns ~/.clawboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".clawboard", "config.yaml")
}

// Load reads the config file at path, applies environment overrides, and
// validates the result. A missing file is not an error: env-only setups are
// supported.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Env-only configuration.
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8089"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLAWBOARD_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("CLAWBOARD_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Token = v
	}
	if v := os.Getenv("CLAWBOARD_API_KEY"); v != "" {
		if cfg.Server.APIKeys == nil {
			cfg.Server.APIKeys = make(map[string]string)
		}
		cfg.Server.APIKeys[v] = "admin"
	}
	if v := os.Getenv("CLAWBOARD_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("CLAWBOARD_DB_DSN"); v != "" {
		if cfg.Cache == nil {
			cfg.Cache = &CacheConfig{}
		}
		cfg.Cache.Driver = "postgres"
		cfg.Cache.DSN = v
	}
}

func (c *Config) validate() error {
	switch c.Cache.CacheDriver() {
	case "memory":
	case "sqlite":
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Cache.DSN == "" {
			return fmt.Errorf("cache.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	return nil
}
