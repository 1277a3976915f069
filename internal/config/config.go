package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Auth           AuthConfig           `yaml:"auth"`
	Worker         WorkerConfig         `yaml:"worker"`
	Log            LogConfig            `yaml:"log"`
	Catalog        CatalogConfig        `yaml:"catalog"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	EventRetention     Duration `yaml:"event_retention"`
	CompactionInterval Duration `yaml:"compaction_interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CatalogConfig points at an optional recipe file imported at startup.
type CatalogConfig struct {
	SeedPath string `yaml:"seed_path"`
}

// RateLimitConfig limits event ingestion per client IP. Zero disables it.
type RateLimitConfig struct {
	EventsPerMinute int `yaml:"events_per_minute"`
}

// RecommendationConfig tunes pattern derivation.
type RecommendationConfig struct {
	CategoryCount int `yaml:"category_count"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
func Load() (*Config, error) {
	return load(true)
}

// LoadLocal loads configuration for offline CLI commands, which never
// serve HTTP and so do not need an API key.
func LoadLocal() (*Config, error) {
	return load(false)
}

func load(requireAuth bool) (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("LARDER_CONFIG_PATH", "config/larder.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(requireAuth); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(true); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DevMode reports whether LARDER_DEV_MODE is enabled.
func DevMode() bool {
	return os.Getenv("LARDER_DEV_MODE") == "true"
}

func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/larder.db",
		},
		Worker: WorkerConfig{
			EventRetention:     Duration(90 * 24 * time.Hour),
			CompactionInterval: Duration(6 * time.Hour),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			EventsPerMinute: 120,
		},
		Recommendation: RecommendationConfig{
			CategoryCount: 8,
		},
	}
}

func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("LARDER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	overrideDuration("LARDER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	overrideDuration("LARDER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	overrideDuration("LARDER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	if v := os.Getenv("LARDER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LARDER_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Worker
	overrideDuration("LARDER_EVENT_RETENTION", &cfg.Worker.EventRetention)
	overrideDuration("LARDER_COMPACTION_INTERVAL", &cfg.Worker.CompactionInterval)

	// Log
	if v := os.Getenv("LARDER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LARDER_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv("LARDER_CATALOG_SEED_PATH"); v != "" {
		cfg.Catalog.SeedPath = v
	}
	if v := os.Getenv("LARDER_EVENTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.EventsPerMinute = n
		}
	}
	if v := os.Getenv("LARDER_CATEGORY_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Recommendation.CategoryCount = n
		}
	}
}

func overrideDuration(key string, target *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = Duration(d)
		}
	}
}

// validate checks required values and ranges.
// In dev mode (LARDER_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate(requireAuth bool) error {
	if c.Recommendation.CategoryCount <= 0 {
		return errors.New("recommendation.category_count must be positive")
	}
	if c.RateLimit.EventsPerMinute < 0 {
		return errors.New("rate_limit.events_per_minute must not be negative")
	}
	if c.Worker.EventRetention <= 0 {
		return errors.New("worker.event_retention must be positive")
	}
	if c.Worker.CompactionInterval <= 0 {
		return errors.New("worker.compaction_interval must be positive")
	}

	if !requireAuth || DevMode() {
		return nil
	}
	if c.Auth.APIKey == "" {
		return errors.New("LARDER_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
