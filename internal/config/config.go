package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all kwangun configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Reading store
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Mangle query layer
	Mangle MangleConfig `yaml:"mangle"`

	// Batch derivation
	Derive DeriveConfig `yaml:"derive"`

	// Optional symbol table overrides
	Rules RulesConfig `yaml:"rules"`
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "kwangun",
		Version: "0.3.0",

		Store: StoreConfig{
			Driver: DriverModernc,
			Path:   "data/kwangun.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},

		Mangle: MangleConfig{
			FactLimit:    200000,
			QueryTimeout: "30s",
		},

		Derive: DeriveConfig{
			Workers: 4,
		},
	}
}

// DefaultPath is where `config init` writes and the CLI reads by default.
const DefaultPath = "kwangun.yaml"

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("KWANGUN_DB"); path != "" {
		c.Store.Path = path
	}
	if driver := os.Getenv("KWANGUN_DB_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}
	if level := os.Getenv("KWANGUN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	// Non-numeric values are ignored and Validate sees the file value.
	if w := os.Getenv("KWANGUN_WORKERS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil {
			c.Derive.Workers = n
		}
	}
}

// GetQueryTimeout returns the Mangle query timeout as a duration.
func (c *Config) GetQueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Mangle.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidDrivers, c.Store.Driver) {
		return fmt.Errorf("%w: store driver %q (valid: %v)", ErrInvalidConfig, c.Store.Driver, ValidDrivers)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store path is empty (set store.path or KWANGUN_DB)", ErrInvalidConfig)
	}
	if c.Logging.Level != "" && !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("%w: log level %q (valid: %v)", ErrInvalidConfig, c.Logging.Level, ValidLogLevels)
	}
	if c.Derive.Workers < 0 {
		return fmt.Errorf("%w: derive workers must be >= 0, got %d", ErrInvalidConfig, c.Derive.Workers)
	}
	if c.Mangle.FactLimit < 0 {
		return fmt.Errorf("%w: mangle fact_limit must be >= 0, got %d", ErrInvalidConfig, c.Mangle.FactLimit)
	}
	if c.Mangle.QueryTimeout != "" {
		if _, err := time.ParseDuration(c.Mangle.QueryTimeout); err != nil {
			return fmt.Errorf("%w: mangle query_timeout: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
