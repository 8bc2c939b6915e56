package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the engine configuration, usually read from specnode.yaml.
type Config struct {
	// PolymorphicLimit caps the computed polymorphic depth bound.
	// Zero keeps the bound computed from the type lattice.
	PolymorphicLimit int `yaml:"polymorphic_limit,omitempty"`

	// EagerCollapse installs Generic in place of the entry for the last
	// unobserved shape the lattice predicts, so the chain never holds every
	// predicted shape at once.
	EagerCollapse bool `yaml:"eager_collapse,omitempty"`

	Diagnostics DiagnosticsConfig `yaml:"diagnostics,omitempty"`
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
}

// DiagnosticsConfig controls the instrumentation surface of dispatch nodes.
type DiagnosticsConfig struct {
	// Verbose materializes the shape/argument rendering on every
	// specialization change.
	Verbose bool `yaml:"verbose,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // json, console
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		PolymorphicLimit: DefaultPolymorphicLimit,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads and validates a configuration file.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.PolymorphicLimit < 0 {
		return fmt.Errorf("polymorphic_limit must be >= 0, got %d", c.PolymorphicLimit)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}
