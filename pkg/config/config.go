package config

import (
	"fmt"
	"strings"
)

// Config is the top-level configuration structure. All fields have working
// defaults; an empty file is a valid configuration.
type Config struct {
	// Logging controls the global zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics controls the optional Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Read carries defaults for read operations
	Read ReadConfig `yaml:"read" json:"read"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level"`
	// Encoding is json or console
	Encoding string `yaml:"encoding" json:"encoding"`
	// Development enables human-friendly output and warn-level stack traces
	Development bool `yaml:"development" json:"development"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics handler on
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Listen is the host:port the handler binds to
	Listen string `yaml:"listen" json:"listen"`
}

// ReadConfig carries defaults applied to every read operation.
type ReadConfig struct {
	// Aliases maps additional file suffixes onto registered format names,
	// extending the built-in table (hdf5 -> h5, segy -> sgy, pickle -> pkl)
	Aliases map[string]string `yaml:"aliases" json:"aliases"`
	// MetadataOnly skips sample materialization unless overridden per call
	MetadataOnly bool `yaml:"metadata_only" json:"metadata_only"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:       "info",
			Encoding:    "json",
			Development: false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
		Read: ReadConfig{
			Aliases:      make(map[string]string),
			MetadataOnly: false,
		},
	}
}

// Validate validates the configuration for correctness.
// The CLI calls this after loading configuration to catch errors early.
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("logging.encoding must be json or console")
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics are enabled")
	}
	for alias, target := range c.Read.Aliases {
		if alias == "" || target == "" {
			return fmt.Errorf("read.aliases entries must map a non-empty suffix to a non-empty format")
		}
		if strings.ContainsAny(alias, "./ ") || strings.ContainsAny(target, "./ ") {
			return fmt.Errorf("read.aliases %q -> %q: suffixes are written without dots or paths", alias, target)
		}
	}
	return nil
}
