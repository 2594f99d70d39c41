// Package config defines process configuration and its loading from file and
// environment.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/survcurve/pkg/survival"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Default input column names, used when a request does not name them.
	RiskColumn  string `koanf:"risk_column"`
	EventColumn string `koanf:"event_column"`
	TimeColumn  string `koanf:"time_column"`

	// Workers bounds how many horizon partitions are tabulated concurrently.
	Workers int `koanf:"workers"`

	// TieMode is "stable" or "distinct".
	TieMode string `koanf:"tie_mode"`

	// MaxHorizons and MaxObservations cap a single evaluation request.
	MaxHorizons     int `koanf:"max_horizons"`
	MaxObservations int `koanf:"max_observations"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		RiskColumn:      "risk",
		EventColumn:     "event",
		TimeColumn:      "time",
		Workers:         runtime.NumCPU(),
		TieMode:         survival.TieStable.String(),
		MaxHorizons:     1_000,
		MaxObservations: 5_000_000,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case c.RiskColumn == "" || c.EventColumn == "" || c.TimeColumn == "":
		return fmt.Errorf("column names must not be empty: %w", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("workers must be positive, got %d: %w", c.Workers, ErrInvalidConfig)
	case c.MaxHorizons < 1 || c.MaxObservations < 1:
		return fmt.Errorf("limits must be positive: %w", ErrInvalidConfig)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		return fmt.Errorf("log_format %q: %w", c.LogFormat, ErrInvalidConfig)
	}
	if _, err := survival.ParseTieMode(c.TieMode); err != nil {
		return fmt.Errorf("tie_mode: %w: %w", err, ErrInvalidConfig)
	}
	return nil
}
