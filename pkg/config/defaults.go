package config

import (
	"os"
	"time"

	"github.com/ccollicutt/logwindow/pkg/dateparse"
)

// Default values for configuration.
const (
	DefaultCritical       = 1
	DefaultWarning        = 1
	DefaultTimePattern    = dateparse.DefaultFormat
	DefaultTimePosition   = 0
	DefaultOutput         = OutputText
	DefaultWebhookTimeout = 10 * time.Second
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// StdinPath is the conventional "read standard input" path, which cannot be
// globbed or scanned backward.
const StdinPath = "-"

// Environment variable names.
const (
	EnvTimePattern = "LOGWINDOW_TIME_PATTERN"
	EnvLogfile     = "LOGWINDOW_LOGFILE"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Critical:     DefaultCritical,
		Warning:      DefaultWarning,
		TimePattern:  DefaultTimePattern,
		TimePosition: DefaultTimePosition,
		Output:       DefaultOutput,
	}
}

// ApplyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvironmentOverrides() {
	if pattern := os.Getenv(EnvTimePattern); pattern != "" {
		c.TimePattern = pattern
	}
	if logfile := os.Getenv(EnvLogfile); logfile != "" {
		c.Logfile = logfile
	}
}
