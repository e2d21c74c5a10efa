// Package config provides configuration loading and validation for logwindow checks.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ccollicutt/logwindow/pkg/dateparse"
)

// Config is one check definition. It is built from defaults, an optional
// YAML or TOML file and command-line flags, and is read-only once Validate
// has succeeded.
type Config struct {
	// Logfile is the file name base; every file matching Logfile+"*" is a candidate.
	Logfile string `yaml:"logfile" toml:"logfile"`

	// Pattern is the regular expression counted lines must match.
	Pattern string `yaml:"pattern" toml:"pattern"`

	// Interval is the window length in minutes.
	Interval int `yaml:"interval" toml:"interval"`

	Critical int `yaml:"critical" toml:"critical"`
	Warning  int `yaml:"warning" toml:"warning"`

	// TimePattern is the strftime format of the date embedded in each line.
	TimePattern string `yaml:"time_pattern" toml:"time_pattern"`

	// TimePosition is the zero-based word offset of the date in a line.
	TimePosition int `yaml:"time_position" toml:"time_position"`

	Debug   bool `yaml:"debug,omitempty" toml:"debug,omitempty"`
	Verbose bool `yaml:"verbose,omitempty" toml:"verbose,omitempty"`

	// Output selects the report format: text or json.
	Output string `yaml:"output,omitempty" toml:"output,omitempty"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" toml:"webhooks,omitempty"`

	// Populated during validation
	compiledPattern *regexp.Regexp
	format          *dateparse.Format
}

// CompiledPattern returns the pre-compiled match pattern.
func (c *Config) CompiledPattern() *regexp.Regexp {
	return c.compiledPattern
}

// Format returns the compiled time pattern.
func (c *Config) Format() *dateparse.Format {
	return c.format
}

// IntervalDuration returns Interval as a duration.
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Minute
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnAlert fires when the check is not OK (default).
	WebhookTriggerOnAlert WebhookTrigger = "on_alert"
	// WebhookTriggerAlways fires after every check.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint the check report is posted to.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" toml:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`

	// Trigger defaults to "on_alert" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout, for example "5s".
	// Defaults to 10s if not specified.
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Duration is a time.Duration written as a Go duration string in config files.
type Duration time.Duration

// UnmarshalText parses strings like "10s" or "1m30s".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration the way UnmarshalText reads it.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
