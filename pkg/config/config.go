package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/logwindow/pkg/dateparse"
)

// Configuration errors. Their messages are what monitoring users have
// always seen, so keep them stable.
var (
	ErrLogfileRequired     = errors.New("no -logfile")
	ErrPatternRequired     = errors.New("no -pattern")
	ErrIntervalInvalid     = errors.New("interval needs to be set and be >= 1")
	ErrStdinUnsupported    = errors.New("stdin as path is not supported")
	ErrThresholdInvalid    = errors.New("thresholds need to be >= 1")
	ErrTimePositionInvalid = errors.New("timeposition needs to be >= 0")
)

// Load reads a check definition on top of the defaults. YAML is assumed
// unless the file ends in .toml. Environment overrides are applied, but the
// result is not validated: callers merge flags first and then Validate.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ApplyEnvironmentOverrides()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}

// Validate checks a configuration for errors and compiles the match pattern
// and time pattern.
func Validate(cfg *Config) error {
	if cfg.Logfile == "" {
		return ErrLogfileRequired
	}
	if cfg.Pattern == "" {
		return ErrPatternRequired
	}
	if cfg.Interval < 1 {
		return ErrIntervalInvalid
	}
	if cfg.Logfile == StdinPath {
		return ErrStdinUnsupported
	}
	if cfg.Critical < 1 || cfg.Warning < 1 {
		return fmt.Errorf("%w (critical %d, warning %d)", ErrThresholdInvalid, cfg.Critical, cfg.Warning)
	}
	if cfg.TimePosition < 0 {
		return ErrTimePositionInvalid
	}

	re, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	cfg.compiledPattern = re

	if cfg.TimePattern == "" {
		cfg.TimePattern = DefaultTimePattern
	}
	format, err := dateparse.Compile(cfg.TimePattern)
	if err != nil {
		return fmt.Errorf("invalid timepattern: %w", err)
	}
	cfg.format = format

	switch cfg.Output {
	case "":
		cfg.Output = DefaultOutput
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("invalid output %q (must be text or json)", cfg.Output)
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnAlert
	case WebhookTriggerOnAlert, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_alert, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = Duration(DefaultWebhookTimeout)
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}
	return s
}
