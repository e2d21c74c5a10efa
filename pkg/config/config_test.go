package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logfile = "/var/log/app.log"
	cfg.Pattern = `foo[-_]+bar`
	cfg.Interval = 5
	return cfg
}

func TestLoad_YAML(t *testing.T) {
	content := `
logfile: /var/log/app.log
pattern: 'ERROR|FATAL'
interval: 15
critical: 10
warning: 3
time_pattern: "%b %d %H:%M:%S"
time_position: 1
`
	path := writeTempFile(t, "check.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logfile != "/var/log/app.log" {
		t.Errorf("Logfile = %q, want %q", cfg.Logfile, "/var/log/app.log")
	}
	if cfg.Interval != 15 {
		t.Errorf("Interval = %d, want 15", cfg.Interval)
	}
	if cfg.Critical != 10 || cfg.Warning != 3 {
		t.Errorf("thresholds = %d/%d, want 10/3", cfg.Critical, cfg.Warning)
	}
	if cfg.TimePattern != "%b %d %H:%M:%S" {
		t.Errorf("TimePattern = %q", cfg.TimePattern)
	}
	if cfg.TimePosition != 1 {
		t.Errorf("TimePosition = %d, want 1", cfg.TimePosition)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	content := `
logfile = "/var/log/app.log"
pattern = "timeout"
interval = 2

[[webhooks]]
name = "ops"
url = "https://example.com/hook"
trigger = "always"
timeout = "3s"
`
	path := writeTempFile(t, "check.toml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pattern != "timeout" {
		t.Errorf("Pattern = %q, want %q", cfg.Pattern, "timeout")
	}
	if cfg.Critical != DefaultCritical {
		t.Errorf("Critical = %d, want default %d", cfg.Critical, DefaultCritical)
	}
	if len(cfg.Webhooks) != 1 {
		t.Fatalf("Webhooks = %d, want 1", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Timeout.Std() != 3*time.Second {
		t.Errorf("Webhook timeout = %v, want 3s", cfg.Webhooks[0].Timeout.Std())
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerAlways {
		t.Errorf("Webhook trigger = %v, want always", cfg.Webhooks[0].Trigger)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/check.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeTempFile(t, "typo.yaml", "logfil: /var/log/app.log\n")
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for unknown field")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTempFile(t, "invalid.toml", `logfile = `)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for invalid TOML")
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeTempFile(t, "empty.yaml", "")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TimePattern != DefaultTimePattern {
		t.Errorf("TimePattern = %q, want default", cfg.TimePattern)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvTimePattern, "%d/%b/%Y:%H:%M:%S")
	t.Setenv(EnvLogfile, "/srv/log/web.log")

	path := writeTempFile(t, "check.yaml", "logfile: /var/log/app.log\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TimePattern != "%d/%b/%Y:%H:%M:%S" {
		t.Errorf("TimePattern = %q, want env override", cfg.TimePattern)
	}
	if cfg.Logfile != "/srv/log/web.log" {
		t.Errorf("Logfile = %q, want env override", cfg.Logfile)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "no logfile", modify: func(c *Config) { c.Logfile = "" }, want: ErrLogfileRequired},
		{name: "no pattern", modify: func(c *Config) { c.Pattern = "" }, want: ErrPatternRequired},
		{name: "zero interval", modify: func(c *Config) { c.Interval = 0 }, want: ErrIntervalInvalid},
		{name: "stdin", modify: func(c *Config) { c.Logfile = "-" }, want: ErrStdinUnsupported},
		{name: "zero critical", modify: func(c *Config) { c.Critical = 0 }, want: ErrThresholdInvalid},
		{name: "zero warning", modify: func(c *Config) { c.Warning = 0 }, want: ErrThresholdInvalid},
		{name: "negative position", modify: func(c *Config) { c.TimePosition = -1 }, want: ErrTimePositionInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			if err := Validate(cfg); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate_ErrorMessages(t *testing.T) {
	if ErrLogfileRequired.Error() != "no -logfile" {
		t.Errorf("ErrLogfileRequired = %q", ErrLogfileRequired)
	}
	if ErrPatternRequired.Error() != "no -pattern" {
		t.Errorf("ErrPatternRequired = %q", ErrPatternRequired)
	}
}

func TestValidate_InvalidPattern(t *testing.T) {
	cfg := validConfig()
	cfg.Pattern = `[invalid`
	if err := Validate(cfg); err == nil {
		t.Error("Validate() expected error for invalid regex")
	}
}

func TestValidate_InvalidTimePattern(t *testing.T) {
	cfg := validConfig()
	cfg.TimePattern = "%Q"
	if err := Validate(cfg); err == nil {
		t.Error("Validate() expected error for unsupported directive")
	}
}

func TestValidate_InvalidOutput(t *testing.T) {
	cfg := validConfig()
	cfg.Output = "xml"
	if err := Validate(cfg); err == nil {
		t.Error("Validate() expected error for unknown output format")
	}
}

func TestValidate_Compiles(t *testing.T) {
	cfg := validConfig()
	cfg.TimePattern = ""
	cfg.Output = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.CompiledPattern() == nil {
		t.Error("CompiledPattern() is nil")
	}
	if !cfg.CompiledPattern().MatchString("foo__bar") {
		t.Error("CompiledPattern() does not match foo__bar")
	}
	if cfg.Format() == nil || cfg.Format().String() != DefaultTimePattern {
		t.Errorf("Format() = %v, want default format", cfg.Format())
	}
	if cfg.Output != OutputText {
		t.Errorf("Output = %q, want %q", cfg.Output, OutputText)
	}
	if cfg.IntervalDuration() != 5*time.Minute {
		t.Errorf("IntervalDuration() = %v, want 5m", cfg.IntervalDuration())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if cfg.Critical != 1 || cfg.Warning != 1 {
		t.Errorf("thresholds = %d/%d, want 1/1", cfg.Critical, cfg.Warning)
	}
	if cfg.TimePattern != "%Y-%m-%d %H:%M:%S" {
		t.Errorf("TimePattern = %q", cfg.TimePattern)
	}
	if cfg.TimePosition != 0 {
		t.Errorf("TimePosition = %d, want 0", cfg.TimePosition)
	}
}

// ============================================================================
// Webhook Validation Tests
// ============================================================================

func TestValidate_Webhook(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
		wantErr bool
	}{
		{name: "https", webhook: WebhookConfig{URL: "https://example.com/webhook"}},
		{name: "http", webhook: WebhookConfig{URL: "http://localhost:8080/webhook"}},
		{name: "missing url", webhook: WebhookConfig{Name: "no-url"}, wantErr: true},
		{name: "ftp scheme", webhook: WebhookConfig{URL: "ftp://example.com/webhook"}, wantErr: true},
		{name: "no host", webhook: WebhookConfig{URL: "https:///path"}, wantErr: true},
		{name: "invalid trigger", webhook: WebhookConfig{URL: "https://example.com", Trigger: "on_issues"}, wantErr: true},
		{name: "always", webhook: WebhookConfig{URL: "https://example.com", Trigger: WebhookTriggerAlways}},
		{name: "never", webhook: WebhookConfig{URL: "https://example.com", Trigger: WebhookTriggerNever}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Webhooks = []WebhookConfig{tt.webhook}
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Webhook_Defaults(t *testing.T) {
	cfg := validConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/webhook"}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerOnAlert {
		t.Errorf("Default trigger = %v, want %v", cfg.Webhooks[0].Trigger, WebhookTriggerOnAlert)
	}
	if cfg.Webhooks[0].Timeout.Std() != DefaultWebhookTimeout {
		t.Errorf("Default timeout = %v, want %v", cfg.Webhooks[0].Timeout.Std(), DefaultWebhookTimeout)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		if got := expandEnvVar(tt.input); got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoad_WithWebhooks(t *testing.T) {
	content := `
logfile: /var/log/app.log
pattern: ERROR
interval: 5
webhooks:
  - name: test-webhook
    url: "https://example.com/webhook"
    trigger: on_alert
    timeout: 30s
  - url: "https://backup.example.com/webhook"
    trigger: always
`
	path := writeTempFile(t, "check-with-webhooks.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Webhooks) != 2 {
		t.Fatalf("Webhooks = %d, want 2", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Name != "test-webhook" {
		t.Errorf("Webhook[0].Name = %q, want %q", cfg.Webhooks[0].Name, "test-webhook")
	}
	if cfg.Webhooks[0].Timeout.Std() != 30*time.Second {
		t.Errorf("Webhook[0].Timeout = %v, want 30s", cfg.Webhooks[0].Timeout.Std())
	}
	if cfg.Webhooks[1].Trigger != WebhookTriggerAlways {
		t.Errorf("Webhook[1].Trigger = %v, want %v", cfg.Webhooks[1].Trigger, WebhookTriggerAlways)
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Errorf("Std() = %v, want 1m30s", d.Std())
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("MarshalText() = %q, want %q", text, "1m30s")
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("UnmarshalText() expected error for invalid duration")
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
