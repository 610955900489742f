package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if err := Validate(cfg); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
	if !cfg.Filter.PhoneDetection {
		t.Error("expected phone detection enabled by default")
	}
	if cfg.Enforcement.MaxTextLength != DefaultMaxTextLength {
		t.Errorf("expected max text length %d, got %d", DefaultMaxTextLength, cfg.Enforcement.MaxTextLength)
	}
	if cfg.Enforcement.BlockSeverity != "medium" {
		t.Errorf("expected block severity medium, got %q", cfg.Enforcement.BlockSeverity)
	}
	if cfg.Strikes.Weights["critical"] != 5 || cfg.Strikes.Weights["high"] != 3 || cfg.Strikes.Weights["medium"] != 1 {
		t.Errorf("unexpected default weights: %v", cfg.Strikes.Weights)
	}
	if cfg.Strikes.Window != 30*24*time.Hour {
		t.Errorf("expected 30 day window, got %v", cfg.Strikes.Window)
	}
	if !cfg.Moderation.Enabled || cfg.Moderation.Backend != "sqlite" {
		t.Errorf("expected sqlite moderation enabled, got enabled=%v backend=%q", cfg.Moderation.Enabled, cfg.Moderation.Backend)
	}
	if cfg.Moderation.Retention.Schedule != "0 3 * * *" {
		t.Errorf("expected retention schedule %q, got %q", "0 3 * * *", cfg.Moderation.Retention.Schedule)
	}
	if !cfg.Telemetry.Logging.RedactPII {
		t.Error("expected PII redaction enabled by default")
	}
}

func TestApplyDefaults_PreservesValues(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{ListenAddress: "0.0.0.0:9090", ReadTimeout: time.Minute},
		Strikes: StrikesConfig{Weights: map[string]int{"critical": 8}},
	}
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Error("existing listen address was overwritten")
	}
	if cfg.Server.ReadTimeout != time.Minute {
		t.Error("existing read timeout was overwritten")
	}
	if cfg.Strikes.Weights["critical"] != 8 {
		t.Error("existing weight was overwritten")
	}
	if cfg.Strikes.Weights["medium"] != 1 {
		t.Errorf("missing weight not defaulted: %v", cfg.Strikes.Weights)
	}

	ApplyDefaults(cfg)
	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Error("ApplyDefaults is not idempotent")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"

filter:
  phone_detection: false
  disabled_rules: [mild-profanity]

enforcement:
  max_text_length: 500
  block_severity: high

strikes:
  backend: sqlite
  threshold: 6
  weights:
    critical: 4

moderation:
  backend: memory
  retention:
    days: 30

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8080", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Filter.PhoneDetection {
		t.Error("expected phone detection disabled by file")
	}
	if len(cfg.Filter.DisabledRules) != 1 || cfg.Filter.DisabledRules[0] != "mild-profanity" {
		t.Errorf("unexpected disabled rules: %v", cfg.Filter.DisabledRules)
	}
	if cfg.Enforcement.BlockSeverity != "high" {
		t.Errorf("expected block severity high, got %q", cfg.Enforcement.BlockSeverity)
	}
	if cfg.Strikes.Weights["critical"] != 4 || cfg.Strikes.Weights["high"] != 3 {
		t.Errorf("unexpected weights: %v", cfg.Strikes.Weights)
	}
	if !cfg.Moderation.Enabled {
		t.Error("expected moderation to stay enabled when the file omits it")
	}
	if cfg.Moderation.Retention.Days != 30 {
		t.Errorf("expected 30 retention days, got %d", cfg.Moderation.Retention.Days)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected fs.ErrNotExist, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [unclosed")
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, `
enforcement:
  block_severity: low
telemetry:
  logging:
    level: loud
`)
		_, err := LoadConfig(path)
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(verr.Errors) != 2 {
			t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
		}
	})
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
`)

	t.Setenv("GUARDIAN_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")
	t.Setenv("GUARDIAN_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("GUARDIAN_FILTER_PHONE_DETECTION", "false")
	t.Setenv("GUARDIAN_FILTER_DISABLED_RULES", "mild-profanity, sexual-content,")
	t.Setenv("GUARDIAN_ENFORCEMENT_MAX_TEXT_LENGTH", "42")
	t.Setenv("GUARDIAN_STRIKES_THRESHOLD", "not-a-number")
	t.Setenv("GUARDIAN_TELEMETRY_TRACING_SAMPLE_RATIO", "0.5")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("expected env listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected 5s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Filter.PhoneDetection {
		t.Error("expected phone detection disabled by env")
	}
	if strings.Join(cfg.Filter.DisabledRules, ",") != "mild-profanity,sexual-content" {
		t.Errorf("unexpected disabled rules: %v", cfg.Filter.DisabledRules)
	}
	if cfg.Enforcement.MaxTextLength != 42 {
		t.Errorf("expected max text length 42, got %d", cfg.Enforcement.MaxTextLength)
	}
	if cfg.Strikes.Threshold != DefaultStrikesThreshold {
		t.Errorf("unparseable override should be ignored, got threshold %d", cfg.Strikes.Threshold)
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.5 {
		t.Errorf("expected sample ratio 0.5, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "watch without rules file",
			mutate:    func(c *Config) { c.Filter.Watch = true },
			wantField: "filter.watch",
		},
		{
			name:      "git without repository",
			mutate:    func(c *Config) { c.Filter.Git.Enabled = true },
			wantField: "filter.git.repository",
		},
		{
			name: "git path escapes repository",
			mutate: func(c *Config) {
				c.Filter.Git.Enabled = true
				c.Filter.Git.Repository = "https://example.com/rules.git"
				c.Filter.Git.Path = "../rules.yaml"
			},
			wantField: "filter.git.path",
		},
		{
			name: "git token auth without token",
			mutate: func(c *Config) {
				c.Filter.Git.Enabled = true
				c.Filter.Git.Repository = "https://example.com/rules.git"
				c.Filter.Git.Auth.Type = "token"
			},
			wantField: "filter.git.auth.token",
		},
		{
			name:      "non-positive max text length",
			mutate:    func(c *Config) { c.Enforcement.MaxTextLength = -1 },
			wantField: "enforcement.max_text_length",
		},
		{
			name:      "unknown strikes backend",
			mutate:    func(c *Config) { c.Strikes.Backend = "redis" },
			wantField: "strikes.backend",
		},
		{
			name:      "unknown weight severity",
			mutate:    func(c *Config) { c.Strikes.Weights["low"] = 1 },
			wantField: "strikes.weights.low",
		},
		{
			name:      "invalid cleanup schedule",
			mutate:    func(c *Config) { c.Strikes.CleanupSchedule = "every day" },
			wantField: "strikes.cleanup_schedule",
		},
		{
			name:      "unknown moderation backend",
			mutate:    func(c *Config) { c.Moderation.Backend = "postgres" },
			wantField: "moderation.backend",
		},
		{
			name:      "invalid retention schedule",
			mutate:    func(c *Config) { c.Moderation.Retention.Schedule = "0 3 * *" },
			wantField: "moderation.retention.schedule",
		},
		{
			name:      "default limit above max",
			mutate:    func(c *Config) { c.Moderation.Query.DefaultLimit = 20000 },
			wantField: "moderation.query.default_limit",
		},
		{
			name:      "invalid redact pattern",
			mutate:    func(c *Config) { c.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "bad", Pattern: "("}} },
			wantField: "telemetry.logging.redact_patterns[0].pattern",
		},
		{
			name:      "tracing without endpoint",
			mutate:    func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "sample ratio out of range",
			mutate:    func(c *Config) { c.Telemetry.Tracing.SampleRatio = 2 },
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:      "relative health path",
			mutate:    func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" },
			wantField: "telemetry.health.readiness_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := Defaults()
	cfg.Strikes.Enabled = false
	cfg.Strikes.Backend = "redis"
	cfg.Moderation.Enabled = false
	cfg.Moderation.Backend = "postgres"

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled sections should not be validated: %v", err)
	}
}

func TestValidationError_Format(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if got := multi.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("unexpected message %q", got)
	}
}

func TestSingleton(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if err := Initialize(missing, true); err != nil {
		t.Fatalf("Initialize with missing file allowed: %v", err)
	}
	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("GetConfig returned nil after Initialize")
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}

	path := writeConfig(t, "server:\n  listen_address: \"0.0.0.0:7000\"\n")
	if err := Initialize(path, false); err != nil {
		t.Fatalf("second Initialize should be a no-op: %v", err)
	}
	if GetConfig().Server.ListenAddress != DefaultListenAddress {
		t.Error("second Initialize replaced the configuration")
	}

	if err := ReloadConfig(path); err != nil {
		t.Fatalf("ReloadConfig: %v", err)
	}
	if MustGetConfig().Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("ReloadConfig did not replace the configuration")
	}

	bad := writeConfig(t, "enforcement:\n  block_severity: extreme\n")
	if err := ReloadConfig(bad); err == nil {
		t.Error("expected ReloadConfig to fail on invalid file")
	}
	if GetConfig().Server.ListenAddress != "0.0.0.0:7000" {
		t.Error("failed reload replaced the configuration")
	}
}

func TestSingleton_MissingFileNotAllowed(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	err := Initialize(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
	if GetConfig() != nil {
		t.Error("expected nil config after failed Initialize")
	}
}
