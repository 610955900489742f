package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "GUARDIAN_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Defaults, so omitted fields keep their
// default values. The result is validated; environment variables are not
// consulted (see LoadConfigWithEnvOverrides).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GUARDIAN_SECTION_FIELD (e.g., GUARDIAN_SERVER_LISTEN_ADDRESS)
// and always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file on top of defaults
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadDefaultsWithEnvOverrides builds a configuration from defaults and
// environment variables only. It is used when no configuration file exists.
func LoadDefaultsWithEnvOverrides() (*Config, error) {
	cfg := Defaults()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	if val := os.Getenv(EnvPrefix + "SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}

	// Filter overrides
	envString("FILTER_RULES_FILE", &cfg.Filter.RulesFile)
	envBool("FILTER_WATCH", &cfg.Filter.Watch)
	envDuration("FILTER_WATCH_DEBOUNCE", &cfg.Filter.WatchDebounce)
	envBool("FILTER_PHONE_DETECTION", &cfg.Filter.PhoneDetection)
	if val := os.Getenv(EnvPrefix + "FILTER_DISABLED_RULES"); val != "" {
		cfg.Filter.DisabledRules = splitList(val)
	}
	envBool("FILTER_GIT_ENABLED", &cfg.Filter.Git.Enabled)
	envString("FILTER_GIT_REPOSITORY", &cfg.Filter.Git.Repository)
	envString("FILTER_GIT_BRANCH", &cfg.Filter.Git.Branch)
	envString("FILTER_GIT_AUTH_TOKEN", &cfg.Filter.Git.Auth.Token)

	// Enforcement overrides
	envInt("ENFORCEMENT_MAX_TEXT_LENGTH", &cfg.Enforcement.MaxTextLength)
	envString("ENFORCEMENT_BLOCK_SEVERITY", &cfg.Enforcement.BlockSeverity)

	// Strikes overrides
	envBool("STRIKES_ENABLED", &cfg.Strikes.Enabled)
	envString("STRIKES_BACKEND", &cfg.Strikes.Backend)
	envDuration("STRIKES_WINDOW", &cfg.Strikes.Window)
	envInt("STRIKES_THRESHOLD", &cfg.Strikes.Threshold)
	envString("STRIKES_CLEANUP_SCHEDULE", &cfg.Strikes.CleanupSchedule)
	envString("STRIKES_SQLITE_PATH", &cfg.Strikes.SQLite.Path)

	// Moderation overrides
	envBool("MODERATION_ENABLED", &cfg.Moderation.Enabled)
	envString("MODERATION_BACKEND", &cfg.Moderation.Backend)
	envString("MODERATION_SQLITE_PATH", &cfg.Moderation.SQLite.Path)
	envBool("MODERATION_RECORDER_REDACT_MATCHES", &cfg.Moderation.Recorder.RedactMatches)
	envInt("MODERATION_RETENTION_DAYS", &cfg.Moderation.Retention.Days)
	envString("MODERATION_RETENTION_SCHEDULE", &cfg.Moderation.Retention.Schedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT_PII", &cfg.Telemetry.Logging.RedactPII)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
