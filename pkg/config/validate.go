package config

import (
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"trainerpass/guardian/pkg/filter"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateFilter(&cfg.Filter)...)
	errs = append(errs, validateEnforcement(&cfg.Enforcement)...)
	errs = append(errs, validateStrikes(&cfg.Strikes)...)
	errs = append(errs, validateModeration(&cfg.Moderation)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	durations := map[string]time.Duration{
		"server.read_timeout":     cfg.ReadTimeout,
		"server.write_timeout":    cfg.WriteTimeout,
		"server.idle_timeout":     cfg.IdleTimeout,
		"server.shutdown_timeout": cfg.ShutdownTimeout,
	}
	for _, field := range slices.Sorted(maps.Keys(durations)) {
		if durations[field] < 0 {
			errs = append(errs, FieldError{Field: field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	return errs
}

func validateFilter(cfg *FilterConfig) []FieldError {
	var errs []FieldError

	if cfg.Watch && cfg.RulesFile == "" && !cfg.Git.Enabled {
		errs = append(errs, FieldError{
			Field:   "filter.watch",
			Message: "watch requires filter.rules_file",
		})
	}
	if cfg.WatchDebounce < 0 {
		errs = append(errs, FieldError{
			Field:   "filter.watch_debounce",
			Message: "watch debounce must be positive",
		})
	}
	if cfg.Git.Enabled {
		errs = append(errs, validateGit(&cfg.Git)...)
	}
	for i, id := range cfg.DisabledRules {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("filter.disabled_rules[%d]", i),
				Message: "rule id must not be empty",
			})
		}
	}

	return errs
}

func validateGit(cfg *GitConfig) []FieldError {
	var errs []FieldError

	if cfg.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "filter.git.repository",
			Message: "repository is required when git is enabled",
		})
	}
	if cfg.Path == "" || filepath.IsAbs(cfg.Path) || strings.HasPrefix(filepath.Clean(cfg.Path), "..") {
		errs = append(errs, FieldError{
			Field:   "filter.git.path",
			Message: "path must be relative to the repository root",
		})
	}
	if cfg.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "filter.git.depth",
			Message: "depth must be >= 0",
		})
	}
	if cfg.PollInterval < time.Second {
		errs = append(errs, FieldError{
			Field:   "filter.git.poll_interval",
			Message: "poll interval must be at least 1s",
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "filter.git.timeout",
			Message: "timeout must be positive",
		})
	}

	switch cfg.Auth.Type {
	case "none":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{
				Field:   "filter.git.auth.token",
				Message: "token auth requires a token",
			})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{
				Field:   "filter.git.auth.ssh_key_path",
				Message: "ssh auth requires ssh_key_path",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "filter.git.auth.type",
			Message: fmt.Sprintf("unknown auth type %q (expected none, token or ssh)", cfg.Auth.Type),
		})
	}

	return errs
}

func validateEnforcement(cfg *EnforcementConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxTextLength <= 0 {
		errs = append(errs, FieldError{
			Field:   "enforcement.max_text_length",
			Message: "max text length must be positive",
		})
	}
	if _, err := filter.ParseSeverity(cfg.BlockSeverity); err != nil {
		errs = append(errs, FieldError{
			Field:   "enforcement.block_severity",
			Message: err.Error(),
		})
	}

	return errs
}

func validateStrikes(cfg *StrikesConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.Backend != "memory" && cfg.Backend != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "strikes.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "strikes.sqlite.path",
			Message: "sqlite path is required when backend is sqlite",
		})
	}
	if cfg.Window <= 0 {
		errs = append(errs, FieldError{
			Field:   "strikes.window",
			Message: "window must be positive",
		})
	}
	if cfg.Threshold <= 0 {
		errs = append(errs, FieldError{
			Field:   "strikes.threshold",
			Message: "threshold must be positive",
		})
	}
	for _, severity := range slices.Sorted(maps.Keys(cfg.Weights)) {
		field := "strikes.weights." + severity
		if _, err := filter.ParseSeverity(severity); err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
		}
		if cfg.Weights[severity] < 0 {
			errs = append(errs, FieldError{Field: field, Message: "weight must be non-negative"})
		}
	}
	if err := validateSchedule(cfg.CleanupSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "strikes.cleanup_schedule",
			Message: err.Error(),
		})
	}

	return errs
}

func validateModeration(cfg *ModerationConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "moderation.sqlite.path",
				Message: "sqlite path is required when backend is sqlite",
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 || cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "moderation.sqlite",
				Message: "connection limits must be non-negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "moderation.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.Recorder.AsyncBuffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "moderation.recorder.async_buffer",
			Message: "async buffer must be positive",
		})
	}
	if cfg.Recorder.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "moderation.recorder.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.Recorder.MaxMatchLength < 0 {
		errs = append(errs, FieldError{
			Field:   "moderation.recorder.max_match_length",
			Message: "max match length must be non-negative",
		})
	}

	if err := validateSchedule(cfg.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "moderation.retention.schedule",
			Message: err.Error(),
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "moderation.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.ArchiveBeforeDelete && cfg.Retention.ArchivePath == "" {
		errs = append(errs, FieldError{
			Field:   "moderation.retention.archive_path",
			Message: "archive path is required when archive_before_delete is enabled",
		})
	}

	if cfg.Query.DefaultLimit <= 0 || cfg.Query.MaxLimit <= 0 {
		errs = append(errs, FieldError{
			Field:   "moderation.query",
			Message: "query limits must be positive",
		})
	} else if cfg.Query.DefaultLimit > cfg.Query.MaxLimit {
		errs = append(errs, FieldError{
			Field:   "moderation.query.default_limit",
			Message: "default limit exceeds max limit",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text' or 'console'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		for i := 1; i < len(cfg.Metrics.ScanDurationBuckets); i++ {
			if cfg.Metrics.ScanDurationBuckets[i] <= cfg.Metrics.ScanDurationBuckets[i-1] {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.scan_duration_buckets",
					Message: "buckets must be strictly increasing",
				})
				break
			}
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never' or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Health.Enabled {
		paths := map[string]string{
			"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
			"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
			"telemetry.health.version_path":   cfg.Health.VersionPath,
		}
		for _, field := range slices.Sorted(maps.Keys(paths)) {
			if !strings.HasPrefix(paths[field], "/") {
				errs = append(errs, FieldError{Field: field, Message: "path must start with /"})
			}
		}
		if cfg.Health.CheckTimeout < 0 || cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be between 0 and 60s",
			})
		}
	}

	return errs
}

// validateSchedule checks a standard five-field cron expression.
func validateSchedule(spec string) error {
	if spec == "" {
		return fmt.Errorf("schedule is required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %v", spec, err)
	}
	return nil
}
