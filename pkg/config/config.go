package config

import "time"

// Config is the root configuration structure for Guardian.
// It contains all configuration sections for the HTTP server, the content
// filter, enforcement, strike tracking, moderation records and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and request size limits.
	Server ServerConfig `yaml:"server"`

	// Filter contains content filter configuration: the optional rule-set
	// file, hot reload and phone detection.
	Filter FilterConfig `yaml:"filter"`

	// Enforcement controls how filter decisions are turned into actions.
	Enforcement EnforcementConfig `yaml:"enforcement"`

	// Strikes contains repeat-offender tracking configuration.
	Strikes StrikesConfig `yaml:"strikes"`

	// Moderation contains configuration for moderation record storage,
	// recording, retention, query and export.
	Moderation ModerationConfig `yaml:"moderation"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes is the maximum size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes is the maximum size of a request body.
	// Default: 262144 (256KB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// FilterConfig contains content filter configuration.
type FilterConfig struct {
	// RulesFile is an optional YAML rule-set file that adds, disables or
	// replaces rules. Empty means the built-in rule table.
	RulesFile string `yaml:"rules_file"`

	// Watch enables hot reload of RulesFile on change.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period before a changed rule file is reloaded.
	// Default: 250ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// PhoneDetection enables the phone-number detector.
	// Default: true
	PhoneDetection bool `yaml:"phone_detection"`

	// DisabledRules lists rule IDs to remove from the active table.
	DisabledRules []string `yaml:"disabled_rules"`

	// Git fetches the rule-set file from a Git repository and polls it for
	// new commits. When enabled, RulesFile is resolved inside the clone.
	Git GitConfig `yaml:"git"`
}

// GitConfig contains configuration for a Git-hosted rule-set file.
type GitConfig struct {
	// Enabled turns on the Git rule source.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Repository is the clone URL (https, ssh or a local path).
	Repository string `yaml:"repository"`

	// Branch is the branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path is the rule-set file, relative to the repository root.
	// Default: "rules.yaml"
	Path string `yaml:"path"`

	// LocalPath is where the repository is cloned.
	// Default: "data/rules-repo"
	LocalPath string `yaml:"local_path"`

	// Depth limits clone history. 0 clones the full history.
	Depth int `yaml:"depth"`

	// PollInterval is how often the remote is checked for new commits.
	// Default: 1m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds a single clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Auth contains repository credentials.
	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig contains Git credentials.
type GitAuthConfig struct {
	// Type is the authentication method.
	// Options: "none", "token", "ssh"
	// Default: "none"
	Type string `yaml:"type"`

	// Token is an HTTPS access token. Prefer GUARDIAN_FILTER_GIT_AUTH_TOKEN.
	Token string `yaml:"token"`

	// SSHKeyPath is the private key used for ssh URLs.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase unlocks an encrypted SSH key.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// EnforcementConfig controls how decisions become actions.
type EnforcementConfig struct {
	// MaxTextLength is the largest submission, in characters, that is scanned.
	// Longer texts are rejected before scanning.
	// Default: 10000
	MaxTextLength int `yaml:"max_text_length"`

	// BlockSeverity is the lowest severity that rejects a submission.
	// Violations below it are allowed but flagged for review.
	// Options: "critical", "high", "medium"
	// Default: "medium"
	BlockSeverity string `yaml:"block_severity"`
}

// StrikesConfig contains repeat-offender tracking configuration.
type StrikesConfig struct {
	// Enabled controls whether violations add strikes to their author.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend specifies the strike ledger backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Window is the trailing period over which strike points are summed.
	// Default: 720h (30 days)
	Window time.Duration `yaml:"window"`

	// Threshold is the number of points at which an author is restricted.
	// Default: 10
	Threshold int `yaml:"threshold"`

	// Weights maps severity to strike points.
	// Default: critical=5, high=3, medium=1
	Weights map[string]int `yaml:"weights"`

	// CleanupSchedule is a cron expression for deleting strikes older than Window.
	// Default: "30 3 * * *"
	CleanupSchedule string `yaml:"cleanup_schedule"`

	// SQLite contains SQLite ledger configuration.
	SQLite StrikesSQLiteConfig `yaml:"sqlite"`
}

// StrikesSQLiteConfig contains SQLite strike ledger configuration.
type StrikesSQLiteConfig struct {
	// Path is the path to the SQLite database file.
	// Default: "data/strikes.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// ModerationConfig contains configuration for moderation records.
type ModerationConfig struct {
	// Enabled controls whether violations are recorded for review.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend specifies the storage backend for moderation records.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Query contains query configuration.
	Query QueryConfig `yaml:"query"`

	// Export contains export configuration.
	Export ExportConfig `yaml:"export"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/moderation.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains moderation recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is how long to wait for buffer space before dropping a record.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RedactMatches masks the matched text in stored records.
	// Default: false
	RedactMatches bool `yaml:"redact_matches"`

	// MaxMatchLength truncates stored matches.
	// Default: 200
	MaxMatchLength int `yaml:"max_match_length"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain moderation records.
	// A negative value disables age-based pruning.
	// Default: 90
	Days int `yaml:"days"`

	// Schedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`

	// ArchiveBeforeDelete writes pruned records to a JSON archive first.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory to store archives.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`

	// MaxRecords is the maximum number of records to keep. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// QueryConfig contains query configuration.
type QueryConfig struct {
	// DefaultLimit is the number of records returned when no limit is given.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps the number of records returned by one query.
	// Default: 10000
	MaxLimit int `yaml:"max_limit"`

	// Timeout is the query execution timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ExportConfig contains export configuration.
type ExportConfig struct {
	// JSONPretty enables pretty-printing for JSON exports.
	// Default: true
	JSONPretty bool `yaml:"json_pretty"`

	// CSVIncludeHeader includes a header row in CSV exports.
	// Default: true
	CSVIncludeHeader bool `yaml:"csv_include_header"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables redaction of emails, phone numbers, IP addresses and
	// tokens in log output.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "guardian"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "filter"
	Subsystem string `yaml:"subsystem"`

	// ScanDurationBuckets defines histogram buckets for scan duration (seconds).
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1]
	ScanDurationBuckets []float64 `yaml:"scan_duration_buckets"`

	// MaxRuleCardinality caps distinct rule_id label values; extra rules are
	// reported as "other".
	// Default: 100
	MaxRuleCardinality int `yaml:"max_rule_cardinality"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP/gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "guardian"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
