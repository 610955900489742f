package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = 262144  // 256KB

	// Filter defaults
	DefaultFilterWatch          = false
	DefaultFilterWatchDebounce  = 250 * time.Millisecond
	DefaultFilterPhoneDetection = true
	DefaultGitBranch            = "main"
	DefaultGitPath              = "rules.yaml"
	DefaultGitLocalPath         = "data/rules-repo"
	DefaultGitPollInterval      = time.Minute
	DefaultGitTimeout           = 30 * time.Second
	DefaultGitAuthType          = "none"

	// Enforcement defaults
	DefaultMaxTextLength = 10000
	DefaultBlockSeverity = "medium"

	// Strikes defaults
	DefaultStrikesEnabled            = true
	DefaultStrikesBackend            = "memory"
	DefaultStrikesWindow             = 30 * 24 * time.Hour
	DefaultStrikesThreshold          = 10
	DefaultStrikesCleanupSchedule    = "30 3 * * *"
	DefaultStrikesSQLitePath         = "data/strikes.db"
	DefaultStrikesSQLiteBusyTimeout  = 5 * time.Second
	DefaultStrikesCheckpointInterval = 5 * time.Minute

	// Moderation defaults
	DefaultModerationEnabled              = true
	DefaultModerationBackend              = "sqlite"
	DefaultModerationSQLitePath           = "data/moderation.db"
	DefaultModerationSQLiteMaxOpenConns   = 10
	DefaultModerationSQLiteMaxIdleConns   = 5
	DefaultModerationSQLiteWALMode        = true
	DefaultModerationSQLiteBusyTimeout    = 5 * time.Second
	DefaultModerationRecorderAsyncBuffer  = 1000
	DefaultModerationRecorderWriteTimeout = 5 * time.Second
	DefaultModerationRecorderMaxMatchLen  = 200
	DefaultModerationRetentionDays        = 90
	DefaultModerationRetentionSchedule    = "0 3 * * *"
	DefaultModerationRetentionArchivePath = "data/archives/"
	DefaultModerationQueryDefaultLimit    = 100
	DefaultModerationQueryMaxLimit        = 10000
	DefaultModerationQueryTimeout         = 30 * time.Second
	DefaultModerationExportJSONPretty     = true
	DefaultModerationExportCSVHeader      = true

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultLoggingRedactPII    = true
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "guardian"
	DefaultMetricsSubsystem    = "filter"
	DefaultMaxRuleCardinality  = 100
	DefaultTracingEnabled      = false
	DefaultTracingSampler      = "ratio"
	DefaultTracingSampleRatio  = 0.1
	DefaultTracingServiceName  = "guardian"
	DefaultTracingOTLPInsecure = true
	DefaultTracingOTLPTimeout  = 10 * time.Second
	DefaultHealthEnabled       = true
	DefaultHealthLivenessPath  = "/health"
	DefaultHealthReadinessPath = "/ready"
	DefaultHealthVersionPath   = "/version"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// DefaultStrikeWeights returns the default strike points per severity.
func DefaultStrikeWeights() map[string]int {
	return map[string]int{
		"critical": 5,
		"high":     3,
		"medium":   1,
	}
}

// DefaultScanDurationBuckets returns the default scan duration histogram buckets.
func DefaultScanDurationBuckets() []float64 {
	return []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}
}

// Defaults returns a fully populated configuration. LoadConfig decodes YAML
// on top of it, so boolean fields that default to true keep their default
// unless the file sets them explicitly.
func Defaults() *Config {
	cfg := &Config{
		Filter: FilterConfig{
			Watch:          DefaultFilterWatch,
			PhoneDetection: DefaultFilterPhoneDetection,
		},
		Strikes: StrikesConfig{
			Enabled: DefaultStrikesEnabled,
		},
		Moderation: ModerationConfig{
			Enabled: DefaultModerationEnabled,
			SQLite: SQLiteConfig{
				WALMode: DefaultModerationSQLiteWALMode,
			},
			Export: ExportConfig{
				JSONPretty:       DefaultModerationExportJSONPretty,
				CSVIncludeHeader: DefaultModerationExportCSVHeader,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				RedactPII: DefaultLoggingRedactPII,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Enabled: DefaultTracingEnabled,
				OTLP: OTLPConfig{
					Insecure: DefaultTracingOTLPInsecure,
				},
			},
			Health: HealthConfig{
				Enabled: DefaultHealthEnabled,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for any non-boolean fields that have zero
// values. It is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Filter defaults
	if cfg.Filter.WatchDebounce == 0 {
		cfg.Filter.WatchDebounce = DefaultFilterWatchDebounce
	}
	if cfg.Filter.Git.Branch == "" {
		cfg.Filter.Git.Branch = DefaultGitBranch
	}
	if cfg.Filter.Git.Path == "" {
		cfg.Filter.Git.Path = DefaultGitPath
	}
	if cfg.Filter.Git.LocalPath == "" {
		cfg.Filter.Git.LocalPath = DefaultGitLocalPath
	}
	if cfg.Filter.Git.PollInterval == 0 {
		cfg.Filter.Git.PollInterval = DefaultGitPollInterval
	}
	if cfg.Filter.Git.Timeout == 0 {
		cfg.Filter.Git.Timeout = DefaultGitTimeout
	}
	if cfg.Filter.Git.Auth.Type == "" {
		cfg.Filter.Git.Auth.Type = DefaultGitAuthType
	}

	// Enforcement defaults
	if cfg.Enforcement.MaxTextLength == 0 {
		cfg.Enforcement.MaxTextLength = DefaultMaxTextLength
	}
	if cfg.Enforcement.BlockSeverity == "" {
		cfg.Enforcement.BlockSeverity = DefaultBlockSeverity
	}

	// Strikes defaults
	if cfg.Strikes.Backend == "" {
		cfg.Strikes.Backend = DefaultStrikesBackend
	}
	if cfg.Strikes.Window == 0 {
		cfg.Strikes.Window = DefaultStrikesWindow
	}
	if cfg.Strikes.Threshold == 0 {
		cfg.Strikes.Threshold = DefaultStrikesThreshold
	}
	if cfg.Strikes.Weights == nil {
		cfg.Strikes.Weights = DefaultStrikeWeights()
	} else {
		for severity, weight := range DefaultStrikeWeights() {
			if _, ok := cfg.Strikes.Weights[severity]; !ok {
				cfg.Strikes.Weights[severity] = weight
			}
		}
	}
	if cfg.Strikes.CleanupSchedule == "" {
		cfg.Strikes.CleanupSchedule = DefaultStrikesCleanupSchedule
	}
	if cfg.Strikes.SQLite.Path == "" {
		cfg.Strikes.SQLite.Path = DefaultStrikesSQLitePath
	}
	if cfg.Strikes.SQLite.BusyTimeout == 0 {
		cfg.Strikes.SQLite.BusyTimeout = DefaultStrikesSQLiteBusyTimeout
	}
	if cfg.Strikes.SQLite.CheckpointInterval == 0 {
		cfg.Strikes.SQLite.CheckpointInterval = DefaultStrikesCheckpointInterval
	}

	// Moderation defaults
	if cfg.Moderation.Backend == "" {
		cfg.Moderation.Backend = DefaultModerationBackend
	}
	if cfg.Moderation.SQLite.Path == "" {
		cfg.Moderation.SQLite.Path = DefaultModerationSQLitePath
	}
	if cfg.Moderation.SQLite.MaxOpenConns == 0 {
		cfg.Moderation.SQLite.MaxOpenConns = DefaultModerationSQLiteMaxOpenConns
	}
	if cfg.Moderation.SQLite.MaxIdleConns == 0 {
		cfg.Moderation.SQLite.MaxIdleConns = DefaultModerationSQLiteMaxIdleConns
	}
	if cfg.Moderation.SQLite.BusyTimeout == 0 {
		cfg.Moderation.SQLite.BusyTimeout = DefaultModerationSQLiteBusyTimeout
	}
	if cfg.Moderation.Recorder.AsyncBuffer == 0 {
		cfg.Moderation.Recorder.AsyncBuffer = DefaultModerationRecorderAsyncBuffer
	}
	if cfg.Moderation.Recorder.WriteTimeout == 0 {
		cfg.Moderation.Recorder.WriteTimeout = DefaultModerationRecorderWriteTimeout
	}
	if cfg.Moderation.Recorder.MaxMatchLength == 0 {
		cfg.Moderation.Recorder.MaxMatchLength = DefaultModerationRecorderMaxMatchLen
	}
	if cfg.Moderation.Retention.Days == 0 {
		cfg.Moderation.Retention.Days = DefaultModerationRetentionDays
	}
	if cfg.Moderation.Retention.Schedule == "" {
		cfg.Moderation.Retention.Schedule = DefaultModerationRetentionSchedule
	}
	if cfg.Moderation.Retention.ArchivePath == "" {
		cfg.Moderation.Retention.ArchivePath = DefaultModerationRetentionArchivePath
	}
	if cfg.Moderation.Query.DefaultLimit == 0 {
		cfg.Moderation.Query.DefaultLimit = DefaultModerationQueryDefaultLimit
	}
	if cfg.Moderation.Query.MaxLimit == 0 {
		cfg.Moderation.Query.MaxLimit = DefaultModerationQueryMaxLimit
	}
	if cfg.Moderation.Query.Timeout == 0 {
		cfg.Moderation.Query.Timeout = DefaultModerationQueryTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.ScanDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.ScanDurationBuckets = DefaultScanDurationBuckets()
	}
	if cfg.Telemetry.Metrics.MaxRuleCardinality == 0 {
		cfg.Telemetry.Metrics.MaxRuleCardinality = DefaultMaxRuleCardinality
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultTracingOTLPTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultHealthVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
