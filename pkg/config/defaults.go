package config

import "time"

// Default values for configuration fields.
const (
	// Source defaults
	DefaultBinary         = "svn"
	DefaultPollInterval   = Duration(10 * time.Minute)
	DefaultHistoryLimit   = 100
	DefaultCommandTimeout = Duration(2 * time.Minute)
	DefaultSplitter       = "none"

	// Sink defaults
	DefaultSinkType           = "log"
	DefaultSQLiteDriver       = "sqlite"
	DefaultSQLitePath         = "data/changes.db"
	DefaultSQLiteMaxOpenConns = 1
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = Duration(5 * time.Second)

	// Server defaults
	DefaultServerEnabled   = true
	DefaultListenAddress   = "127.0.0.1:8089"
	DefaultReadTimeout     = Duration(10 * time.Second)
	DefaultWriteTimeout    = Duration(5 * time.Minute)
	DefaultShutdownTimeout = Duration(15 * time.Second)
	DefaultTriggerRate     = 0.2
	DefaultTriggerBurst    = 1

	// Telemetry defaults
	DefaultLoggingLevel           = "info"
	DefaultLoggingFormat          = "json"
	DefaultRedactSecrets          = true
	DefaultMetricsEnabled         = true
	DefaultMetricsPath            = "/metrics"
	DefaultMetricsNamespace       = "svnwatch"
	DefaultMetricsSubsystem       = "poller"
	DefaultTracingEnabled         = false
	DefaultTracingSampler         = "always"
	DefaultTracingSampleRatio     = 1.0
	DefaultTracingServiceName     = "svnwatch"
	DefaultTracingInsecure        = true
	DefaultTracingTimeout         = Duration(10 * time.Second)
	DefaultLivenessPath           = "/healthz"
	DefaultReadinessPath          = "/readyz"
	DefaultHealthCheckTimeout     = Duration(5 * time.Second)
	DefaultMaxConsecutiveFailures = 3
)

// DefaultCycleDurationBuckets covers a fast local repository up to a slow
// remote one (100ms - 2m).
var DefaultCycleDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// Default returns a configuration with every field at its default. Files are
// decoded on top of it, which keeps boolean defaults that a file leaves out.
func Default() *Config {
	cfg := &Config{
		Sink: SinkConfig{
			SQLite: SQLiteConfig{WALMode: DefaultSQLiteWALMode},
		},
		Server: ServerConfig{Enabled: DefaultServerEnabled},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactSecrets: DefaultRedactSecrets},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{
				Enabled:  DefaultTracingEnabled,
				Insecure: DefaultTracingInsecure,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Source defaults
	if cfg.Source.Binary == "" {
		cfg.Source.Binary = DefaultBinary
	}
	if cfg.Source.PollInterval == 0 {
		cfg.Source.PollInterval = DefaultPollInterval
	}
	if cfg.Source.HistoryLimit == 0 {
		cfg.Source.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.Source.CommandTimeout == 0 {
		cfg.Source.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.Source.Splitter == "" {
		cfg.Source.Splitter = DefaultSplitter
	}

	// Sink defaults
	if cfg.Sink.Type == "" {
		cfg.Sink.Type = DefaultSinkType
	}
	if cfg.Sink.SQLite.Driver == "" {
		cfg.Sink.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Sink.SQLite.Path == "" {
		cfg.Sink.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Sink.SQLite.MaxOpenConns == 0 {
		cfg.Sink.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Sink.SQLite.BusyTimeout == 0 {
		cfg.Sink.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

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
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.TriggerRate == 0 {
		cfg.Server.TriggerRate = DefaultTriggerRate
	}
	if cfg.Server.TriggerBurst == 0 {
		cfg.Server.TriggerBurst = DefaultTriggerBurst
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.CycleDurationBuckets) == 0 {
		t.Metrics.CycleDurationBuckets = append([]float64(nil), DefaultCycleDurationBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if t.Health.MaxConsecutiveFailures == 0 {
		t.Health.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
}
