package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config is the root configuration of svnwatch.
type Config struct {
	// Source describes the watched Subversion repository.
	Source SourceConfig `yaml:"source" toml:"source"`

	// Sink selects where detected changes are delivered.
	Sink SinkConfig `yaml:"sink" toml:"sink"`

	// Server configures the admin HTTP server.
	Server ServerConfig `yaml:"server" toml:"server"`

	// Telemetry configures logging, metrics, tracing and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// SourceConfig describes the repository and how it is polled.
type SourceConfig struct {
	// URL is the repository URL to watch, possibly below the repository root.
	// Example: "svn://svn.example.org/repo/project"
	URL string `yaml:"url" toml:"url"`

	// Username is passed to svn as --username.
	Username string `yaml:"username" toml:"username"`

	// Password is passed to svn as --password. Prefer SVNWATCH_SOURCE_PASSWORD.
	Password string `yaml:"password" toml:"password"`

	// Binary is the svn executable.
	// Default: "svn"
	Binary string `yaml:"binary" toml:"binary"`

	// PollInterval is the time between poll cycles.
	// Default: 10m
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval"`

	// Schedule is an optional cron expression used instead of PollInterval.
	Schedule string `yaml:"schedule" toml:"schedule"`

	// HistoryLimit is the number of log entries requested per cycle.
	// Default: 100
	HistoryLimit int `yaml:"history_limit" toml:"history_limit"`

	// CommandTimeout bounds a single svn invocation (0 = no timeout).
	// Default: 2m
	CommandTimeout Duration `yaml:"command_timeout" toml:"command_timeout"`

	// Splitter selects the branch policy: "none", "branches" or "project".
	// Default: "none"
	Splitter string `yaml:"splitter" toml:"splitter"`

	// Project is the top-level project directory for the "project" splitter.
	Project string `yaml:"project" toml:"project"`

	// ResumeFromSink seeds the watermark from the newest revision already
	// recorded by the sink, so a restart does not re-baseline.
	// Default: false
	ResumeFromSink bool `yaml:"resume_from_sink" toml:"resume_from_sink"`
}

// SinkConfig selects and configures the change sink.
type SinkConfig struct {
	// Type is one of "log", "jsonl", "sqlite", "memory".
	// Default: "log"
	Type string `yaml:"type" toml:"type"`

	// Path is the output file of the "jsonl" sink ("" or "-" = stdout).
	Path string `yaml:"path" toml:"path"`

	// SQLite configures the "sqlite" sink.
	SQLite SQLiteConfig `yaml:"sqlite" toml:"sqlite"`
}

// SQLiteConfig contains SQLite change store settings.
type SQLiteConfig struct {
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver" toml:"driver"`

	// Path is the database file.
	// Default: "data/changes.db"
	Path string `yaml:"path" toml:"path"`

	// MaxOpenConns limits the connection pool.
	// Default: 1
	MaxOpenConns int `yaml:"max_open_conns" toml:"max_open_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode" toml:"wal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout Duration `yaml:"busy_timeout" toml:"busy_timeout"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	// Enabled controls whether the admin server is started by "run".
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// ListenAddress is the host:port to bind.
	// Default: "127.0.0.1:8089"
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout Duration `yaml:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response. It must
	// cover a manual poll cycle.
	// Default: 5m
	WriteTimeout Duration `yaml:"write_timeout" toml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	// TriggerRate is the sustained rate of accepted POST /poll requests per second.
	// Default: 0.2
	TriggerRate float64 `yaml:"trigger_rate" toml:"trigger_rate"`

	// TriggerBurst is the number of POST /poll requests accepted at once.
	// Default: 1
	TriggerBurst int `yaml:"trigger_burst" toml:"trigger_burst"`
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`
	Health  HealthConfig  `yaml:"health" toml:"health"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level" toml:"level"`

	// Format is "json", "text" or "console".
	// Default: "json"
	Format string `yaml:"format" toml:"format"`

	// AddSource includes file and line in log records.
	AddSource bool `yaml:"add_source" toml:"add_source"`

	// RedactSecrets masks passwords and URL credentials.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets" toml:"redact_secrets"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" toml:"path"`

	// Namespace is the metric name prefix.
	// Default: "svnwatch"
	Namespace string `yaml:"namespace" toml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "poller"
	Subsystem string `yaml:"subsystem" toml:"subsystem"`

	// CycleDurationBuckets defines histogram buckets for cycle duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120]
	CycleDurationBuckets []float64 `yaml:"cycle_duration_buckets" toml:"cycle_duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler" toml:"sampler"`

	// SampleRatio is the fraction of traces sampled when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint" toml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "svnwatch"
	ServiceName string `yaml:"service_name" toml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure" toml:"insecure"`

	// Timeout is the OTLP export timeout.
	// Default: 10s
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// HealthConfig contains health endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path" toml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path" toml:"readiness_path"`

	// CheckTimeout is the timeout for individual readiness checks.
	// Default: 5s
	CheckTimeout Duration `yaml:"check_timeout" toml:"check_timeout"`

	// MaxConsecutiveFailures is the number of aborted cycles in a row after
	// which the poller is reported not ready (negative disables the check).
	// Default: 3
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures" toml:"max_consecutive_failures"`
}

// Duration is a time.Duration that decodes from strings such as "10m" in
// both YAML and TOML. A bare integer is read as seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDuration parses s as a Go duration or a number of seconds.
func ParseDuration(s string) (Duration, error) {
	if s == "" {
		return 0, nil
	}
	if parsed, err := time.ParseDuration(s); err == nil {
		return Duration(parsed), nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(time.Duration(secs) * time.Second), nil
}
