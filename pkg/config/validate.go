package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/svnwatch/pkg/svn"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "source.url").
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
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateSource(&cfg.Source)...)
	errs = append(errs, validateSink(&cfg.Sink)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

var supportedSchemes = map[string]bool{
	"svn": true, "svn+ssh": true, "http": true, "https": true, "file": true,
}

func validateSource(cfg *SourceConfig) []FieldError {
	var errs []FieldError

	if cfg.URL == "" {
		errs = append(errs, FieldError{Field: "source.url", Message: "repository url is required"})
	} else if u, err := url.Parse(cfg.URL); err != nil {
		errs = append(errs, FieldError{Field: "source.url", Message: fmt.Sprintf("invalid url: %v", err)})
	} else if !supportedSchemes[u.Scheme] {
		errs = append(errs, FieldError{
			Field:   "source.url",
			Message: fmt.Sprintf("unsupported scheme %q (must be svn, svn+ssh, http, https or file)", u.Scheme),
		})
	} else if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			errs = append(errs, FieldError{Field: "source.url", Message: "credentials must not be embedded in the url; use source.username and source.password"})
		}
	}

	if cfg.Binary == "" {
		errs = append(errs, FieldError{Field: "source.binary", Message: "svn binary is required"})
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{Field: "source.schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
		}
	} else if cfg.PollInterval <= 0 {
		errs = append(errs, FieldError{Field: "source.poll_interval", Message: "poll interval must be positive"})
	}
	if cfg.HistoryLimit <= 0 {
		errs = append(errs, FieldError{Field: "source.history_limit", Message: "history limit must be positive"})
	}
	if cfg.CommandTimeout < 0 {
		errs = append(errs, FieldError{Field: "source.command_timeout", Message: "command timeout must be non-negative"})
	}
	if _, err := svn.SplitterByName(cfg.Splitter, cfg.Project); err != nil {
		errs = append(errs, FieldError{Field: "source.splitter", Message: err.Error()})
	}

	return errs
}

func validateSink(cfg *SinkConfig) []FieldError {
	var errs []FieldError

	switch cfg.Type {
	case "log", "jsonl", "memory":
	case "sqlite":
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "sink.sqlite.driver",
				Message: fmt.Sprintf("unsupported driver %q (must be sqlite or sqlite3)", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "sink.sqlite.path", Message: "database path is required"})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{Field: "sink.sqlite.max_open_conns", Message: "must be non-negative"})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{Field: "sink.sqlite.busy_timeout", Message: "must be non-negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "sink.type",
			Message: fmt.Sprintf("unsupported sink type %q (must be log, jsonl, sqlite or memory)", cfg.Type),
		})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be non-negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be non-negative"})
	}
	if cfg.TriggerRate < 0 {
		errs = append(errs, FieldError{Field: "server.trigger_rate", Message: "trigger rate must be non-negative"})
	}
	if cfg.TriggerBurst < 1 {
		errs = append(errs, FieldError{Field: "server.trigger_burst", Message: "trigger burst must be at least 1"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json, text or console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with /"})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be always, never or ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0 and 1"})
		}
	}

	if !strings.HasPrefix(cfg.Health.LivenessPath, "/") {
		errs = append(errs, FieldError{Field: "telemetry.health.liveness_path", Message: "path must start with /"})
	}
	if !strings.HasPrefix(cfg.Health.ReadinessPath, "/") {
		errs = append(errs, FieldError{Field: "telemetry.health.readiness_path", Message: "path must start with /"})
	}

	return errs
}
