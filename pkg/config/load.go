package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SVNWATCH_"

// LoadConfig loads configuration from a YAML or TOML file at the specified
// path. The format is chosen by extension (.toml, otherwise YAML). It applies
// default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a file and applies
// environment variable overrides. Environment variables follow the naming
// convention SVNWATCH_SECTION_FIELD (e.g., SVNWATCH_SOURCE_PASSWORD).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Decode the file over the defaults
// 2. Apply default values to fields the file zeroed
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile reads and decodes path over Default().
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := Decode(data, formatFor(path), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Decode decodes data in the given format into cfg. Unknown keys are errors
// so that typos surface instead of silently falling back to defaults.
func Decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported configuration format %q", format)
	}
}

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// envOverride binds one environment variable to a config field.
type envOverride struct {
	key   string
	apply func(cfg *Config, val string) error
}

func stringField(get func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		*get(cfg) = val
		return nil
	}
}

func boolField(get func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*get(cfg) = b
		return nil
	}
}

func intField(get func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*get(cfg) = i
		return nil
	}
}

func floatField(get func(*Config) *float64) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		*get(cfg) = f
		return nil
	}
}

func durationField(get func(*Config) *Duration) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		d, err := ParseDuration(val)
		if err != nil {
			return err
		}
		*get(cfg) = d
		return nil
	}
}

var envOverrides = []envOverride{
	// Source
	{"SOURCE_URL", stringField(func(c *Config) *string { return &c.Source.URL })},
	{"SOURCE_USERNAME", stringField(func(c *Config) *string { return &c.Source.Username })},
	{"SOURCE_PASSWORD", stringField(func(c *Config) *string { return &c.Source.Password })},
	{"SOURCE_BINARY", stringField(func(c *Config) *string { return &c.Source.Binary })},
	{"SOURCE_POLL_INTERVAL", durationField(func(c *Config) *Duration { return &c.Source.PollInterval })},
	{"SOURCE_SCHEDULE", stringField(func(c *Config) *string { return &c.Source.Schedule })},
	{"SOURCE_HISTORY_LIMIT", intField(func(c *Config) *int { return &c.Source.HistoryLimit })},
	{"SOURCE_COMMAND_TIMEOUT", durationField(func(c *Config) *Duration { return &c.Source.CommandTimeout })},
	{"SOURCE_SPLITTER", stringField(func(c *Config) *string { return &c.Source.Splitter })},
	{"SOURCE_PROJECT", stringField(func(c *Config) *string { return &c.Source.Project })},
	{"SOURCE_RESUME_FROM_SINK", boolField(func(c *Config) *bool { return &c.Source.ResumeFromSink })},

	// Sink
	{"SINK_TYPE", stringField(func(c *Config) *string { return &c.Sink.Type })},
	{"SINK_PATH", stringField(func(c *Config) *string { return &c.Sink.Path })},
	{"SINK_SQLITE_DRIVER", stringField(func(c *Config) *string { return &c.Sink.SQLite.Driver })},
	{"SINK_SQLITE_PATH", stringField(func(c *Config) *string { return &c.Sink.SQLite.Path })},

	// Server
	{"SERVER_ENABLED", boolField(func(c *Config) *bool { return &c.Server.Enabled })},
	{"SERVER_LISTEN_ADDRESS", stringField(func(c *Config) *string { return &c.Server.ListenAddress })},
	{"SERVER_TRIGGER_RATE", floatField(func(c *Config) *float64 { return &c.Server.TriggerRate })},
	{"SERVER_TRIGGER_BURST", intField(func(c *Config) *int { return &c.Server.TriggerBurst })},

	// Telemetry
	{"TELEMETRY_LOGGING_LEVEL", stringField(func(c *Config) *string { return &c.Telemetry.Logging.Level })},
	{"TELEMETRY_LOGGING_FORMAT", stringField(func(c *Config) *string { return &c.Telemetry.Logging.Format })},
	{"TELEMETRY_METRICS_ENABLED", boolField(func(c *Config) *bool { return &c.Telemetry.Metrics.Enabled })},
	{"TELEMETRY_TRACING_ENABLED", boolField(func(c *Config) *bool { return &c.Telemetry.Tracing.Enabled })},
	{"TELEMETRY_TRACING_ENDPOINT", stringField(func(c *Config) *string { return &c.Telemetry.Tracing.Endpoint })},
	{"TELEMETRY_TRACING_SAMPLE_RATIO", floatField(func(c *Config) *float64 { return &c.Telemetry.Tracing.SampleRatio })},
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. A value that does not parse is an error rather than being
// ignored.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	for _, o := range envOverrides {
		val, ok := lookup(EnvPrefix + o.key)
		if !ok || val == "" {
			continue
		}
		if err := o.apply(cfg, val); err != nil {
			return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, o.key, err)
		}
	}
	return nil
}
