package sink

import (
	"fmt"
	"log/slog"
)

// Sink types accepted by New.
const (
	TypeLog    = "log"
	TypeJSONL  = "jsonl"
	TypeSQLite = "sqlite"
	TypeMemory = "memory"
)

// Config selects and configures a sink.
type Config struct {
	// Type is one of TypeLog, TypeJSONL, TypeSQLite or TypeMemory
	Type string

	// Path is the output file of the jsonl sink ("-" for stdout)
	Path string

	// SQLite configures the sqlite sink
	SQLite SQLiteConfig
}

// New builds the sink described by cfg.
func New(cfg Config, logger *slog.Logger) (Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Type {
	case "", TypeLog:
		return NewLogSink(logger), nil
	case TypeJSONL:
		return OpenJSONLSink(cfg.Path)
	case TypeSQLite:
		s, err := NewSQLiteSink(&cfg.SQLite)
		if err != nil {
			return nil, err
		}
		s.SetLogger(logger)
		return s, nil
	case TypeMemory:
		return NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}
