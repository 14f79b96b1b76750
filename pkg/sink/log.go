package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"mercator-hq/svnwatch/pkg/svn"
)

// LogSink reports every change as a structured log record. It is the
// default sink when nothing downstream is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging through logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "sink.log")}
}

// Submit logs change at info level.
func (s *LogSink) Submit(ctx context.Context, change *svn.Change) error {
	branch := change.Branch
	if branch == "" {
		branch = "trunk"
	}
	s.logger.InfoContext(ctx, "change detected",
		"repository", change.Repository,
		"revision", change.Revision,
		"branch", branch,
		"author", change.Author,
		"timestamp", change.Timestamp,
		"files", change.Files,
		"summary", firstLine(change.Message))
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error {
	return nil
}

// JSONLSink appends one JSON document per change to a writer.
type JSONLSink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewJSONLSink writes to w. Close does not close w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w}
}

// OpenJSONLSink appends to the file at path, creating it if needed.
// An empty path or "-" writes to standard output.
func OpenJSONLSink(path string) (*JSONLSink, error) {
	if path == "" || path == "-" {
		return NewJSONLSink(os.Stdout), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, NewStorageError("jsonl", "open", err)
	}
	return &JSONLSink{w: f, closer: f}, nil
}

// Submit writes change as a single line.
func (s *JSONLSink) Submit(ctx context.Context, change *svn.Change) error {
	line, err := json.Marshal(change)
	if err != nil {
		return NewStorageError("jsonl", "encode", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return NewStorageError("jsonl", "write", fmt.Errorf("r%d: %w", change.Revision, err))
	}
	return nil
}

// Close closes the underlying file, if the sink opened one.
func (s *JSONLSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
