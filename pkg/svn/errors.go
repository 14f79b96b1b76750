package svn

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleInFlight is returned by Poll when a previous cycle has not finished.
// The trigger is dropped; the next one picks up the backlog.
var ErrCycleInFlight = errors.New("poll cycle already in flight")

// ExecutionError means the svn binary could not be started or exited non-zero.
type ExecutionError struct {
	// Binary is the executable that was invoked
	Binary string

	// Args are the arguments with credentials redacted
	Args []string

	// Stderr holds whatever the command wrote to standard error
	Stderr string

	// ExitCode is the process exit status, or -1 if it never ran
	ExitCode int

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	cmd := strings.TrimSpace(e.Binary + " " + strings.Join(e.Args, " "))
	stderr := strings.TrimSpace(e.Stderr)
	if stderr != "" {
		return fmt.Sprintf("command %q failed (exit %d): %v: %s", cmd, e.ExitCode, e.Err, stderr)
	}
	return fmt.Sprintf("command %q failed (exit %d): %v", cmd, e.ExitCode, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ParseError means a command produced output that is not the expected XML.
// Raw is kept for diagnostics only.
type ParseError struct {
	// Document names what was being parsed ("info", "log")
	Document string

	// Raw is the offending output
	Raw []byte

	// Err is the underlying decoder error
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse svn %s output: %v", e.Document, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Snippet returns at most n bytes of the raw output, for logging.
func (e *ParseError) Snippet(n int) string {
	if len(e.Raw) <= n {
		return string(e.Raw)
	}
	return string(e.Raw[:n]) + "..."
}

// InvariantViolation means a structural assumption about the repository did
// not hold, usually a mismatch between the configured URL and what svn reports.
// It recurs every cycle until the configuration is fixed.
type InvariantViolation struct {
	Message string
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Message
}

// SinkError means the downstream consumer rejected a change.
type SinkError struct {
	Revision Revision
	Branch   string
	Err      error
}

// Error implements the error interface.
func (e *SinkError) Error() string {
	branch := e.Branch
	if branch == "" {
		branch = "trunk"
	}
	return fmt.Sprintf("failed to submit change r%d (%s): %v", e.Revision, branch, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *SinkError) Unwrap() error {
	return e.Err
}

// CycleError reports the stage at which a poll cycle aborted.
type CycleError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("poll cycle aborted during %s: %v", e.Stage, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *CycleError) Unwrap() error {
	return e.Err
}

// errorKind classifies err for logs and metrics labels.
func errorKind(err error) string {
	var execErr *ExecutionError
	var parseErr *ParseError
	var invErr *InvariantViolation
	var sinkErr *SinkError
	switch {
	case errors.As(err, &execErr):
		return "execution"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &invErr):
		return "invariant"
	case errors.As(err, &sinkErr):
		return "sink"
	default:
		return "other"
	}
}
