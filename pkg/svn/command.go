package svn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultBinary is the svn client looked up on PATH when none is configured.
const DefaultBinary = "svn"

// Runner executes a binary with a literal argument list and returns its
// standard output. Arguments are never passed through a shell.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, binary string, args []string) ([]byte, error)

// Run calls f(ctx, binary, args).
func (f RunnerFunc) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	return f(ctx, binary, args)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout bounds a single invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewExecRunner creates a runner that kills commands running longer than timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes binary with args. A start failure or non-zero exit is
// returned as an *ExecutionError with stderr attached.
func (r *ExecRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return nil, &ExecutionError{
			Binary:   binary,
			Args:     RedactArgs(args),
			Stderr:   stderr.String(),
			ExitCode: exitCode,
			Err:      err,
		}
	}

	return stdout.Bytes(), nil
}

// Credentials are forwarded verbatim to every svn invocation.
type Credentials struct {
	Username string
	Password string
}

// args returns the credential flags, omitting empty values.
func (c Credentials) args() []string {
	var args []string
	if c.Username != "" {
		args = append(args, "--username="+c.Username)
	}
	if c.Password != "" {
		args = append(args, "--password="+c.Password)
	}
	return args
}

// RedactArgs returns a copy of args with password values masked.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, "--password=") {
			out[i] = "--password=***"
			continue
		}
		out[i] = a
	}
	return out
}

// Client builds svn info/log invocations and hands them to a Runner.
type Client struct {
	runner      Runner
	binary      string
	credentials Credentials
}

// NewClient creates a client. An empty binary means DefaultBinary.
func NewClient(runner Runner, binary string, creds Credentials) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{
		runner:      runner,
		binary:      binary,
		credentials: creds,
	}
}

// Binary returns the svn executable this client invokes.
func (c *Client) Binary() string {
	return c.binary
}

// Info runs `svn info --xml` against url.
func (c *Client) Info(ctx context.Context, url string) ([]byte, error) {
	return c.runner.Run(ctx, c.binary, c.infoArgs(url))
}

// Log runs `svn log --xml --verbose` against url, asking for at most limit entries.
func (c *Client) Log(ctx context.Context, url string, limit int) ([]byte, error) {
	return c.runner.Run(ctx, c.binary, c.logArgs(url, limit))
}

func (c *Client) infoArgs(url string) []string {
	args := []string{"info", "--xml", "--non-interactive"}
	args = append(args, c.credentials.args()...)
	return append(args, url)
}

func (c *Client) logArgs(url string, limit int) []string {
	args := []string{"log", "--xml", "--verbose", "--non-interactive"}
	args = append(args, c.credentials.args()...)
	if limit > 0 {
		args = append(args, fmt.Sprintf("--limit=%d", limit))
	}
	return append(args, url)
}
