package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// CheckFunc is a function that performs a readiness check for a component.
// It returns nil if the component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Check statuses.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// CheckResult represents the result of a single readiness check.
type CheckResult struct {
	// Status is StatusOK or StatusUnhealthy
	Status string `json:"status"`

	// Message describes the problem for an unhealthy component
	Message string `json:"message,omitempty"`

	// DurationMS is how long the check took in milliseconds
	DurationMS float64 `json:"duration_ms"`
}

// Status represents the overall health of the process.
type Status struct {
	// Status is "ok" for liveness, "ready" or "not_ready" for readiness
	Status string `json:"status"`

	// Checks contains the status of individual components (readiness only)
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the check was performed
	Timestamp time.Time `json:"timestamp"`
}

// Checker runs named readiness checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	// Timeout for individual checks
	checkTimeout time.Duration
}

// ErrCheckTimeout is reported when a check does not finish in time.
var ErrCheckTimeout = errors.New("health check timeout")

// New creates a new health checker with the specified check timeout.
// If timeout is 0, defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a check for a named component, replacing any
// check with the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// ListChecks returns the names of all registered checks, sorted.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLiveness reports that the process is running.
func (c *Checker) CheckLiveness(ctx context.Context) Status {
	return Status{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
	}
}

// CheckReadiness runs all registered checks concurrently. The process is
// ready only if every check passes.
func (c *Checker) CheckReadiness(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status != StatusOK {
			status = StatusNotReady
		}
	}

	return Status{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now().UTC(),
	}
}

// runCheck executes a single check with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	// A check that ignores its context must not block the probe.
	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	var err error
	select {
	case err = <-errChan:
	case <-checkCtx.Done():
		err = ErrCheckTimeout
	}

	result := CheckResult{
		Status:     StatusOK,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

// HealthReporter is implemented by svn.Poller.
type HealthReporter interface {
	CheckHealth(maxFailures int) error
}

// PollerCheck fails once the poller has aborted maxFailures cycles in a
// row. A non-positive maxFailures always passes.
func PollerCheck(p HealthReporter, maxFailures int) CheckFunc {
	return func(ctx context.Context) error {
		return p.CheckHealth(maxFailures)
	}
}

// Pinger is implemented by sinks backed by a connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}
