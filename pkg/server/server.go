package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"mercator-hq/svnwatch/pkg/config"
	"mercator-hq/svnwatch/pkg/svn"
	"mercator-hq/svnwatch/pkg/telemetry/health"
	"mercator-hq/svnwatch/pkg/telemetry/tracing"
)

// TriggerFunc runs one poll cycle. trigger names what caused it ("manual"
// for POST /poll).
type TriggerFunc func(ctx context.Context, trigger string) (*svn.CycleReport, error)

// ScheduleReporter reports when the next scheduled cycle runs.
type ScheduleReporter interface {
	IsRunning() bool
	NextRun() *time.Time
}

// Options wires the server to the rest of the process. Nil fields disable
// the matching endpoint.
type Options struct {
	// Health serves the liveness and readiness probes
	Health *health.Checker

	// HealthConfig holds the probe paths
	HealthConfig config.HealthConfig

	// Metrics is the Prometheus handler, mounted at MetricsPath
	Metrics     http.Handler
	MetricsPath string

	// Trigger runs a cycle for POST /poll
	Trigger TriggerFunc

	// Stats reports poller activity for GET /status
	Stats func() svn.Stats

	// Schedule adds the next scheduled cycle to GET /status
	Schedule ScheduleReporter

	// Version is reported by GET /version
	Version health.VersionInfo

	Logger *slog.Logger
}

// Server is the admin HTTP server of the poller.
type Server struct {
	config       *config.ServerConfig
	opts         Options
	limiter      *rate.Limiter
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates an admin server.
func NewServer(cfg *config.ServerConfig, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config:  cfg,
		opts:    opts,
		limiter: newLimiter(cfg.TriggerRate, cfg.TriggerBurst),
		logger:  logger.With("component", "server"),
	}
}

// newLimiter throttles manual triggers. A zero rate disables throttling.
func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout.Std(),
		ReadHeaderTimeout: s.config.ReadTimeout.Std(),
		WriteTimeout:      s.config.WriteTimeout.Std(),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin server", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting at most the configured
// shutdown timeout for in-flight requests such as a manual poll.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		httpServer := s.httpServer
		s.mu.Unlock()

		timeout := s.config.ShutdownTimeout.Std()
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("admin server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.opts.Health != nil {
		mux.Handle(pathOr(s.opts.HealthConfig.LivenessPath, "/healthz"), s.opts.Health.LivenessHandler())
		mux.Handle(pathOr(s.opts.HealthConfig.ReadinessPath, "/readyz"), s.opts.Health.ReadinessHandler())
	}
	if s.opts.Metrics != nil {
		mux.Handle(pathOr(s.opts.MetricsPath, "/metrics"), s.opts.Metrics)
	}
	if s.opts.Trigger != nil {
		mux.Handle("/poll", tracing.HTTPMiddleware(http.HandlerFunc(s.handlePoll)))
	}
	if s.opts.Stats != nil {
		mux.HandleFunc("/status", s.handleStatus)
	}
	mux.Handle("/version", health.VersionHandler(s.opts.Version))

	var handler http.Handler = mux
	handler = loggingMiddleware(s.logger, handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(s.logger, handler)
	return handler
}

func pathOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}
