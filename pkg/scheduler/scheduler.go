package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/svnwatch/pkg/svn"
)

// Job is one scheduled unit of work, typically a poll cycle.
type Job func(ctx context.Context) error

// Config controls when the job runs.
type Config struct {
	// Interval runs the job every Interval ("@every" schedule)
	Interval time.Duration

	// Schedule is a cron expression; when set it takes precedence over Interval
	Schedule string

	// RunOnStart triggers the job once immediately when the scheduler starts
	RunOnStart bool
}

// Spec returns the cron spec for cfg.
func (c Config) Spec() string {
	if c.Schedule != "" {
		return c.Schedule
	}
	return "@every " + c.Interval.String()
}

// Validate checks that cfg describes a usable schedule.
func (c Config) Validate() error {
	if c.Schedule == "" && c.Interval <= 0 {
		return errors.New("either an interval or a cron schedule is required")
	}
	if _, err := cron.ParseStandard(c.Spec()); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Spec(), err)
	}
	return nil
}

// Scheduler triggers a Job on a cron schedule. It never runs jobs in
// parallel on its own account; overlapping runs are left to the job, which
// for the poller means the trigger is dropped.
type Scheduler struct {
	job     Job
	config  Config
	cron    *cron.Cron
	entryID cron.EntryID
	ctx     context.Context
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler for job.
func NewScheduler(job Job, cfg Config) *Scheduler {
	s := &Scheduler{
		job:    job,
		config: cfg,
		logger: slog.Default().With("component", "scheduler"),
	}
	return s
}

// SetLogger sets a custom logger for the scheduler.
func (s *Scheduler) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger.With("component", "scheduler")
}

// Start begins triggering the job. The scheduler stops when ctx is done.
//
// Common schedules:
//   - Interval 10m         - "@every 10m0s"
//   - "*/5 * * * *"        - every five minutes on the clock
//   - "0 7-19 * * MON-FRI" - hourly during office hours
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}
	if err := s.config.Validate(); err != nil {
		return err
	}

	cronLogger := &cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger)),
	)
	s.ctx = ctx

	id, err := s.cron.AddFunc(s.config.Spec(), func() { s.run(ctx, "schedule") })
	if err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}
	s.entryID = id

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started",
		"schedule", s.config.Spec(),
		"run_on_start", s.config.RunOnStart)

	if s.config.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(ctx, "startup")
		}()
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Reschedule replaces the schedule of a running scheduler, for example after
// a configuration reload. A stopped scheduler just keeps the new config.
func (s *Scheduler) Reschedule(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Spec() == s.config.Spec() {
		s.config = cfg
		return nil
	}
	s.config = cfg
	if !s.running {
		return nil
	}

	ctx := s.ctx
	id, err := s.cron.AddFunc(cfg.Spec(), func() { s.run(ctx, "schedule") })
	if err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}
	s.cron.Remove(s.entryID)
	s.entryID = id

	s.logger.Info("scheduler rescheduled", "schedule", cfg.Spec())
	return nil
}

// Trigger runs the job once outside the schedule and returns its error.
func (s *Scheduler) Trigger(ctx context.Context) error {
	return s.job(ctx)
}

// run executes the job, logging anything it returns. Nothing escapes.
func (s *Scheduler) run(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	logger := s.logger
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduled job panicked", "trigger", reason, "panic", r)
		}
	}()

	err := s.job(ctx)
	switch {
	case err == nil:
		logger.Debug("scheduled job finished", "trigger", reason)
	case errors.Is(err, svn.ErrCycleInFlight):
		logger.Debug("scheduled job skipped, previous run still active", "trigger", reason)
	default:
		logger.Debug("scheduled job failed", "trigger", reason, "error", err)
	}
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron == nil || !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled run, or nil when not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
