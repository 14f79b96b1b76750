package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/svnwatch/pkg/svn"
)

func TestConfig_Spec(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{name: "interval", cfg: Config{Interval: 10 * time.Minute}, want: "@every 10m0s"},
		{name: "cron overrides interval", cfg: Config{Interval: time.Minute, Schedule: "*/5 * * * *"}, want: "*/5 * * * *"},
		{name: "nothing configured", cfg: Config{}, wantErr: true},
		{name: "invalid cron", cfg: Config{Schedule: "every tuesday"}, want: "every tuesday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want != "" && tt.cfg.Spec() != tt.want {
				t.Errorf("Spec() = %q, want %q", tt.cfg.Spec(), tt.want)
			}
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	var calls atomic.Int64
	ran := make(chan struct{}, 10)
	job := func(ctx context.Context) error {
		calls.Add(1)
		ran <- struct{}{}
		return nil
	}

	s := NewScheduler(job, Config{Interval: time.Hour, RunOnStart: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("expected scheduler running")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error starting twice")
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run on start")
	}

	next := s.NextRun()
	if next == nil {
		t.Fatal("NextRun() returned nil for running scheduler")
	}
	if until := time.Until(*next); until < 50*time.Minute || until > time.Hour+time.Second {
		t.Errorf("expected next run in about an hour, got %v", until)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected scheduler stopped")
	}
	if s.NextRun() != nil {
		t.Error("expected no next run after Stop")
	}
	if calls.Load() != 1 {
		t.Errorf("expected one run, got %d", calls.Load())
	}
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	ran := make(chan struct{}, 10)
	s := NewScheduler(func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}, Config{Interval: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not triggered by the schedule")
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewScheduler(func(ctx context.Context) error { return nil }, Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(5 * time.Second)
	for s.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_JobErrorsDoNotEscape(t *testing.T) {
	done := make(chan struct{}, 3)
	jobs := []Job{
		func(ctx context.Context) error { done <- struct{}{}; return svn.ErrCycleInFlight },
		func(ctx context.Context) error { done <- struct{}{}; return errors.New("svn exploded") },
		func(ctx context.Context) error { done <- struct{}{}; panic("boom") },
	}

	for _, job := range jobs {
		s := NewScheduler(job, Config{Interval: time.Hour, RunOnStart: true})
		ctx, cancel := context.WithCancel(context.Background())
		if err := s.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("job did not run")
		}

		s.Stop()
		cancel()
	}
}

func TestScheduler_Reschedule(t *testing.T) {
	s := NewScheduler(func(ctx context.Context) error { return nil }, Config{Interval: time.Hour})

	if err := s.Reschedule(Config{}); err == nil {
		t.Error("expected invalid config to be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if err := s.Reschedule(Config{Interval: 24 * time.Hour}); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}

	next := s.NextRun()
	if next == nil {
		t.Fatal("NextRun() returned nil after reschedule")
	}
	if until := time.Until(*next); until < 23*time.Hour {
		t.Errorf("expected next run in about a day, got %v", until)
	}
}

func TestScheduler_Trigger(t *testing.T) {
	want := errors.New("manual failure")
	s := NewScheduler(func(ctx context.Context) error { return want }, Config{Interval: time.Hour})

	if err := s.Trigger(context.Background()); !errors.Is(err, want) {
		t.Errorf("Trigger() error = %v, want %v", err, want)
	}
}
