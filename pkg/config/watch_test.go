package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, "svnwatch.yaml", "source:\n  url: svn://host/repo\n  poll_interval: 10m\n")

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watch loop a moment to start.
	time.Sleep(50 * time.Millisecond)

	// An invalid file is rejected and no callback fires.
	if err := os.WriteFile(path, []byte("source:\n  poll_interval: 1m\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config was delivered: %+v", cfg.Source)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("source:\n  url: svn://host/repo\n  poll_interval: 1m\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		if cfg.Source.PollInterval.Std() != time.Minute {
			t.Errorf("expected reloaded interval 1m, got %v", cfg.Source.PollInterval)
		}
		if GetConfig() != cfg {
			t.Error("reloaded config was not installed globally")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after valid change")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path := writeConfig(t, "svnwatch.yaml", "source:\n  url: svn://host/repo\n")

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, 10*time.Millisecond, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path+".bak", []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-reloaded:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewWatcher_Errors(t *testing.T) {
	if _, err := NewWatcher("x.yaml", 0, nil); err == nil {
		t.Error("expected error for nil callback")
	}
	if _, err := NewWatcher("/does/not/exist/x.yaml", 0, func(*Config) {}); err == nil {
		t.Error("expected error for missing directory")
	}
}
