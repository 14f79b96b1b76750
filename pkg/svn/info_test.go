package svn

import (
	"context"
	"errors"
	"testing"
)

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo(infoXML(testRoot, "5a2e1b7a-1111-2222-3333-444455556666"))
	if err != nil {
		t.Fatalf("ParseInfo() error = %v", err)
	}

	if !info.HasRoot {
		t.Fatal("expected root to be found")
	}
	if info.Root != testRoot {
		t.Errorf("expected root %q, got %q", testRoot, info.Root)
	}
	if info.UUID != "5a2e1b7a-1111-2222-3333-444455556666" {
		t.Errorf("unexpected uuid %q", info.UUID)
	}
}

func TestParseInfo_NoRoot(t *testing.T) {
	info, err := ParseInfo([]byte(`<?xml version="1.0"?><info><entry path="."></entry></info>`))
	if err != nil {
		t.Fatalf("ParseInfo() error = %v", err)
	}
	if info.HasRoot {
		t.Errorf("expected no root, got %q", info.Root)
	}
}

func TestParseInfo_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"plain text", "svn: E155007: not a working copy"},
		{"unbalanced", "<info><root>svn://x</info>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInfo([]byte(tt.raw))

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if parseErr.Document != "info" {
				t.Errorf("expected document info, got %q", parseErr.Document)
			}
		})
	}
}

func TestPrefixFor(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		info      *RepositoryInfo
		want      string
		violation bool
	}{
		{
			name: "subdirectory",
			url:  "svn://host/repo/proj/trunk",
			info: &RepositoryInfo{Root: "svn://host/repo", HasRoot: true},
			want: "proj/trunk",
		},
		{
			name: "url is root",
			url:  "svn://host/repo",
			info: &RepositoryInfo{Root: "svn://host/repo", HasRoot: true},
			want: "",
		},
		{
			name: "root with trailing slash",
			url:  "file:///var/svn/proj",
			info: &RepositoryInfo{Root: "file:///var/svn/", HasRoot: true},
			want: "proj",
		},
		{
			name: "no root reported",
			url:  "svn://host/repo/proj",
			info: &RepositoryInfo{},
			want: "",
		},
		{
			name:      "different server",
			url:       "svn://other/repo/proj",
			info:      &RepositoryInfo{Root: "svn://host/repo", HasRoot: true},
			violation: true,
		},
		{
			name:      "sibling repository with common prefix",
			url:       "svn://host/repository/proj",
			info:      &RepositoryInfo{Root: "svn://host/repo", HasRoot: true},
			violation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrefixFor(tt.url, tt.info)

			if tt.violation {
				var inv *InvariantViolation
				if !errors.As(err, &inv) {
					t.Fatalf("expected *InvariantViolation, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("PrefixFor() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("PrefixFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePrefix(t *testing.T) {
	var gotArgs []string
	runner := RunnerFunc(func(ctx context.Context, binary string, args []string) ([]byte, error) {
		gotArgs = args
		return infoXML(testRoot, "uuid-1"), nil
	})

	client := NewClient(runner, "", Credentials{})
	prefix, info, err := ResolvePrefix(context.Background(), client, testRoot+"/proj")
	if err != nil {
		t.Fatalf("ResolvePrefix() error = %v", err)
	}

	if prefix != "proj" {
		t.Errorf("expected prefix proj, got %q", prefix)
	}
	if info.UUID != "uuid-1" {
		t.Errorf("expected uuid-1, got %q", info.UUID)
	}
	if len(gotArgs) == 0 || gotArgs[0] != "info" {
		t.Errorf("expected an info query, got %v", gotArgs)
	}
}

func TestResolvePrefix_ExecutionError(t *testing.T) {
	execErr := &ExecutionError{Binary: "svn", ExitCode: 1, Err: errors.New("exit status 1")}
	runner := RunnerFunc(func(ctx context.Context, binary string, args []string) ([]byte, error) {
		return nil, execErr
	})

	_, _, err := ResolvePrefix(context.Background(), NewClient(runner, "", Credentials{}), testRoot)
	if !errors.Is(err, execErr) {
		t.Errorf("expected execution error to propagate, got %v", err)
	}
}
