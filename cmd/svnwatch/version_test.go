package main

import (
	"runtime"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "0.1.0-test"
	GitCommit = "abc123"

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	for _, want := range []string{"svnwatch 0.1.0-test", "Git Commit: abc123", runtime.Version()} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionInfo(t *testing.T) {
	info := versionInfo()
	if info.Version != Version || info.GoVersion == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}
