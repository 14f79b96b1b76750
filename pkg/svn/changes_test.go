package svn

import (
	"errors"
	"testing"
	"time"
)

func TestBuildChanges_SplitsBranches(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []LogEntry{{
		Revision:  42,
		Author:    "alice",
		Message:   "merge fix",
		Timestamp: when,
		Paths: []string{
			"proj/trunk/a.c",
			"proj/branches/1.5/x.c",
			"proj/trunk/b.c",
			"proj/tags/1.0/z.c",
		},
	}}

	changes, err := BuildChanges(testRoot+"/proj", entries, "proj", SplitBranches)
	if err != nil {
		t.Fatalf("BuildChanges() error = %v", err)
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	trunk, branch := changes[0], changes[1]
	if trunk.Branch != "" {
		t.Errorf("expected trunk change first, got branch %q", trunk.Branch)
	}
	if !equalStrings(trunk.Files, []string{"a.c", "b.c"}) {
		t.Errorf("trunk files = %v", trunk.Files)
	}
	if branch.Branch != "1.5" {
		t.Errorf("expected branch 1.5, got %q", branch.Branch)
	}
	if !equalStrings(branch.Files, []string{"x.c"}) {
		t.Errorf("branch files = %v", branch.Files)
	}

	for _, c := range changes {
		if c.Revision != 42 || c.Author != "alice" || c.Message != "merge fix" || !c.Timestamp.Equal(when) {
			t.Errorf("change metadata not copied from entry: %+v", c)
		}
		if c.Repository != testRoot+"/proj" {
			t.Errorf("unexpected repository %q", c.Repository)
		}
	}
}

func TestBuildChanges_PreservesEntryOrder(t *testing.T) {
	entries := []LogEntry{
		{Revision: 10, Paths: []string{"branches/b/x", "trunk/y"}},
		{Revision: 11, Paths: []string{"trunk/z"}},
	}

	changes, err := BuildChanges(testRoot, entries, "", SplitBranches)
	if err != nil {
		t.Fatalf("BuildChanges() error = %v", err)
	}

	want := []struct {
		rev    Revision
		branch string
	}{{10, "b"}, {10, ""}, {11, ""}}

	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(changes))
	}
	for i, w := range want {
		if changes[i].Revision != w.rev || changes[i].Branch != w.branch {
			t.Errorf("change %d = r%d/%q, want r%d/%q",
				i, changes[i].Revision, changes[i].Branch, w.rev, w.branch)
		}
	}
}

func TestBuildChanges_ExcludedOnly(t *testing.T) {
	entries := []LogEntry{{Revision: 3, Paths: []string{"tags/1.0/a"}}}

	changes, err := BuildChanges(testRoot, entries, "", SplitBranches)
	if err != nil {
		t.Fatalf("BuildChanges() error = %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %d", len(changes))
	}
}

func TestBuildChanges_DefaultSplitter(t *testing.T) {
	entries := []LogEntry{{Revision: 3, Paths: []string{"proj/src/a.go"}}}

	changes, err := BuildChanges(testRoot+"/proj", entries, "proj", nil)
	if err != nil {
		t.Fatalf("BuildChanges() error = %v", err)
	}
	if len(changes) != 1 || changes[0].Branch != "" || !equalStrings(changes[0].Files, []string{"src/a.go"}) {
		t.Errorf("unexpected changes %+v", changes)
	}
}

func TestBuildChanges_PathOutsidePrefix(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "other project", path: "other/trunk/a.c"},
		{name: "sibling sharing the prefix text", path: "proj2/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := []LogEntry{{Revision: 8, Paths: []string{"proj/trunk/a.c", tt.path}}}

			_, err := BuildChanges(testRoot+"/proj", entries, "proj", nil)

			var inv *InvariantViolation
			if !errors.As(err, &inv) {
				t.Fatalf("expected *InvariantViolation, got %v", err)
			}
		})
	}
}

func TestRelativeTo(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         string
		wantOK       bool
	}{
		{path: "proj/trunk/a.c", prefix: "proj", want: "trunk/a.c", wantOK: true},
		{path: "proj/trunk/a.c", prefix: "proj/", want: "trunk/a.c", wantOK: true},
		{path: "proj", prefix: "proj", want: "", wantOK: true},
		{path: "trunk/a.c", prefix: "", want: "trunk/a.c", wantOK: true},
		{path: "proj2/b", prefix: "proj", wantOK: false},
		{path: "pro", prefix: "proj", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := relativeTo(tt.path, tt.prefix)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("relativeTo(%q, %q) = %q, %v; want %q, %v", tt.path, tt.prefix, got, ok, tt.want, tt.wantOK)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
