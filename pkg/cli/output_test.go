package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/svnwatch/pkg/svn"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteChanges(t *testing.T) {
	changes := []*svn.Change{
		{
			Revision:  1234,
			Author:    "alice",
			Message:   "fix build\n\nlonger description",
			Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Files:     []string{"a.c", "b.c"},
		},
		{
			Revision: 1235,
			Branch:   "branches/1.5",
			Author:   "bob",
			Message:  strings.Repeat("x", 100),
			Files:    []string{"c.c"},
		},
	}

	var buf bytes.Buffer
	if err := WriteChanges(&buf, changes); err != nil {
		t.Fatalf("WriteChanges() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "REVISION") {
		t.Errorf("unexpected header %q", lines[0])
	}
	for _, want := range []string{"1234", "trunk", "alice", "2024-03-01 12:00:00Z", "fix build"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
	if strings.Contains(lines[1], "longer description") {
		t.Errorf("only the first message line should be printed: %q", lines[1])
	}
	if !strings.Contains(lines[2], "branches/1.5") || !strings.HasSuffix(lines[2], "...") {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestWriteChanges_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChanges(&buf, nil); err != nil {
		t.Fatalf("WriteChanges() error = %v", err)
	}
	if buf.String() != "No changes.\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []*svn.Change{{Revision: 7, Author: "carol"}}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded) != 1 || !strings.Contains(buf.String(), "\n  ") {
		t.Errorf("expected one indented object, got %s", buf.String())
	}
}
