package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"mercator-hq/svnwatch/pkg/svn"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is a human readable table (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteChanges prints changes as a table, one row per change.
//
//	REVISION  BRANCH  AUTHOR  DATE                  FILES  MESSAGE
//	1234      trunk   alice   2024-03-01 12:00:00Z  2      fix build
func WriteChanges(w io.Writer, changes []*svn.Change) error {
	if len(changes) == 0 {
		_, err := fmt.Fprintln(w, "No changes.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REVISION\tBRANCH\tAUTHOR\tDATE\tFILES\tMESSAGE")
	for _, c := range changes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			c.Revision,
			branchLabel(c.Branch),
			c.Author,
			formatTime(c.Timestamp),
			len(c.Files),
			truncate(firstLine(c.Message), 60),
		)
	}
	return tw.Flush()
}

func branchLabel(branch string) string {
	if branch == "" {
		return "trunk"
	}
	return branch
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05Z")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], "\r")
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
