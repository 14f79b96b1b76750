package svn

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// logTimeLayout is the second-precision prefix of svn's date format.
// Fractional seconds and the zone suffix are ignored; svn reports UTC.
const logTimeLayout = "2006-01-02T15:04:05"

type logDocument struct {
	XMLName xml.Name      `xml:"log"`
	Entries []logEntryXML `xml:"logentry"`
}

type logEntryXML struct {
	Revision string    `xml:"revision,attr"`
	Author   string    `xml:"author"`
	Date     string    `xml:"date"`
	Paths    *pathsXML `xml:"paths"`
	Msg      string    `xml:"msg"`
}

type pathsXML struct {
	Paths []string `xml:"path"`
}

// ParseLog decodes `svn log --xml --verbose` output into entries, keeping
// the order svn reported them in (newest first).
func ParseLog(raw []byte) ([]LogEntry, error) {
	var doc logDocument
	if err := decodeDocument(raw, &doc); err != nil {
		return nil, &ParseError{Document: "log", Raw: raw, Err: err}
	}

	entries := make([]LogEntry, 0, len(doc.Entries))
	for i, el := range doc.Entries {
		entry, err := el.toLogEntry()
		if err != nil {
			return nil, &ParseError{
				Document: "log",
				Raw:      raw,
				Err:      fmt.Errorf("logentry %d: %w", i, err),
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// decodeDocument decodes the root element of raw into v. Only whitespace,
// comments and processing instructions may follow it; svn appends error
// text after a truncated document.
func decodeDocument(raw []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return err
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("after root element: %w", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			if text := bytes.TrimSpace(t); len(text) > 0 {
				return fmt.Errorf("unexpected text after root element: %q", truncate(string(text), 40))
			}
		case xml.Comment, xml.ProcInst:
		default:
			return fmt.Errorf("unexpected %T after root element", tok)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (el logEntryXML) toLogEntry() (LogEntry, error) {
	rev, err := strconv.ParseInt(strings.TrimSpace(el.Revision), 10, 64)
	if err != nil {
		return LogEntry{}, fmt.Errorf("invalid revision attribute %q: %w", el.Revision, err)
	}
	if rev < 0 {
		return LogEntry{}, fmt.Errorf("invalid revision attribute %q", el.Revision)
	}

	when, err := parseLogTime(el.Date)
	if err != nil {
		return LogEntry{}, err
	}

	var paths []string
	if el.Paths != nil {
		paths = make([]string, 0, len(el.Paths.Paths))
		for _, p := range el.Paths.Paths {
			paths = append(paths, strings.TrimPrefix(p, "/"))
		}
	}

	return LogEntry{
		Revision:  Revision(rev),
		Author:    el.Author,
		Message:   el.Msg,
		Timestamp: when,
		Paths:     paths,
	}, nil
}

// parseLogTime parses the first 19 characters of an svn date. An absent
// date yields the zero time.
func parseLogTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if len(s) < len(logTimeLayout) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	when, err := time.Parse(logTimeLayout, s[:len(logTimeLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return when, nil
}
