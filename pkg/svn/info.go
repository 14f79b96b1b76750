package svn

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RepositoryInfo is the part of `svn info --xml` the poller cares about.
type RepositoryInfo struct {
	// Root is the repository root URL, empty when HasRoot is false
	Root string

	// UUID is the repository UUID if reported
	UUID string

	// HasRoot reports whether a <root> element was present
	HasRoot bool
}

// ParseInfo extracts the repository root and UUID from `svn info --xml`
// output. The first <root> and <uuid> elements anywhere in the document win.
func ParseInfo(raw []byte) (*RepositoryInfo, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	info := &RepositoryInfo{}
	elements := 0
	capture := ""
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Document: "info", Raw: raw, Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elements++
			if capture != "" {
				continue
			}
			switch {
			case t.Name.Local == "root" && !info.HasRoot:
				capture = "root"
				text.Reset()
			case t.Name.Local == "uuid" && info.UUID == "":
				capture = "uuid"
				text.Reset()
			}
		case xml.CharData:
			if capture != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if capture == "" || t.Name.Local != capture {
				continue
			}
			if capture == "root" {
				info.Root = strings.TrimSpace(text.String())
				info.HasRoot = true
			} else {
				info.UUID = strings.TrimSpace(text.String())
			}
			capture = ""
		}
	}

	if elements == 0 {
		return nil, &ParseError{Document: "info", Raw: raw, Err: errors.New("no XML elements in output")}
	}

	return info, nil
}

// PrefixFor computes the path of repositoryURL relative to the repository
// root. The URL must live under the root; anything else is a configuration
// mismatch reported as an *InvariantViolation.
func PrefixFor(repositoryURL string, info *RepositoryInfo) (string, error) {
	if info == nil || !info.HasRoot {
		return "", nil
	}

	if !strings.HasPrefix(repositoryURL, info.Root) {
		return "", &InvariantViolation{
			Message: fmt.Sprintf("repository url %q does not start with reported root %q", repositoryURL, info.Root),
		}
	}

	rest := repositoryURL[len(info.Root):]
	if rest != "" && !strings.HasPrefix(rest, "/") && !strings.HasSuffix(info.Root, "/") {
		return "", &InvariantViolation{
			Message: fmt.Sprintf("repository url %q is not below reported root %q", repositoryURL, info.Root),
		}
	}

	return strings.TrimPrefix(rest, "/"), nil
}

// ResolvePrefix queries svn for the repository root of repositoryURL and
// returns the prefix shared by every path the log query will report.
func ResolvePrefix(ctx context.Context, client *Client, repositoryURL string) (string, *RepositoryInfo, error) {
	raw, err := client.Info(ctx, repositoryURL)
	if err != nil {
		return "", nil, err
	}

	info, err := ParseInfo(raw)
	if err != nil {
		return "", nil, err
	}

	prefix, err := PrefixFor(repositoryURL, info)
	if err != nil {
		return "", info, err
	}

	return prefix, info, nil
}
