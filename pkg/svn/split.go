package svn

import (
	"fmt"
	"strings"
)

// PathSplitter maps a path relative to the watched prefix onto a branch and a
// branch-relative file. ok is false when the path belongs to no branch the
// poller should report. An empty branch means trunk.
type PathSplitter func(path string) (branch, file string, ok bool)

// Splitter names accepted by SplitterByName.
const (
	SplitterNone     = "none"
	SplitterBranches = "branches"
	SplitterProject  = "project"
)

// SplitAlwaysTrunk puts every path on trunk unchanged.
func SplitAlwaysTrunk(path string) (string, string, bool) {
	return "", path, true
}

// SplitBranches understands the conventional trunk/branches layout:
//
//	trunk/a/b          -> ("", "a/b")
//	branches/1.5/x     -> ("1.5", "x")
//	tags/1.0/x         -> excluded
func SplitBranches(path string) (string, string, bool) {
	pieces := strings.Split(path, "/")
	switch pieces[0] {
	case "trunk":
		return "", strings.Join(pieces[1:], "/"), true
	case "branches":
		if len(pieces) < 2 || pieces[1] == "" {
			return "", "", false
		}
		return pieces[1], strings.Join(pieces[2:], "/"), true
	default:
		return "", "", false
	}
}

// SplitProjectBranches handles repositories that keep several projects under
// one trunk/branches pair (trunk/<project>/..., branches/<name>/<project>/...).
// Paths belonging to other projects are excluded.
func SplitProjectBranches(project string) PathSplitter {
	return func(path string) (string, string, bool) {
		branch, rest, ok := SplitBranches(path)
		if !ok {
			return "", "", false
		}

		name, file, _ := strings.Cut(rest, "/")
		if name != project {
			return "", "", false
		}
		return branch, file, true
	}
}

// SplitterByName returns the built-in splitter for a configuration name.
// project is only used by the "project" splitter.
func SplitterByName(name, project string) (PathSplitter, error) {
	switch name {
	case "", SplitterNone:
		return SplitAlwaysTrunk, nil
	case SplitterBranches:
		return SplitBranches, nil
	case SplitterProject:
		if project == "" {
			return nil, fmt.Errorf("splitter %q requires a project name", name)
		}
		return SplitProjectBranches(project), nil
	default:
		return nil, fmt.Errorf("unknown splitter %q (expected %s, %s or %s)",
			name, SplitterNone, SplitterBranches, SplitterProject)
	}
}
