package svn

import (
	"fmt"
	"strings"
)

// BuildChanges turns new log entries (oldest first) into changes. Each entry
// yields one Change per branch it touches, branches ordered by first
// appearance in the entry's path list. Paths outside prefix indicate that the
// watched URL and the log scope disagree and fail the whole build.
func BuildChanges(repository string, entries []LogEntry, prefix string, split PathSplitter) ([]*Change, error) {
	if split == nil {
		split = SplitAlwaysTrunk
	}

	var changes []*Change
	for _, entry := range entries {
		var order []string
		files := make(map[string][]string)

		for _, path := range entry.Paths {
			relative, ok := relativeTo(path, prefix)
			if !ok {
				return nil, &InvariantViolation{
					Message: fmt.Sprintf("r%d: path %q is not below prefix %q", entry.Revision, path, prefix),
				}
			}

			branch, file, ok := split(relative)
			if !ok {
				continue
			}
			if _, seen := files[branch]; !seen {
				order = append(order, branch)
			}
			files[branch] = append(files[branch], file)
		}

		for _, branch := range order {
			changes = append(changes, &Change{
				Repository: repository,
				Branch:     branch,
				Revision:   entry.Revision,
				Author:     entry.Author,
				Message:    entry.Message,
				Timestamp:  entry.Timestamp,
				Files:      files[branch],
			})
		}
	}

	return changes, nil
}

// relativeTo strips prefix from path. The prefix must end on a path segment
// boundary, so "proj" does not match "proj2/b".
func relativeTo(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}

	rest := path[len(prefix):]
	if prefix == "" || rest == "" || strings.HasSuffix(prefix, "/") {
		return strings.TrimPrefix(rest, "/"), true
	}
	if !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return rest[1:], true
}
