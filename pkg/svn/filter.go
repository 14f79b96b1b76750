package svn

// FilterResult is the outcome of comparing a log window with the watermark.
type FilterResult struct {
	// Watermark is the revision to record once the cycle commits
	Watermark Revision

	// Entries are the new entries, oldest first
	Entries []LogEntry

	// FirstPoll is set when there was no watermark yet; nothing is emitted
	FirstPoll bool

	// Gap is set when the watermark was not found inside the fetched window,
	// meaning older revisions may have been skipped
	Gap bool

	// Regressed is set when the newest revision is older than the watermark
	Regressed bool
}

// FilterNewEntries returns the entries newer than last. Entries must be
// ordered newest first, as svn log reports them.
func FilterNewEntries(entries []LogEntry, last Revision) FilterResult {
	if len(entries) == 0 {
		return FilterResult{Watermark: last}
	}

	mostRecent := entries[0].Revision

	if !last.IsSet() {
		return FilterResult{Watermark: mostRecent, FirstPoll: true}
	}

	if mostRecent == last {
		return FilterResult{Watermark: mostRecent}
	}

	// Watermarks only move forward.
	if mostRecent < last {
		return FilterResult{Watermark: last, Regressed: true}
	}

	var fresh []LogEntry
	found := false
	for _, e := range entries {
		if e.Revision <= last {
			found = true
			break
		}
		fresh = append(fresh, e)
	}

	// oldest first
	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}

	return FilterResult{
		Watermark: mostRecent,
		Entries:   fresh,
		Gap:       !found,
	}
}
