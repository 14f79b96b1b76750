package svn

import (
	"testing"
)

func entriesFor(revs ...Revision) []LogEntry {
	entries := make([]LogEntry, len(revs))
	for i, r := range revs {
		entries[i] = LogEntry{Revision: r}
	}
	return entries
}

func revisionsOf(entries []LogEntry) []Revision {
	revs := make([]Revision, len(entries))
	for i, e := range entries {
		revs[i] = e.Revision
	}
	return revs
}

func equalRevisions(a, b []Revision) bool {
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

func TestFilterNewEntries(t *testing.T) {
	window := entriesFor(15, 14, 13, 12, 11)

	tests := []struct {
		name          string
		entries       []LogEntry
		last          Revision
		wantWatermark Revision
		wantRevs      []Revision
		wantFirst     bool
		wantGap       bool
		wantRegressed bool
	}{
		{
			name:          "new revisions since watermark",
			entries:       window,
			last:          12,
			wantWatermark: 15,
			wantRevs:      []Revision{13, 14, 15},
		},
		{
			name:          "first poll suppresses backlog",
			entries:       window,
			last:          NoRevision,
			wantWatermark: 15,
			wantFirst:     true,
		},
		{
			name:          "unchanged repository",
			entries:       window,
			last:          15,
			wantWatermark: 15,
		},
		{
			name:          "empty log keeps watermark",
			entries:       nil,
			last:          9,
			wantWatermark: 9,
		},
		{
			name:          "empty log before first poll",
			entries:       nil,
			last:          NoRevision,
			wantWatermark: NoRevision,
		},
		{
			name:          "watermark outside window",
			entries:       window,
			last:          5,
			wantWatermark: 15,
			wantRevs:      []Revision{11, 12, 13, 14, 15},
			wantGap:       true,
		},
		{
			name:          "watermark between sparse revisions",
			entries:       entriesFor(15, 12, 9),
			last:          10,
			wantWatermark: 15,
			wantRevs:      []Revision{12, 15},
		},
		{
			name:          "log went backwards",
			entries:       window,
			last:          20,
			wantWatermark: 20,
			wantRegressed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterNewEntries(tt.entries, tt.last)

			if got.Watermark != tt.wantWatermark {
				t.Errorf("Watermark = %d, want %d", got.Watermark, tt.wantWatermark)
			}
			if revs := revisionsOf(got.Entries); !equalRevisions(revs, tt.wantRevs) {
				t.Errorf("Entries = %v, want %v", revs, tt.wantRevs)
			}
			if got.FirstPoll != tt.wantFirst {
				t.Errorf("FirstPoll = %v, want %v", got.FirstPoll, tt.wantFirst)
			}
			if got.Gap != tt.wantGap {
				t.Errorf("Gap = %v, want %v", got.Gap, tt.wantGap)
			}
			if got.Regressed != tt.wantRegressed {
				t.Errorf("Regressed = %v, want %v", got.Regressed, tt.wantRegressed)
			}
		})
	}
}

// Every revision in the window used as the watermark yields exactly the
// strictly newer revisions, oldest first.
func TestFilterNewEntries_EveryWatermark(t *testing.T) {
	window := entriesFor(40, 31, 30, 22, 7, 3)

	for i, e := range window {
		got := FilterNewEntries(window, e.Revision)

		if got.Watermark != 40 {
			t.Errorf("w=%d: Watermark = %d, want 40", e.Revision, got.Watermark)
		}

		var want []Revision
		for j := i - 1; j >= 0; j-- {
			want = append(want, window[j].Revision)
		}
		if revs := revisionsOf(got.Entries); !equalRevisions(revs, want) {
			t.Errorf("w=%d: Entries = %v, want %v", e.Revision, revs, want)
		}
		if got.Gap {
			t.Errorf("w=%d: unexpected gap", e.Revision)
		}
	}
}

func TestFilterNewEntries_DoesNotMutateInput(t *testing.T) {
	window := entriesFor(5, 4, 3)
	FilterNewEntries(window, 3)

	if revs := revisionsOf(window); !equalRevisions(revs, []Revision{5, 4, 3}) {
		t.Errorf("input reordered to %v", revs)
	}
}
