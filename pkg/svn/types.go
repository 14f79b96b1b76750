package svn

import (
	"time"
)

// Revision identifies a single commit in a Subversion repository.
type Revision int64

// NoRevision marks a watermark that has never been set.
const NoRevision Revision = -1

// IsSet reports whether r refers to a real revision.
func (r Revision) IsSet() bool {
	return r >= 0
}

// LogEntry is one commit as reported by `svn log --xml --verbose`.
type LogEntry struct {
	Revision  Revision
	Author    string
	Message   string
	Timestamp time.Time
	// Paths are repository paths with the leading separator stripped,
	// in the order the log reported them.
	Paths []string
}

// Change is one unit of work handed to the downstream consumer. A commit that
// touches several branches produces one Change per branch.
type Change struct {
	Repository string    `json:"repository"`
	Branch     string    `json:"branch,omitempty"`
	Revision   Revision  `json:"revision"`
	Author     string    `json:"author"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Files      []string  `json:"files"`
}

// PollerState is the process-lifetime state of a Poller. It is owned by the
// Poller and only mutated inside an active cycle.
type PollerState struct {
	Prefix         string
	PrefixResolved bool
	LastRevision   Revision
}

// Stage names a step of the poll cycle state machine.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageResolvingPrefix Stage = "resolving_prefix"
	StageFetchingLog     Stage = "fetching_log"
	StageParsing         Stage = "parsing"
	StageFiltering       Stage = "filtering"
	StageBuildingChanges Stage = "building_changes"
	StageSubmitting      Stage = "submitting"
	StageAborted         Stage = "aborted"
)

// CycleReport summarizes one completed poll cycle.
type CycleReport struct {
	CycleID           string
	Prefix            string
	FetchedEntries    int
	NewEntries        int
	Changes           []*Change
	PreviousWatermark Revision
	Watermark         Revision
	FirstPoll         bool
	Gap               bool
	SinkFailures      int
	Duration          time.Duration
}

// Stats is a point-in-time snapshot of poller activity.
type Stats struct {
	Cycles              int64
	Aborted             int64
	DroppedTriggers     int64
	ChangesSubmitted    int64
	SinkFailures        int64
	ConsecutiveFailures int64
	LastSuccess         time.Time
	LastError           string
	LastRevision        Revision
	Stage               Stage
}
