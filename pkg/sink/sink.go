package sink

import (
	"context"
	"io"
	"time"

	"mercator-hq/svnwatch/pkg/svn"
)

// Sink is a change consumer that owns resources to release on shutdown.
type Sink interface {
	svn.Sink
	io.Closer
}

// Store is a sink that keeps what it received and can be queried.
type Store interface {
	Sink

	// Recent returns recorded changes, newest revision first.
	Recent(ctx context.Context, query Query) ([]*Record, error)

	// LatestRevision returns the newest revision recorded for repository,
	// or svn.NoRevision when nothing was recorded yet.
	LatestRevision(ctx context.Context, repository string) (svn.Revision, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// Query selects recorded changes.
type Query struct {
	// Repository limits results to one watched URL; empty means all
	Repository string

	// Since only returns revisions newer than this one
	Since svn.Revision

	// Limit caps the number of results; zero means DefaultQueryLimit
	Limit int
}

// DefaultQueryLimit is used when Query.Limit is zero.
const DefaultQueryLimit = 50

// Record is a change as stored, with its storage identity.
type Record struct {
	svn.Change

	// ID is the record identifier assigned on insert
	ID string `json:"id"`

	// RecordedAt is when the sink accepted the change
	RecordedAt time.Time `json:"recorded_at"`
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultQueryLimit
	}
	return q.Limit
}
