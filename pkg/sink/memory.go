package sink

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/svnwatch/pkg/svn"
)

// MemorySink keeps changes in memory. It is meant for tests and one-shot
// commands, and is idempotent on (repository, revision, branch) like the
// SQLite sink.
type MemorySink struct {
	mu      sync.RWMutex
	records []*Record
	seen    map[recordKey]struct{}
}

type recordKey struct {
	repository string
	revision   svn.Revision
	branch     string
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		seen: make(map[recordKey]struct{}),
	}
}

// Submit stores a copy of change.
func (s *MemorySink) Submit(ctx context.Context, change *svn.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{change.Repository, change.Revision, change.Branch}
	if _, ok := s.seen[key]; ok {
		return nil
	}
	s.seen[key] = struct{}{}

	c := *change
	c.Files = append([]string(nil), change.Files...)
	s.records = append(s.records, &Record{
		Change:     c,
		ID:         uuid.NewString(),
		RecordedAt: time.Now().UTC(),
	})
	return nil
}

// Changes returns the submitted changes in submission order.
func (s *MemorySink) Changes() []svn.Change {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]svn.Change, len(s.records))
	for i, r := range s.records {
		out[i] = r.Change
	}
	return out
}

// Recent returns matching records, newest revision first.
func (s *MemorySink) Recent(ctx context.Context, query Query) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Record
	for _, r := range s.records {
		if query.Repository != "" && r.Repository != query.Repository {
			continue
		}
		if query.Since.IsSet() && r.Revision <= query.Since {
			continue
		}
		rc := *r
		results = append(results, &rc)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Revision != results[j].Revision {
			return results[i].Revision > results[j].Revision
		}
		return results[i].Branch < results[j].Branch
	})

	if len(results) > query.limit() {
		results = results[:query.limit()]
	}
	return results, nil
}

// LatestRevision returns the newest revision stored for repository.
func (s *MemorySink) LatestRevision(ctx context.Context, repository string) (svn.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := svn.NoRevision
	for _, r := range s.records {
		if r.Repository == repository && r.Revision > latest {
			latest = r.Revision
		}
	}
	return latest, nil
}

// Ping always succeeds.
func (s *MemorySink) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemorySink) Close() error {
	return nil
}
