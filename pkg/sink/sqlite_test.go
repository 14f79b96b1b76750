package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/svnwatch/pkg/svn"
)

// createTempStore opens a SQLite change store in a temporary directory.
func createTempStore(t *testing.T, driver string) (*SQLiteSink, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "changes.db")
	s, err := NewSQLiteSink(&SQLiteConfig{
		Driver:      driver,
		Path:        dbPath,
		WALMode:     true,
		BusyTimeout: 2 * time.Second,
	})
	if err != nil {
		if driver == DriverCGO && strings.Contains(err.Error(), "CGO_ENABLED=0") {
			t.Skip("go-sqlite3 requires cgo")
		}
		t.Fatalf("Failed to create SQLite sink: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s, dbPath
}

func testChange(rev svn.Revision, branch string, files ...string) *svn.Change {
	return &svn.Change{
		Repository: "svn://host/repo/proj",
		Branch:     branch,
		Revision:   rev,
		Author:     "alice",
		Message:    fmt.Sprintf("commit r%d", rev),
		Timestamp:  time.Date(2024, 3, 1, 12, 0, int(rev%60), 0, time.UTC),
		Files:      files,
	}
}

func TestSQLiteSink_Drivers(t *testing.T) {
	for _, driver := range []string{DriverPure, DriverCGO} {
		t.Run(driver, func(t *testing.T) {
			s, dbPath := createTempStore(t, driver)
			ctx := context.Background()

			if _, err := os.Stat(dbPath); err != nil {
				t.Fatalf("database file was not created: %v", err)
			}
			if err := s.Ping(ctx); err != nil {
				t.Fatalf("Ping() error = %v", err)
			}

			if err := s.Submit(ctx, testChange(11, "", "a.c", "b.c")); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if err := s.Submit(ctx, testChange(12, "1.5", "x.c")); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}

			records, err := s.Recent(ctx, Query{})
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("expected 2 records, got %d", len(records))
			}

			newest := records[0]
			if newest.Revision != 12 || newest.Branch != "1.5" {
				t.Errorf("expected r12 on 1.5 first, got r%d %q", newest.Revision, newest.Branch)
			}
			if newest.ID == "" || newest.RecordedAt.IsZero() {
				t.Error("expected id and recorded_at to be set")
			}

			older := records[1]
			if len(older.Files) != 2 || older.Files[0] != "a.c" || older.Files[1] != "b.c" {
				t.Errorf("files not round-tripped: %v", older.Files)
			}
			want := testChange(11, "").Timestamp
			if !older.Timestamp.Equal(want) {
				t.Errorf("timestamp = %v, want %v", older.Timestamp, want)
			}
		})
	}
}

func TestSQLiteSink_Idempotent(t *testing.T) {
	s, _ := createTempStore(t, DriverPure)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Submit(ctx, testChange(7, "", "a.c")); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	if err := s.Submit(ctx, testChange(7, "feature", "a.c")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	records, err := s.Recent(ctx, Query{})
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected one record per (revision, branch), got %d", len(records))
	}
}

func TestSQLiteSink_Query(t *testing.T) {
	s, _ := createTempStore(t, DriverPure)
	ctx := context.Background()

	for rev := svn.Revision(1); rev <= 5; rev++ {
		if err := s.Submit(ctx, testChange(rev, "", "f")); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	other := testChange(9, "", "f")
	other.Repository = "svn://host/other"
	if err := s.Submit(ctx, other); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	records, err := s.Recent(ctx, Query{Repository: "svn://host/repo/proj", Since: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 2 || records[0].Revision != 5 || records[1].Revision != 4 {
		t.Errorf("unexpected records %+v", records)
	}

	latest, err := s.LatestRevision(ctx, "svn://host/repo/proj")
	if err != nil {
		t.Fatalf("LatestRevision() error = %v", err)
	}
	if latest != 5 {
		t.Errorf("expected latest r5, got r%d", latest)
	}

	none, err := s.LatestRevision(ctx, "svn://host/unknown")
	if err != nil {
		t.Fatalf("LatestRevision() error = %v", err)
	}
	if none != svn.NoRevision {
		t.Errorf("expected NoRevision, got %d", none)
	}
}

func TestSQLiteSink_ZeroTimestamp(t *testing.T) {
	s, _ := createTempStore(t, DriverPure)
	ctx := context.Background()

	c := testChange(3, "")
	c.Timestamp = time.Time{}
	if err := s.Submit(ctx, c); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	records, err := s.Recent(ctx, Query{})
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if !records[0].Timestamp.IsZero() {
		t.Errorf("expected zero timestamp, got %v", records[0].Timestamp)
	}
}

func TestSQLiteSink_Reopen(t *testing.T) {
	s, dbPath := createTempStore(t, DriverPure)
	if err := s.Submit(context.Background(), testChange(4, "", "a")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteSink(&SQLiteConfig{Driver: DriverPure, Path: dbPath})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	latest, err := reopened.LatestRevision(context.Background(), "svn://host/repo/proj")
	if err != nil || latest != 4 {
		t.Errorf("expected r4 after reopen, got r%d (%v)", latest, err)
	}
}

func TestNewSQLiteSink_InvalidConfig(t *testing.T) {
	if _, err := NewSQLiteSink(&SQLiteConfig{Driver: DriverPure}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := NewSQLiteSink(&SQLiteConfig{Driver: "postgres", Path: "x.db"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
