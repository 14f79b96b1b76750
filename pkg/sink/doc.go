// Package sink provides consumers for the changes detected by the poller.
//
// Available sinks:
//   - LogSink: structured log record per change (default)
//   - JSONLSink: one JSON document per line, to a file or stdout
//   - SQLiteSink: durable change store, idempotent on (repository, revision, branch)
//   - MemorySink: in-memory store for tests and one-shot commands
//
// SQLiteSink and MemorySink also implement Store, which the CLI uses to list
// recorded changes and to resume polling from the newest recorded revision.
//
// The SQLite store works with either the pure Go driver (modernc.org/sqlite,
// driver name "sqlite") or the cgo driver (github.com/mattn/go-sqlite3,
// driver name "sqlite3"):
//
//	s, err := sink.NewSQLiteSink(&sink.SQLiteConfig{
//		Driver:  sink.DriverPure,
//		Path:    "data/changes.db",
//		WALMode: true,
//	})
package sink
