package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/svnwatch/pkg/svn"
)

// SQLite drivers. DriverPure needs no cgo; DriverCGO links libsqlite3.
const (
	DriverPure = "sqlite"
	DriverCGO  = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite change store.
type SQLiteConfig struct {
	// Driver is the database/sql driver name, DriverPure or DriverCGO.
	// Default: DriverPure
	Driver string

	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 1, the poller is the only writer
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging so readers do not block the poller.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverPure,
		Path:         "data/changes.db",
		MaxOpenConns: 1,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteSink records changes in a SQLite database.
type SQLiteSink struct {
	db         *sql.DB
	config     *SQLiteConfig
	insertStmt *sql.Stmt
	retry      retryConfig
	logger     *slog.Logger
}

// NewSQLiteSink opens (and if needed creates) the change store.
func NewSQLiteSink(config *SQLiteConfig) (*SQLiteSink, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	cfg := *config
	if cfg.Driver == "" {
		cfg.Driver = DriverPure
	}
	if cfg.Path == "" {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("database path cannot be empty"))
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 1
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn, err := sqliteDSN(&cfg)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	s := &SQLiteSink{
		db:     db,
		config: &cfg,
		retry:  defaultRetryConfig,
		logger: slog.Default().With("component", "sink.sqlite"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("SQLite change store initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode)

	return s, nil
}

// sqliteDSN builds the connection string; each driver spells pragmas its own way.
func sqliteDSN(cfg *SQLiteConfig) (string, error) {
	busy := cfg.BusyTimeout.Milliseconds()
	switch cfg.Driver {
	case DriverPure:
		dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", cfg.Path, busy)
		if cfg.WALMode {
			dsn += "&_pragma=journal_mode(WAL)"
		}
		return dsn, nil
	case DriverCGO:
		dsn := fmt.Sprintf("%s?_busy_timeout=%d", cfg.Path, busy)
		if cfg.WALMode {
			dsn += "&_journal_mode=WAL"
		}
		return dsn, nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q (expected %s or %s)", cfg.Driver, DriverPure, DriverCGO)
	}
}

// SetLogger sets a custom logger for the sink.
func (s *SQLiteSink) SetLogger(logger *slog.Logger) {
	s.logger = logger.With("component", "sink.sqlite")
}

func (s *SQLiteSink) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion, time.Now().Unix()); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	stmt, err := s.db.Prepare(insertChange)
	if err != nil {
		return NewStorageError("sqlite", "prepare_insert", err)
	}
	s.insertStmt = stmt

	return nil
}

// Submit records change. Submitting the same (repository, revision, branch)
// twice keeps the first record.
func (s *SQLiteSink) Submit(ctx context.Context, change *svn.Change) error {
	files, err := json.Marshal(change.Files)
	if err != nil {
		return NewStorageError("sqlite", "encode_files", err)
	}

	var committedAt any
	if !change.Timestamp.IsZero() {
		committedAt = change.Timestamp.Unix()
	}

	var inserted int64
	err = retryOp(ctx, s.retry, func() error {
		res, err := s.insertStmt.ExecContext(ctx,
			uuid.NewString(),
			change.Repository,
			int64(change.Revision),
			change.Branch,
			change.Author,
			change.Message,
			committedAt,
			string(files),
			time.Now().Unix(),
		)
		if err != nil {
			return err
		}
		inserted, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return NewStorageError("sqlite", "insert", err)
	}

	if inserted == 0 {
		s.logger.Debug("change already recorded",
			"revision", change.Revision,
			"branch", change.Branch)
	}
	return nil
}

// Recent returns recorded changes, newest revision first.
func (s *SQLiteSink) Recent(ctx context.Context, query Query) ([]*Record, error) {
	var where []string
	var args []any
	if query.Repository != "" {
		where = append(where, "repository = ?")
		args = append(args, query.Repository)
	}
	if query.Since.IsSet() {
		where = append(where, "revision > ?")
		args = append(args, int64(query.Since))
	}

	stmt := `SELECT id, repository, revision, branch, author, message, committed_at, files, recorded_at FROM changes`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY revision DESC, branch ASC LIMIT ?"
	args = append(args, query.limit())

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		r           Record
		revision    int64
		committedAt sql.NullInt64
		files       string
		recordedAt  int64
	)
	if err := rows.Scan(&r.ID, &r.Repository, &revision, &r.Branch, &r.Author, &r.Message,
		&committedAt, &files, &recordedAt); err != nil {
		return nil, err
	}

	r.Revision = svn.Revision(revision)
	if committedAt.Valid {
		r.Timestamp = time.Unix(committedAt.Int64, 0).UTC()
	}
	r.RecordedAt = time.Unix(recordedAt, 0).UTC()
	if err := json.Unmarshal([]byte(files), &r.Files); err != nil {
		return nil, fmt.Errorf("record %s: invalid files column: %w", r.ID, err)
	}
	return &r, nil
}

// LatestRevision returns the newest revision recorded for repository.
func (s *SQLiteSink) LatestRevision(ctx context.Context, repository string) (svn.Revision, error) {
	var rev sql.NullInt64
	if err := s.db.QueryRowContext(ctx, selectLatestRevision, repository).Scan(&rev); err != nil {
		return svn.NoRevision, NewStorageError("sqlite", "latest_revision", err)
	}
	if !rev.Valid {
		return svn.NoRevision, nil
	}
	return svn.Revision(rev.Int64), nil
}

// Ping verifies the database connection.
func (s *SQLiteSink) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}
