package sink

// SchemaVersion is the current change store schema version.
const SchemaVersion = 1

// Schema creates the change store. A (repository, revision, branch) triple is
// stored once, so replaying a batch after a crash is harmless.
const Schema = `
CREATE TABLE IF NOT EXISTS changes (
    id TEXT PRIMARY KEY,
    repository TEXT NOT NULL,
    revision INTEGER NOT NULL,
    branch TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    committed_at INTEGER,
    files TEXT NOT NULL,
    recorded_at INTEGER NOT NULL,
    UNIQUE (repository, revision, branch)
);

CREATE INDEX IF NOT EXISTS idx_changes_repository_revision ON changes(repository, revision);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// InsertSchemaVersion records the schema version if missing.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`

// GetSchemaVersion returns the newest applied schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`

const insertChange = `
INSERT OR IGNORE INTO changes (
    id, repository, revision, branch, author, message, committed_at, files, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectLatestRevision = `SELECT MAX(revision) FROM changes WHERE repository = ?`
