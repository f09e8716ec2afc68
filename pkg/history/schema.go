package history

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schema contains the SQL statements to create the history schema.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    command TEXT NOT NULL,
    profiles TEXT,
    evaluated INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    fixed INTEGER NOT NULL,
    errors INTEGER NOT NULL,
    warnings INTEGER NOT NULL,
    infos INTEGER NOT NULL,
    outcome TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS violations (
    run_id TEXT NOT NULL,
    policy_id TEXT NOT NULL,
    path TEXT,
    message TEXT NOT NULL,
    severity TEXT NOT NULL,
    detail TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_violations_run ON violations(run_id);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

const insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

const getSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`
