package queue

// The registry lives in an in-memory database, so there is no migration
// chain; the schema is applied fresh on every Open.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS upload_tasks (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    id              TEXT NOT NULL UNIQUE,
    name            TEXT NOT NULL,
    size            INTEGER NOT NULL DEFAULT 0,
    status          TEXT NOT NULL,
    progress        REAL NOT NULL DEFAULT 0,
    error_message   TEXT,
    retry_count     INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL,
    started_at      TEXT,
    ended_at        TEXT,
    next_attempt_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_upload_tasks_status ON upload_tasks (status, seq);
`
