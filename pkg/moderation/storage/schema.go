package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the moderation record tables. Timestamps are stored as
// Unix nanoseconds in UTC so that range filters compare numerically.
const Schema = `
CREATE TABLE IF NOT EXISTS moderation_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL DEFAULT '',

    author TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',

    scanned_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,

    rule_id TEXT NOT NULL,
    category TEXT NOT NULL,
    severity TEXT NOT NULL,
    label TEXT NOT NULL,
    matched_text TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,

    text_hash TEXT NOT NULL DEFAULT '',
    text_length INTEGER NOT NULL DEFAULT 0,

    policy_version TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_moderation_scanned_at ON moderation_records(scanned_at);
CREATE INDEX IF NOT EXISTS idx_moderation_author ON moderation_records(author);
CREATE INDEX IF NOT EXISTS idx_moderation_rule_id ON moderation_records(rule_id);
CREATE INDEX IF NOT EXISTS idx_moderation_category ON moderation_records(category);
CREATE INDEX IF NOT EXISTS idx_moderation_action ON moderation_records(action);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
