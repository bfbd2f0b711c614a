package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the traffic history schema.
const Schema = `
-- Traffic records table
CREATE TABLE IF NOT EXISTS traffic (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    -- Timestamps
    request_time TIMESTAMP NOT NULL,
    recorded_time TIMESTAMP NOT NULL,

    -- Request metadata
    method TEXT NOT NULL,
    path TEXT NOT NULL,
    query TEXT,
    request_headers TEXT,

    -- Forward result
    backend TEXT NOT NULL,
    status_code INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    latency_ms INTEGER,

    -- Sizes
    request_bytes INTEGER,
    response_bytes INTEGER,

    -- Client info
    remote_addr TEXT,
    user_agent TEXT,

    -- Error info
    error TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_traffic_request_time ON traffic(request_time);
CREATE INDEX IF NOT EXISTS idx_traffic_backend ON traffic(backend);
CREATE INDEX IF NOT EXISTS idx_traffic_status_code ON traffic(status_code);
CREATE INDEX IF NOT EXISTS idx_traffic_outcome ON traffic(outcome);
CREATE INDEX IF NOT EXISTS idx_traffic_request_id ON traffic(request_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
