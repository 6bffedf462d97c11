package db

const (
	// SchemaV1 defines the tables of the local journeys registry.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS giftjourney_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS journeys (
    id TEXT PRIMARY KEY,
    title VARCHAR(256) NOT NULL,
    paid BOOLEAN DEFAULT FALSE,
    shareable_token TEXT,
    stop_count INTEGER DEFAULT 0,
    api_base TEXT,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS checkout_sessions (
    id UUID PRIMARY KEY,
    journey_id TEXT NOT NULL REFERENCES journeys(id) ON DELETE CASCADE,
    session_id TEXT NOT NULL UNIQUE,
    status VARCHAR(64) DEFAULT 'open',
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_checkout_sessions_journey ON checkout_sessions(journey_id);
`
)
