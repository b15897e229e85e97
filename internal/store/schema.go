package store

const sqlitePragmas = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;
PRAGMA foreign_keys = ON;
`

// Times are unix nanoseconds so both drivers order them the same way.
const schema = `
CREATE TABLE IF NOT EXISTS patients (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    name        TEXT NOT NULL,
    created_at  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id            TEXT PRIMARY KEY,
    owner_id      TEXT NOT NULL,
    patient_id    TEXT NOT NULL REFERENCES patients (id),
    created_at    BIGINT NOT NULL,
    started_at    BIGINT NOT NULL,
    last_used_at  BIGINT NOT NULL,
    notes         TEXT NOT NULL DEFAULT '',
    summary       TEXT NOT NULL DEFAULT '',
    nursing_chart TEXT NOT NULL DEFAULT '',
    generated_at  BIGINT,
    revision      BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS sessions_by_patient ON sessions (owner_id, patient_id, created_at);

CREATE TABLE IF NOT EXISTS messages (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL REFERENCES sessions (id),
    text        TEXT NOT NULL,
    ts          BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS messages_by_session ON messages (session_id, ts, id);
`
