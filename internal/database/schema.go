package database

// Both schemas are safe to apply on every start.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS participants (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    email        TEXT NOT NULL,
    email_key    TEXT NOT NULL UNIQUE,
    checkin_code TEXT NOT NULL UNIQUE,
    qr_data      TEXT NOT NULL,
    checked_in   BOOLEAN NOT NULL DEFAULT FALSE,
    checkin_time TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (NOT checked_in OR checkin_time IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_participants_created_at ON participants(created_at);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS participants (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    email        TEXT NOT NULL,
    email_key    TEXT NOT NULL UNIQUE,
    checkin_code TEXT NOT NULL UNIQUE,
    qr_data      TEXT NOT NULL,
    checked_in   INTEGER NOT NULL DEFAULT 0,
    checkin_time INTEGER,
    created_at   INTEGER NOT NULL,
    CHECK (checked_in = 0 OR checkin_time IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_participants_created_at ON participants(created_at);
`
