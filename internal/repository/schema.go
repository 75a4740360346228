package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    username      TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    last_login    TIMESTAMPTZ,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS echo_requests (
    id              BIGSERIAL PRIMARY KEY,
    display_id      TEXT NOT NULL,
    pathway         TEXT NOT NULL,
    request_time    TIMESTAMPTZ NOT NULL,
    expected_time   TIMESTAMPTZ NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    triage_date     DATE NOT NULL,
    completion_time TIMESTAMPTZ,
    notes           TEXT NOT NULL DEFAULT '',
    patient_name    TEXT NOT NULL DEFAULT '',
    mrn             TEXT NOT NULL DEFAULT '',
    ward            TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_echo_requests_display_id ON echo_requests (display_id);
CREATE INDEX IF NOT EXISTS idx_echo_requests_triage_date ON echo_requests (triage_date);
CREATE INDEX IF NOT EXISTS idx_echo_requests_status ON echo_requests (status);
`

// EnsureSchema creates the tables and indexes when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
