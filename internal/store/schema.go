package store

import (
	"context"
	"fmt"
)

// Schema for the events table. Kept as idempotent DDL; a migration tool is
// out of scope for a single append-only table.
const schema = `
CREATE TABLE IF NOT EXISTS events (
    id          BIGSERIAL PRIMARY KEY,
    site_id     TEXT        NOT NULL,
    event_type  TEXT        NOT NULL,
    path        TEXT,
    user_id     TEXT,
    "timestamp" TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_site_timestamp ON events (site_id, "timestamp");
`

// EnsureSchema creates the events table and its index if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
