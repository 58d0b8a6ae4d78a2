package pgcheckpoint

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    thread_id    TEXT NOT NULL,
    seq          INTEGER NOT NULL,
    role         TEXT NOT NULL,
    content      TEXT NOT NULL DEFAULT '',
    tool_calls   JSONB,
    tool_call_id TEXT,
    name         TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (thread_id, seq)
)`

const createCreatedAtIndexSQL = `CREATE INDEX IF NOT EXISTS %s ON %s (created_at)`

// EnsureSchema creates the checkpoint table and its index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, fmt.Sprintf(createTableSQL, s.table)); err != nil {
		return fmt.Errorf("pgcheckpoint: create table: %w", err)
	}

	index := pgx.Identifier{"idx_" + s.rawTable + "_created_at"}.Sanitize()
	if _, err := s.db.Exec(ctx, fmt.Sprintf(createCreatedAtIndexSQL, index, s.table)); err != nil {
		return fmt.Errorf("pgcheckpoint: create index: %w", err)
	}
	return nil
}
