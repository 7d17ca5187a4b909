package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id            TEXT        PRIMARY KEY,
  email         TEXT        NOT NULL,
  name          TEXT        NOT NULL,
  password_hash TEXT        NOT NULL,
  analyses      JSONB       NOT NULL DEFAULT '[]'::jsonb,
  created_at    TIMESTAMPTZ NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (email)`,
	`CREATE TABLE IF NOT EXISTS analyses (
  id                  TEXT        PRIMARY KEY,
  text                TEXT        NOT NULL,
  summary             TEXT        NOT NULL DEFAULT '',
  meaning             TEXT        NOT NULL DEFAULT '',
  poetic_devices      JSONB       NOT NULL DEFAULT '[]'::jsonb,
  themes              JSONB       NOT NULL DEFAULT '[]'::jsonb,
  emotional_tone      TEXT        NOT NULL DEFAULT '',
  historical_context  TEXT        NOT NULL DEFAULT '',
  word_analysis       JSONB       NOT NULL DEFAULT '{}'::jsonb,
  interpretation      TEXT        NOT NULL DEFAULT '',
  english_translation TEXT        NOT NULL DEFAULT '',
  user_id             TEXT        NULL,
  is_favorite         BOOLEAN     NOT NULL DEFAULT FALSE,
  tags                JSONB       NOT NULL DEFAULT '[]'::jsonb,
  created_at          TIMESTAMPTZ NOT NULL,
  updated_at          TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_user ON analyses (user_id)`,
}

// Migrate creates tables and indexes when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
