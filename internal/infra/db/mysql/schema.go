package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// Document-shaped fields live in JSON columns so a row reads back as the full record.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id            CHAR(36)     NOT NULL PRIMARY KEY,
  email         VARCHAR(320) COLLATE utf8mb4_bin NOT NULL,
  name          VARCHAR(255) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  analyses      JSON         NOT NULL,
  created_at    DATETIME(6)  NOT NULL,
  updated_at    DATETIME(6)  NOT NULL,
  UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS analyses (
  id                  CHAR(36)    NOT NULL PRIMARY KEY,
  text                MEDIUMTEXT  NOT NULL,
  summary             TEXT        NOT NULL,
  meaning             TEXT        NOT NULL,
  poetic_devices      JSON        NOT NULL,
  themes              JSON        NOT NULL,
  emotional_tone      TEXT        NOT NULL,
  historical_context  TEXT        NOT NULL,
  word_analysis       JSON        NOT NULL,
  interpretation      TEXT        NOT NULL,
  english_translation TEXT        NOT NULL,
  user_id             CHAR(36)    NULL,
  is_favorite         BOOLEAN     NOT NULL DEFAULT FALSE,
  tags                JSON        NOT NULL,
  created_at          DATETIME(6) NOT NULL,
  updated_at          DATETIME(6) NOT NULL,
  KEY idx_analyses_created (created_at, id),
  KEY idx_analyses_user (user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
