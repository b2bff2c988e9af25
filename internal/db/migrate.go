package db

import (
	"context"
	"fmt"
)

// schema is applied in order; statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id      INTEGER PRIMARY KEY REFERENCES users(id),
		username     TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		age          INTEGER NOT NULL DEFAULT 0,
		gender       TEXT NOT NULL DEFAULT '',
		city         TEXT NOT NULL DEFAULT '',
		bio          TEXT NOT NULL DEFAULT '',
		image_url    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		username  TEXT NOT NULL,
		message   TEXT NOT NULL,
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_city ON profiles(city)`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_gender ON profiles(gender)`,
}

// MigrateUp applies the schema. Returns the number of statements run.
func (db *DB) MigrateUp(ctx context.Context) (int, error) {
	for i, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return i, fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return len(schema), nil
}
