// Package store implements the persistence gateway over SQLite.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open initializes the SQLite connection and runs schema migrations.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func runMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		surname TEXT NOT NULL,
		sector TEXT NOT NULL,
		display_name TEXT NOT NULL,
		function TEXT NOT NULL DEFAULT '',
		mute_set TEXT NOT NULL DEFAULT '[]',
		group_id TEXT NOT NULL DEFAULT '',
		last_active_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		payload TEXT NOT NULL,
		transcript TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		group_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active_at);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
