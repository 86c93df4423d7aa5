package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return &DB{db}, nil
}

// Migrate creates the session schema when it does not exist yet.
func Migrate(db *DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS forensic_sessions (
	id UUID PRIMARY KEY,
	session_name TEXT NOT NULL,
	case_number TEXT NOT NULL DEFAULT '',
	police_station TEXT NOT NULL DEFAULT '',
	district TEXT NOT NULL DEFAULT '',
	cr_number TEXT NOT NULL DEFAULT '',
	speaker_name TEXT NOT NULL DEFAULT '',
	question_filename TEXT NOT NULL DEFAULT '',
	control_filename TEXT NOT NULL DEFAULT '',
	question_file_path TEXT NOT NULL DEFAULT '',
	control_file_path TEXT NOT NULL DEFAULT '',
	annotations_data TEXT NOT NULL DEFAULT '',
	bandpass_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_forensic_sessions_updated_at ON forensic_sessions (updated_at DESC);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
