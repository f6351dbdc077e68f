// Package storage persists hours entries, tags, and billing periods in
// SQLite, and provides the SQLite-backed implementation of the directory
// lookups. All get-or-create paths rely on unique indexes plus
// INSERT OR IGNORE so concurrent imports of the same logical row cannot
// create duplicate canonical records.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var (
	ErrEntryNotFound = errors.New("hours entry not found")
	ErrEntryBilled   = errors.New("hours entry is assigned to a billing period")
)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	// Identity columns of the hours table are NOT NULL with sentinel defaults
	// ('' for text, 0 for references) so the UNIQUE index compares them under
	// SQLite's NULL-is-distinct semantics. Dates and times are stored as TEXT
	// in canonical form; amounts as two-decimal fixed-point text.
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS teams (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS user_teams (
	user_id INTEGER NOT NULL REFERENCES users(id),
	team_id INTEGER NOT NULL REFERENCES teams(id),
	PRIMARY KEY (user_id, team_id)
);

CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS team_projects (
	team_id INTEGER NOT NULL REFERENCES teams(id),
	project_id INTEGER NOT NULL REFERENCES projects(id),
	PRIMARY KEY (team_id, project_id)
);

CREATE TABLE IF NOT EXISTS repositories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	UNIQUE (owner, name)
);

CREATE TABLE IF NOT EXISTS issues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	repository_id INTEGER NOT NULL REFERENCES repositories(id),
	number INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	need TEXT NOT NULL DEFAULT '',
	project_id INTEGER NOT NULL DEFAULT 0,
	UNIQUE (repository_id, number)
);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS billing_periods (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	UNIQUE (year, month)
);

CREATE TABLE IF NOT EXISTS hours (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	coder_id INTEGER NOT NULL REFERENCES users(id),
	project_id INTEGER NOT NULL REFERENCES projects(id),
	date TEXT NOT NULL,
	amount TEXT NOT NULL,
	start_time TEXT NOT NULL DEFAULT '',
	issue_id INTEGER NOT NULL DEFAULT 0,
	repository_id INTEGER NOT NULL DEFAULT 0,
	comment TEXT NOT NULL DEFAULT '',
	end_time TEXT NOT NULL DEFAULT '',
	raw_input TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	coder_billing_period_id INTEGER NOT NULL DEFAULT 0,
	project_billing_period_id INTEGER NOT NULL DEFAULT 0,
	UNIQUE (coder_id, project_id, date, amount, start_time, issue_id, repository_id, comment)
);

CREATE TABLE IF NOT EXISTS hour_tags (
	hours_id INTEGER NOT NULL REFERENCES hours(id),
	tag_id INTEGER NOT NULL REFERENCES tags(id),
	PRIMARY KEY (hours_id, tag_id)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
