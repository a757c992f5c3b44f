// Package store persists users, sessions, CRM entities and usage windows
// in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"binna-crm/internal/domain"
)

// timeFormat is the storage format for timestamps. Fractional seconds are
// zero-padded to full width so stored values compare correctly as strings;
// RFC3339Nano drops trailing zeros and breaks that ordering at exact-second
// boundaries.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements the domain store interfaces over a single SQLite
// database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs the schema
// migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			username             TEXT NOT NULL UNIQUE,
			email                TEXT NOT NULL DEFAULT '',
			first_name           TEXT NOT NULL DEFAULT '',
			business_description TEXT NOT NULL DEFAULT '',
			hashed_password      TEXT NOT NULL,
			disabled             INTEGER NOT NULL DEFAULT 0,
			is_admin             INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL REFERENCES users(id),
			expires_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS establishments (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL REFERENCES users(id),
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			industry    TEXT NOT NULL DEFAULT '',
			deleted     INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          INTEGER NOT NULL REFERENCES users(id),
			establishment_id INTEGER NOT NULL REFERENCES establishments(id),
			name             TEXT NOT NULL,
			role             TEXT NOT NULL DEFAULT '',
			email            TEXT NOT NULL DEFAULT '',
			phone            TEXT NOT NULL DEFAULT '',
			deleted          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          INTEGER NOT NULL REFERENCES users(id),
			establishment_id INTEGER NOT NULL REFERENCES establishments(id),
			name             TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			due_date         TEXT,
			completed        INTEGER NOT NULL DEFAULT 0,
			deleted          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS opportunities (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          INTEGER NOT NULL REFERENCES users(id),
			establishment_id INTEGER NOT NULL REFERENCES establishments(id),
			product          TEXT NOT NULL DEFAULT '',
			close_date       TEXT,
			price            REAL NOT NULL DEFAULT 0,
			stage            TEXT NOT NULL DEFAULT '',
			notes            TEXT NOT NULL DEFAULT '',
			deleted          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          INTEGER NOT NULL REFERENCES users(id),
			establishment_id INTEGER NOT NULL REFERENCES establishments(id),
			opportunity_id   INTEGER NOT NULL DEFAULT 0,
			name             TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			date             TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			status           TEXT NOT NULL DEFAULT 'pending',
			address          TEXT NOT NULL DEFAULT '',
			deleted          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS meeting_contacts (
			meeting_id INTEGER NOT NULL REFERENCES meetings(id),
			contact_id INTEGER NOT NULL REFERENCES contacts(id),
			PRIMARY KEY (meeting_id, contact_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			establishment_id INTEGER NOT NULL REFERENCES establishments(id),
			title            TEXT NOT NULL,
			content          TEXT NOT NULL DEFAULT '',
			deleted          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS usage_windows (
			id                        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id                   INTEGER NOT NULL REFERENCES users(id),
			max_total_tokens          INTEGER NOT NULL DEFAULT 0,
			unlimited                 INTEGER NOT NULL DEFAULT 0,
			current_total_tokens      INTEGER NOT NULL DEFAULT 0,
			current_prompt_tokens     INTEGER NOT NULL DEFAULT 0,
			current_completion_tokens INTEGER NOT NULL DEFAULT 0,
			current_cached_tokens     INTEGER NOT NULL DEFAULT 0,
			start_period              TEXT NOT NULL,
			finish_period             TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS usage_events (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			window_id         INTEGER NOT NULL REFERENCES usage_windows(id),
			user_id           INTEGER NOT NULL REFERENCES users(id),
			total_tokens      INTEGER NOT NULL,
			prompt_tokens     INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			cached_tokens     INTEGER NOT NULL,
			created_at        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_establishments_user ON establishments(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_windows_user ON usage_windows(user_id, start_period)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// notFoundOn maps sql.ErrNoRows to the domain sentinel.
func notFoundOn(err error) error {
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	return err
}

// duplicateOn maps SQLite unique-constraint violations to the domain
// sentinel.
func duplicateOn(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrDuplicate
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	// RFC3339Nano accepts any fractional-second width, padded or not.
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// nullTime renders an optional timestamp for storage.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseNullTime reads an optional timestamp column.
func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
