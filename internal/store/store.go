package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS logs (
		id             TEXT PRIMARY KEY,
		category       TEXT NOT NULL DEFAULT '',
		description    TEXT NOT NULL DEFAULT '',
		start_ms       INTEGER NOT NULL,
		end_ms         INTEGER,
		duration       INTEGER NOT NULL DEFAULT 0,
		phase_work     INTEGER,
		phase_rest     INTEGER,
		images         TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_logs_start    ON logs(start_ms);
	CREATE INDEX IF NOT EXISTS idx_logs_category ON logs(category);

	CREATE TABLE IF NOT EXISTS categories (
		position INTEGER NOT NULL,
		name     TEXT PRIMARY KEY,
		color    TEXT NOT NULL DEFAULT '#95A5A6',
		icon     TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS goals (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		category       TEXT NOT NULL DEFAULT '',
		target_minutes INTEGER NOT NULL DEFAULT 0,
		done           INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS blobs (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('work_duration', '1500'),
		('rest_duration', '300');
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if n == 0 {
		return s.ReplaceCategories(DefaultCategories())
	}
	return nil
}

// DefaultDBPath returns ~/.config/pomolog/pomolog.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "pomolog", "pomolog.db"), nil
}
