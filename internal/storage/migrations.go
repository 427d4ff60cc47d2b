package storage

import (
	"fmt"

	"github.com/khanglvm/vidrank/internal/logging"
)

// migration is a single schema step.
type migration struct {
	version int
	name    string
	up      func() error
}

// runMigrations applies pending migrations in order.
func (s *SQLiteStorage) runMigrations() error {
	if s.db == nil {
		return nil
	}

	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	version, err := s.getCurrentMigrationVersion()
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "search_history", up: s.migration001SearchHistory},
		{version: 2, name: "catalog_snapshot", up: s.migration002CatalogSnapshot},
	}

	for _, m := range migrations {
		if version < m.version {
			log := logging.Component("storage")
			log.Info().Int("version", m.version).Str("name", m.name).Msg("running migration")
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version, m.name); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *SQLiteStorage) createMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

func (s *SQLiteStorage) getCurrentMigrationVersion() (int, error) {
	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *SQLiteStorage) setMigrationVersion(version int, name string) error {
	_, err := s.db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

func (s *SQLiteStorage) migration001SearchHistory() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS search_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			search_id TEXT NOT NULL UNIQUE,
			query_hash TEXT NOT NULL,
			kind TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			results_count INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create search_history table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_search_history_timestamp
		ON search_history(timestamp DESC)
	`); err != nil {
		return fmt.Errorf("failed to create search_history timestamp index: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) migration002CatalogSnapshot() error {
	// position is the catalog order and the only ordering ever used.
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			position INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			uploader TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			upload_date TEXT NOT NULL DEFAULT '',
			views INTEGER NOT NULL,
			likes INTEGER NOT NULL,
			comments INTEGER NOT NULL,
			duration_minutes REAL NOT NULL,
			engagement REAL NOT NULL,
			days_since_upload INTEGER NOT NULL,
			views_per_day REAL NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create videos table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS catalog_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create catalog_meta table: %w", err)
	}

	return nil
}
