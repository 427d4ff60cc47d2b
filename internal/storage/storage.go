/*
Package storage implements the SQLite persistence layer: the imported
catalog snapshot and the hashed query history.

The database defaults to ~/.vidrank/vidrank.db and uses modernc.org/sqlite
(pure Go, no CGo).

History operations degrade gracefully: if the database cannot be opened,
recording and cleanup become no-ops so that serving is never blocked by an
optional feature. Catalog operations do not degrade; a missing snapshot is an
error the caller must handle.
*/
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/logging"

	_ "modernc.org/sqlite"
)

// ErrUnavailable is returned by catalog operations when the database could
// not be opened.
var ErrUnavailable = errors.New("storage is unavailable")

// Storage defines the persistent storage operations.
type Storage interface {
	// Init opens the database and runs migrations.
	Init() error

	// RecordSearches writes a batch of query history records in one transaction.
	RecordSearches(records []SearchRecord) error

	// HistoryStats summarizes query history since a given time.
	HistoryStats(since time.Time) (HistoryStats, error)

	// ClearHistory deletes all query history and returns the number of rows removed.
	ClearHistory() (int64, error)

	// Cleanup removes history older than retention and returns the number of rows removed.
	Cleanup(retention time.Duration) (int64, error)

	// SaveCatalog replaces the stored catalog snapshot.
	SaveCatalog(videos []catalog.Video, source string) error

	// LoadCatalog returns the stored catalog in position order.
	LoadCatalog() ([]catalog.Video, error)

	// CatalogInfo describes the stored snapshot.
	CatalogInfo() (CatalogInfo, error)

	// Close closes the database connection.
	Close() error
}

// SQLiteStorage implements Storage on SQLite.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// DefaultPath returns ~/.vidrank/vidrank.db, or "" if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vidrank", "vidrank.db")
}

// NewStorage creates a storage instance for dbPath. An empty path means
// DefaultPath. Nothing is opened until Init.
func NewStorage(dbPath string) *SQLiteStorage {
	if dbPath == "" {
		dbPath = DefaultPath()
	}
	if dbPath == "" {
		logging.Warn().Msg("failed to resolve home directory; storage disabled")
		return &SQLiteStorage{enabled: false}
	}

	return &SQLiteStorage{
		dbPath:  dbPath,
		enabled: true,
	}
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Enabled reports whether the database is usable.
func (s *SQLiteStorage) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && s.db != nil
}

// Init opens the database and runs migrations.
//
// If initialization fails, storage is disabled and history operations become
// no-ops. The error is still returned so callers can report it.
func (s *SQLiteStorage) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		log := logging.Component("storage")

		fail := func(err error) {
			initErr = err
			s.enabled = false
			if s.db != nil {
				s.db.Close()
				s.db = nil
			}
			log.Warn().Err(err).Str("path", s.dbPath).Msg("storage disabled")
		}

		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			fail(fmt.Errorf("failed to create db directory: %w", err))
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			fail(fmt.Errorf("failed to open database: %w", err))
			return
		}
		// One writer at a time; the tracker and the importer share it.
		db.SetMaxOpenConns(1)
		s.db = db

		if err := db.Ping(); err != nil {
			fail(fmt.Errorf("failed to ping database: %w", err))
			return
		}

		if err := s.runMigrations(); err != nil {
			fail(fmt.Errorf("failed to run migrations: %w", err))
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// HashQuery creates a SHA-256 hash of a keyword so history never stores the
// text itself.
func HashQuery(query string) string {
	hash := sha256.Sum256([]byte(query))
	return hex.EncodeToString(hash[:])
}
