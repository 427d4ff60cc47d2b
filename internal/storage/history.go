package storage

import (
	"fmt"
	"time"

	"github.com/khanglvm/vidrank/internal/logging"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordSearches writes records in one transaction. Disabled storage
// accepts and drops them.
func (s *SQLiteStorage) RecordSearches(records []SearchRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO search_history (search_id, query_hash, kind, timestamp, results_count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			r.SearchID,
			r.QueryHash,
			r.Kind,
			r.Timestamp.UTC().Format(timeLayout),
			r.ResultsCount,
		); err != nil {
			return fmt.Errorf("failed to record search %s: %w", r.SearchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit search history: %w", err)
	}
	return nil
}

// RecordSearch writes a single record.
func (s *SQLiteStorage) RecordSearch(record SearchRecord) error {
	return s.RecordSearches([]SearchRecord{record})
}

// HistoryStats summarizes history recorded at or after since.
func (s *SQLiteStorage) HistoryStats(since time.Time) (HistoryStats, error) {
	stats := HistoryStats{ByKind: map[string]int{}}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return stats, nil
	}

	cutoff := since.UTC().Format(timeLayout)

	var last string
	if err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN results_count = 0 THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT query_hash),
		       COALESCE(MAX(timestamp), '')
		FROM search_history WHERE timestamp >= ?
	`, cutoff).Scan(&stats.Total, &stats.Empty, &stats.UniqueQuery, &last); err != nil {
		return stats, fmt.Errorf("failed to query history stats: %w", err)
	}
	if last != "" {
		if t, err := time.Parse(timeLayout, last); err == nil {
			stats.Last = t
		}
	}

	rows, err := s.db.Query(`
		SELECT kind, COUNT(*) FROM search_history
		WHERE timestamp >= ? GROUP BY kind
	`, cutoff)
	if err != nil {
		return stats, fmt.Errorf("failed to query history by kind: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			logging.Warn().Err(err).Msg("failed to scan history row")
			continue
		}
		stats.ByKind[kind] = n
	}
	return stats, rows.Err()
}

// ClearHistory deletes every history row.
func (s *SQLiteStorage) ClearHistory() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return 0, nil
	}

	res, err := s.db.Exec("DELETE FROM search_history")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Cleanup removes history older than retention, then vacuums.
func (s *SQLiteStorage) Cleanup(retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return 0, nil
	}

	log := logging.Component("storage")
	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)

	res, err := s.db.Exec("DELETE FROM search_history WHERE timestamp < ?", cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("failed to cleanup search_history")
		return 0, nil
	}
	n, _ := res.RowsAffected()

	if n > 0 {
		if _, err := s.db.Exec("VACUUM"); err != nil {
			log.Warn().Err(err).Msg("failed to vacuum database")
		}
	}

	return n, nil
}
