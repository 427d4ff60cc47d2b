package storage

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/performance"
)

// ErrNoSnapshot is returned when no catalog has been imported yet.
var ErrNoSnapshot = errors.New("no catalog snapshot has been imported")

// SaveCatalog replaces the stored snapshot with videos, in order, inside a
// single transaction. Readers never see a half-written catalog.
func (s *SQLiteStorage) SaveCatalog(videos []catalog.Video, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return ErrUnavailable
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM videos"); err != nil {
		return fmt.Errorf("failed to clear videos: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO videos (
			position, title, category, uploader, url, tags, upload_date,
			views, likes, comments, duration_minutes, engagement,
			days_since_upload, views_per_day
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for pos, v := range videos {
		tags := []byte("[]")
		if len(v.Tags) > 0 {
			if tags, err = json.Marshal(v.Tags); err != nil {
				return fmt.Errorf("failed to encode tags for %q: %w", v.Title, err)
			}
		}
		if _, err := stmt.Exec(
			pos, v.Title, v.Category, v.Uploader, v.URL, string(tags), v.UploadDate,
			v.Views, v.Likes, v.Comments, v.DurationMinutes, v.Engagement,
			v.DaysSinceUpload, v.ViewsPerDay,
		); err != nil {
			return fmt.Errorf("failed to insert video %d (%q): %w", pos+1, v.Title, err)
		}
	}

	meta := map[string]string{
		"count":       strconv.Itoa(len(videos)),
		"source":      source,
		"imported_at": time.Now().UTC().Format(timeLayout),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`
			INSERT INTO catalog_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return fmt.Errorf("failed to write catalog metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads the snapshot in position order. Performance is
// recomputed from views-per-day; Predicted is left for the prediction stage.
func (s *SQLiteStorage) LoadCatalog() ([]catalog.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil, ErrUnavailable
	}

	rows, err := s.db.Query(`
		SELECT title, category, uploader, url, tags, upload_date,
		       views, likes, comments, duration_minutes, engagement,
		       days_since_upload, views_per_day
		FROM videos ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []catalog.Video
	for rows.Next() {
		var v catalog.Video
		var tags string
		if err := rows.Scan(
			&v.Title, &v.Category, &v.Uploader, &v.URL, &tags, &v.UploadDate,
			&v.Views, &v.Likes, &v.Comments, &v.DurationMinutes, &v.Engagement,
			&v.DaysSinceUpload, &v.ViewsPerDay,
		); err != nil {
			return nil, fmt.Errorf("failed to scan video %d: %w", len(videos)+1, err)
		}
		if tags != "" && tags != "[]" {
			if err := json.Unmarshal([]byte(tags), &v.Tags); err != nil {
				return nil, fmt.Errorf("failed to decode tags for %q: %w", v.Title, err)
			}
		}
		v.Performance = performance.Bucket(v.ViewsPerDay)
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(videos) == 0 {
		return nil, ErrNoSnapshot
	}
	return videos, nil
}

// CatalogInfo reads snapshot metadata.
func (s *SQLiteStorage) CatalogInfo() (CatalogInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var info CatalogInfo
	if !s.enabled || s.db == nil {
		return info, ErrUnavailable
	}

	rows, err := s.db.Query("SELECT key, value FROM catalog_meta")
	if err != nil {
		return info, fmt.Errorf("failed to query catalog metadata: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return info, err
		}
		found = true
		switch k {
		case "count":
			info.Count, _ = strconv.Atoi(v)
		case "source":
			info.Source = v
		case "imported_at":
			info.ImportedAt, _ = time.Parse(timeLayout, v)
		}
	}
	if err := rows.Err(); err != nil {
		return info, err
	}
	if !found {
		return info, ErrNoSnapshot
	}
	return info, nil
}
