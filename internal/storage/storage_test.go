package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/performance"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestInit verifies database initialization and schema creation.
func TestInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	s := NewStorage(dbPath)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}
	if !s.Enabled() {
		t.Error("Storage should be enabled after Init")
	}

	version, err := s.getCurrentMigrationVersion()
	if err != nil {
		t.Fatalf("getCurrentMigrationVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected schema version 2, got %d", version)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first := NewStorage(dbPath)
	if err := first.Init(); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	first.Close()

	second := NewStorage(dbPath)
	if err := second.Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	defer second.Close()
}

func TestDefaultPath(t *testing.T) {
	if p := DefaultPath(); p != "" && filepath.Base(p) != "vidrank.db" {
		t.Errorf("Unexpected default path: %s", p)
	}
}

// TestHashQuery verifies query hashing consistency.
func TestHashQuery(t *testing.T) {
	hash1 := HashQuery("machine learning")
	hash2 := HashQuery("machine learning")

	if hash1 != hash2 {
		t.Error("HashQuery produced inconsistent results")
	}
	if len(hash1) != 64 {
		t.Errorf("Expected hash length 64, got %d", len(hash1))
	}
	if hash1 == HashQuery("Machine learning") {
		t.Error("Different keywords should hash differently")
	}
}

func TestRecordSearchesAndStats(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	records := []SearchRecord{
		{SearchID: "a", QueryHash: HashQuery("ai"), Kind: KindRecommend, Timestamp: now.Add(-time.Minute), ResultsCount: 5},
		{SearchID: "b", QueryHash: HashQuery("ai"), Kind: KindSearch, Timestamp: now, ResultsCount: 9},
		{SearchID: "c", QueryHash: HashQuery("quantum"), Kind: KindRecommend, Timestamp: now, ResultsCount: 0},
		{SearchID: "old", QueryHash: HashQuery("old"), Kind: KindRecommend, Timestamp: now.Add(-48 * time.Hour), ResultsCount: 1},
	}
	if err := s.RecordSearches(records); err != nil {
		t.Fatalf("RecordSearches failed: %v", err)
	}

	stats, err := s.HistoryStats(now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("HistoryStats failed: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Expected 3 records in the last hour, got %d", stats.Total)
	}
	if stats.Empty != 1 {
		t.Errorf("Expected 1 empty result, got %d", stats.Empty)
	}
	if stats.UniqueQuery != 2 {
		t.Errorf("Expected 2 unique queries, got %d", stats.UniqueQuery)
	}
	if stats.ByKind[KindRecommend] != 2 || stats.ByKind[KindSearch] != 1 {
		t.Errorf("Unexpected kind counts: %v", stats.ByKind)
	}
	if stats.Last.IsZero() {
		t.Error("Expected last timestamp to be set")
	}
}

func TestRecordSearchDuplicateID(t *testing.T) {
	s := newTestStorage(t)
	rec := SearchRecord{SearchID: "same", QueryHash: "h", Kind: KindSearch, Timestamp: time.Now()}

	if err := s.RecordSearch(rec); err != nil {
		t.Fatalf("RecordSearch failed: %v", err)
	}
	if err := s.RecordSearch(rec); err != nil {
		t.Fatalf("duplicate RecordSearch should be ignored, got: %v", err)
	}

	stats, _ := s.HistoryStats(time.Time{})
	if stats.Total != 1 {
		t.Errorf("Expected 1 record, got %d", stats.Total)
	}
}

func TestCleanup(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	s.RecordSearches([]SearchRecord{
		{SearchID: "new", QueryHash: "h1", Kind: KindSearch, Timestamp: now},
		{SearchID: "old", QueryHash: "h2", Kind: KindSearch, Timestamp: now.Add(-40 * 24 * time.Hour)},
	})

	n, err := s.Cleanup(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 row removed, got %d", n)
	}

	stats, _ := s.HistoryStats(time.Time{})
	if stats.Total != 1 {
		t.Errorf("Expected 1 record left, got %d", stats.Total)
	}
}

func TestClearHistory(t *testing.T) {
	s := newTestStorage(t)
	s.RecordSearches([]SearchRecord{
		{SearchID: "1", QueryHash: "h", Kind: KindSearch, Timestamp: time.Now()},
		{SearchID: "2", QueryHash: "h", Kind: KindSearch, Timestamp: time.Now()},
	})

	n, err := s.ClearHistory()
	if err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 rows removed, got %d", n)
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.LoadCatalog(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Expected ErrNoSnapshot before import, got %v", err)
	}

	videos := []catalog.Video{
		{Title: "Zeta", Category: "Z", Tags: []string{"a", "b"}, Views: 10, Likes: 1, Comments: 2, DurationMinutes: 1.5, Engagement: -0.2, DaysSinceUpload: 3, ViewsPerDay: 5000},
		{Title: "Alpha", Category: "A", Uploader: "me", URL: "https://example.com", UploadDate: "2024-05-01", Views: 20, ViewsPerDay: 999},
	}
	if err := s.SaveCatalog(videos, "videos.csv"); err != nil {
		t.Fatalf("SaveCatalog failed: %v", err)
	}

	got, err := s.LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 videos, got %d", len(got))
	}
	if got[0].Title != "Zeta" || got[1].Title != "Alpha" {
		t.Errorf("Order not preserved: %q, %q", got[0].Title, got[1].Title)
	}
	if len(got[0].Tags) != 2 || got[0].Tags[1] != "b" {
		t.Errorf("Tags not preserved: %v", got[0].Tags)
	}
	if got[0].Engagement != -0.2 || got[0].DurationMinutes != 1.5 {
		t.Errorf("Real fields not preserved: %+v", got[0])
	}
	if got[1].Uploader != "me" || got[1].UploadDate != "2024-05-01" {
		t.Errorf("Descriptive fields not preserved: %+v", got[1])
	}
	if got[0].Performance != performance.High || got[1].Performance != performance.Low {
		t.Errorf("Performance should be recomputed: %v, %v", got[0].Performance, got[1].Performance)
	}

	info, err := s.CatalogInfo()
	if err != nil {
		t.Fatalf("CatalogInfo failed: %v", err)
	}
	if info.Count != 2 || info.Source != "videos.csv" || info.ImportedAt.IsZero() {
		t.Errorf("Unexpected catalog info: %+v", info)
	}
}

func TestSaveCatalogReplaces(t *testing.T) {
	s := newTestStorage(t)

	s.SaveCatalog([]catalog.Video{{Title: "one"}, {Title: "two"}, {Title: "three"}}, "first.csv")
	if err := s.SaveCatalog([]catalog.Video{{Title: "only"}}, "second.csv"); err != nil {
		t.Fatalf("SaveCatalog failed: %v", err)
	}

	got, err := s.LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "only" {
		t.Errorf("Expected snapshot to be replaced, got %+v", got)
	}
}

// TestGracefulDegradation verifies behavior when the database is unavailable.
func TestGracefulDegradation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewStorage(filepath.Join(blocker, "sub", "test.db"))

	if err := s.Init(); err == nil {
		t.Error("Init should report the failure")
	}
	if s.Enabled() {
		t.Error("Storage should be disabled after a failed Init")
	}

	if err := s.RecordSearch(SearchRecord{SearchID: "x", Timestamp: time.Now()}); err != nil {
		t.Errorf("RecordSearch should return nil on disabled storage, got: %v", err)
	}
	if n, err := s.Cleanup(time.Hour); err != nil || n != 0 {
		t.Errorf("Cleanup should be a no-op, got %d, %v", n, err)
	}
	stats, err := s.HistoryStats(time.Time{})
	if err != nil || stats.Total != 0 {
		t.Errorf("HistoryStats should be empty, got %+v, %v", stats, err)
	}

	if _, err := s.LoadCatalog(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("LoadCatalog should fail with ErrUnavailable, got %v", err)
	}
	if err := s.SaveCatalog(nil, ""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("SaveCatalog should fail with ErrUnavailable, got %v", err)
	}
}
