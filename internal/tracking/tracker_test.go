package tracking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/khanglvm/vidrank/internal/storage"
)

// mockRecorder is an in-memory Recorder.
type mockRecorder struct {
	mu      sync.Mutex
	records []storage.SearchRecord
	batches int
	err     error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{}
}

func (m *mockRecorder) RecordSearches(records []storage.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTracker_Track(t *testing.T) {
	rec := newMockRecorder()
	tracker := NewTracker(rec)
	defer tracker.Stop()

	tracker.Track(storage.KindRecommend, "machine learning", 5)
	waitFor(t, func() bool { return rec.count() == 1 })

	rec.mu.Lock()
	got := rec.records[0]
	rec.mu.Unlock()

	if got.Kind != storage.KindRecommend || got.ResultsCount != 5 {
		t.Errorf("Unexpected record: %+v", got)
	}
	if got.QueryHash != storage.HashQuery("machine learning") {
		t.Error("Keyword should be stored as its hash")
	}
	if len(got.SearchID) != 36 {
		t.Errorf("Expected UUID search id, got %q", got.SearchID)
	}
}

func TestTracker_FlushOnStop(t *testing.T) {
	rec := newMockRecorder()
	tracker := NewTracker(rec)

	for i := 0; i < 120; i++ {
		tracker.Track(storage.KindSearch, "ai", i)
	}
	tracker.Stop()

	if rec.count() != 120 {
		t.Errorf("Expected 120 records after Stop, got %d", rec.count())
	}
}

func TestTracker_Batches(t *testing.T) {
	rec := newMockRecorder()
	tracker := NewTracker(rec)

	for i := 0; i < batchFlushSize*2; i++ {
		tracker.Track(storage.KindSearch, "ai", 1)
	}
	tracker.Stop()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.batches > batchFlushSize {
		t.Errorf("Records should be written in batches, got %d writes", rec.batches)
	}
}

func TestTracker_Disable(t *testing.T) {
	rec := newMockRecorder()
	tracker := NewTracker(rec)

	tracker.Disable()
	if tracker.IsEnabled() {
		t.Error("Expected tracker to be disabled")
	}

	tracker.Track(storage.KindSearch, "ai", 1)
	tracker.Stop()

	if rec.count() != 0 {
		t.Errorf("Disabled tracker should not record, got %d", rec.count())
	}
}

func TestTracker_NilRecorder(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Stop()

	if tracker.IsEnabled() {
		t.Error("Tracker without a recorder should be disabled")
	}
	tracker.Track(storage.KindSearch, "ai", 1)
}

func TestTracker_NilSafe(t *testing.T) {
	var tracker *Tracker
	tracker.Track(storage.KindSearch, "ai", 1)
	tracker.Stop()
}

func TestTracker_RecorderError(t *testing.T) {
	rec := newMockRecorder()
	rec.err = errors.New("disk full")
	tracker := NewTracker(rec)

	tracker.Track(storage.KindSearch, "ai", 1)
	tracker.Stop()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.batches != 1 {
		t.Errorf("Expected one failed write attempt, got %d", rec.batches)
	}
}

func TestTracker_QueueFullDrops(t *testing.T) {
	rec := newMockRecorder()
	tracker := &Tracker{
		recorder: rec,
		queue:    make(chan storage.SearchRecord, 1),
		stopChan: make(chan struct{}),
		enabled:  true,
		now:      time.Now,
	}

	done := make(chan struct{})
	go func() {
		tracker.Track(storage.KindSearch, "a", 1)
		tracker.Track(storage.KindSearch, "b", 1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Track blocked on a full queue")
	}
	if tracker.QueueLen() != 1 {
		t.Errorf("Expected 1 queued record, got %d", tracker.QueueLen())
	}
}
