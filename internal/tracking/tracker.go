/*
Package tracking records served queries into the history store without ever
blocking a request.

Queries are queued on a buffered channel and written in batches by a single
background goroutine. When the queue is full the record is dropped and
counted. Keywords are hashed before they leave the request path.
*/
package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/metrics"
	"github.com/khanglvm/vidrank/internal/storage"
)

const (
	// eventQueueSize is the buffer size; beyond it records are dropped.
	eventQueueSize = 1000

	// batchFlushSize triggers an immediate flush.
	batchFlushSize = 50

	// flushInterval is how often pending records are written.
	flushInterval = 250 * time.Millisecond
)

// Recorder persists batches of search records.
type Recorder interface {
	RecordSearches(records []storage.SearchRecord) error
}

// Tracker queues search records and flushes them in the background.
type Tracker struct {
	recorder Recorder
	queue    chan storage.SearchRecord
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	enabled  bool
	mu       sync.RWMutex
	now      func() time.Time
}

// NewTracker starts a tracker writing to r. A nil recorder yields a
// disabled tracker.
func NewTracker(r Recorder) *Tracker {
	t := &Tracker{
		recorder: r,
		queue:    make(chan storage.SearchRecord, eventQueueSize),
		stopChan: make(chan struct{}),
		enabled:  r != nil,
		now:      time.Now,
	}

	t.wg.Add(1)
	go t.processEvents()

	return t
}

// Track queues one query. It never blocks.
func (t *Tracker) Track(kind, keyword string, results int) {
	if t == nil || !t.IsEnabled() {
		return
	}

	rec := storage.SearchRecord{
		SearchID:     uuid.NewString(),
		QueryHash:    storage.HashQuery(keyword),
		Kind:         kind,
		Timestamp:    t.now(),
		ResultsCount: results,
	}

	select {
	case t.queue <- rec:
	default:
		metrics.HistoryDropped.Inc()
		log := logging.Component("tracking")
		log.Warn().Str("kind", kind).Msg("history queue full, dropping record")
	}
}

// Stop flushes queued records and stops the background writer.
func (t *Tracker) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
	})
}

// Disable makes Track a no-op.
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

// IsEnabled reports whether records are accepted.
func (t *Tracker) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled && t.recorder != nil
}

// QueueLen is the number of records waiting to be written.
func (t *Tracker) QueueLen() int {
	return len(t.queue)
}

func (t *Tracker) processEvents() {
	defer t.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]storage.SearchRecord, 0, batchFlushSize)

	for {
		select {
		case rec := <-t.queue:
			batch = append(batch, rec)
			if len(batch) >= batchFlushSize {
				t.flush(batch)
				batch = make([]storage.SearchRecord, 0, batchFlushSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				t.flush(batch)
				batch = make([]storage.SearchRecord, 0, batchFlushSize)
			}

		case <-t.stopChan:
			// Drain whatever is still queued, then exit.
			for {
				select {
				case rec := <-t.queue:
					batch = append(batch, rec)
					if len(batch) >= batchFlushSize {
						t.flush(batch)
						batch = make([]storage.SearchRecord, 0, batchFlushSize)
					}
				default:
					t.flush(batch)
					return
				}
			}
		}
	}
}

func (t *Tracker) flush(batch []storage.SearchRecord) {
	if len(batch) == 0 || t.recorder == nil {
		return
	}

	err := t.recorder.RecordSearches(batch)
	metrics.RecordHistoryFlush(err)
	if err != nil {
		log := logging.Component("tracking")
		log.Warn().Err(err).Int("records", len(batch)).Msg("failed to record search history")
	}
}
