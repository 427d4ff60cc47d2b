package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/metrics"
	"github.com/khanglvm/vidrank/internal/recommend"
	"github.com/khanglvm/vidrank/internal/search"
	"github.com/khanglvm/vidrank/internal/storage"
)

// ErrNotReady is returned by queries before the first snapshot is published.
var ErrNotReady = errors.New("catalog is not loaded yet")

// retireDelay is how long a replaced snapshot stays open for requests that
// picked it up just before the swap.
const retireDelay = 30 * time.Second

// Tracker records served queries. tracking.Tracker satisfies it.
type Tracker interface {
	Track(kind, keyword string, results int)
}

// App owns the published snapshot and answers queries against it.
type App struct {
	opts    Options
	tracker Tracker

	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// New returns an App with nothing published. Call Reload to build the first
// snapshot. tracker may be nil.
func New(opts Options, tracker Tracker) *App {
	return &App{opts: opts, tracker: tracker}
}

// Reload builds a new snapshot and publishes it. On failure the previously
// published snapshot, if any, keeps serving.
func (a *App) Reload(ctx context.Context) error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	snap, err := Build(ctx, a.opts)
	if err != nil {
		if a.current.Load() != nil {
			log := logging.Component("app")
			log.Error().Err(err).Msg("catalog reload failed, keeping previous snapshot")
		}
		return err
	}

	a.Publish(snap)
	return nil
}

// Publish swaps in snap. The replaced snapshot is closed after a delay.
func (a *App) Publish(snap *Snapshot) {
	old := a.current.Swap(snap)
	metrics.CatalogVideos.Set(float64(snap.Store.Len()))
	if old != nil {
		time.AfterFunc(retireDelay, func() {
			if err := old.Close(); err != nil {
				log := logging.Component("app")
				log.Warn().Err(err).Msg("failed to close retired snapshot")
			}
		})
	}
}

// Snapshot returns the published snapshot.
func (a *App) Snapshot() (*Snapshot, error) {
	snap := a.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Ready reports whether a snapshot is published.
func (a *App) Ready() bool {
	return a.current.Load() != nil
}

// Close closes the published snapshot.
func (a *App) Close() error {
	return a.current.Swap(nil).Close()
}

// Recommend runs a keyword recommendation on the current snapshot.
func (a *App) Recommend(keyword string) (recommend.Result, error) {
	snap, err := a.Snapshot()
	if err != nil {
		metrics.RecordQuery(storage.KindRecommend, 0, err)
		return recommend.Result{}, err
	}

	res, err := snap.Engine.Recommend(keyword)
	metrics.RecordQuery(storage.KindRecommend, res.Len(), err)
	if err == nil {
		a.track(storage.KindRecommend, keyword, res.Len())
	}
	return res, err
}

// Search runs a full-text search on the current snapshot.
func (a *App) Search(q string, opts search.Options) ([]search.Hit, error) {
	snap, err := a.Snapshot()
	if err != nil {
		metrics.RecordQuery(storage.KindSearch, 0, err)
		return nil, err
	}

	hits, err := snap.Index.Search(q, opts)
	metrics.RecordQuery(storage.KindSearch, len(hits), err)
	if err == nil {
		a.track(storage.KindSearch, q, len(hits))
	}
	return hits, err
}

// Stats summarizes the current snapshot.
func (a *App) Stats() (catalog.Stats, *Snapshot, error) {
	snap, err := a.Snapshot()
	if err != nil {
		return catalog.Stats{}, nil, err
	}
	return snap.Store.Stats(), snap, nil
}

func (a *App) track(kind, keyword string, results int) {
	if a.tracker != nil {
		a.tracker.Track(kind, keyword, results)
	}
}
