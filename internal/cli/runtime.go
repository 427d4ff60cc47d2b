package cli

import (
	"context"
	"fmt"

	"github.com/khanglvm/vidrank/internal/app"
	"github.com/khanglvm/vidrank/internal/classifier"
	"github.com/khanglvm/vidrank/internal/config"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/storage"
	"github.com/khanglvm/vidrank/internal/tracking"
)

// runtime is everything a query-serving command needs, built from config.
type runtime struct {
	cfg        *config.Config
	storage    *storage.SQLiteStorage
	tracker    *tracking.Tracker
	classifier classifier.Classifier
	app        *app.App
}

// openStorage initializes the database. A failed init is logged and the
// storage stays disabled, so history and snapshot reads degrade to no-ops
// and ErrUnavailable.
func openStorage(cfg *config.Config) *storage.SQLiteStorage {
	store := storage.NewStorage(cfg.Storage.DBPath)
	if err := store.Init(); err != nil {
		logging.Warn().Err(err).Str("path", store.Path()).Msg("storage unavailable; history disabled")
	}
	return store
}

// newRuntime opens storage, starts history tracking and publishes the first
// catalog snapshot.
func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg, storage: openStorage(cfg)}

	if cfg.Storage.HistoryEnabled && rt.storage.Enabled() {
		rt.tracker = tracking.NewTracker(rt.storage)
	}

	c, err := classifier.New(cfg.Classifier.ClassifierSettings())
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	rt.classifier = c

	var tracker app.Tracker
	if rt.tracker != nil {
		tracker = rt.tracker
	}
	rt.app = app.New(app.Options{
		Catalog:    cfg.Catalog,
		BatchSize:  cfg.Classifier.BatchSize,
		Classifier: c,
		Snapshots:  rt.storage,
	}, tracker)

	if err := rt.app.Reload(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases resources in reverse order of acquisition. Pending history
// is flushed before the database closes.
func (rt *runtime) Close() {
	if rt.app != nil {
		rt.app.Close()
	}
	if rt.classifier != nil {
		if err := rt.classifier.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to stop classifier")
		}
	}
	if rt.tracker != nil {
		rt.tracker.Stop()
	}
	if rt.storage != nil {
		rt.storage.Close()
	}
}
