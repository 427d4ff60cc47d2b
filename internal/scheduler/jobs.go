package scheduler

import (
	"context"
	"time"

	"github.com/khanglvm/vidrank/internal/logging"
)

// Job names.
const (
	JobHistoryCleanup = "history-cleanup"
	JobCatalogReload  = "catalog-reload"
)

// Cleaner deletes history older than a retention window.
type Cleaner interface {
	Cleanup(retention time.Duration) (int64, error)
}

// Reloader rebuilds and republishes the catalog snapshot.
type Reloader interface {
	Reload(ctx context.Context) error
}

// CleanupJob deletes history older than retention. A zero retention keeps
// everything.
func CleanupJob(c Cleaner, retention time.Duration) JobFunc {
	return func(ctx context.Context) error {
		if retention <= 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := c.Cleanup(retention)
		if err != nil {
			return err
		}
		if n > 0 {
			log := logging.Component("scheduler")
			log.Info().Int64("rows", n).Dur("retention", retention).Msg("history cleaned up")
		}
		return nil
	}
}

// ReloadJob rebuilds the catalog. A failed reload leaves the published
// snapshot in place.
func ReloadJob(r Reloader) JobFunc {
	return func(ctx context.Context) error {
		return r.Reload(ctx)
	}
}
