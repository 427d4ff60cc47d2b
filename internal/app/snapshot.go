/*
Package app assembles a servable catalog snapshot and publishes it.

A snapshot is built in one pass: read the catalog source, annotate every
record with a predicted performance category, build the store with its
cached maxima, then the recommendation engine and the search index over the
same store. Nothing is published until every step has succeeded. Handlers
receive the snapshot by reference and never observe a partial build.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/config"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/metrics"
	"github.com/khanglvm/vidrank/internal/predict"
	"github.com/khanglvm/vidrank/internal/recommend"
	"github.com/khanglvm/vidrank/internal/search"
)

// ErrNoCatalogPath is returned when the CSV source has no path configured.
var ErrNoCatalogPath = errors.New("catalog path is not set (use --catalog or catalog.path)")

// CatalogLoader reads a previously imported catalog snapshot.
type CatalogLoader interface {
	LoadCatalog() ([]catalog.Video, error)
}

// Options configures Build.
type Options struct {
	Catalog    config.CatalogConfig
	BatchSize  int
	Classifier predict.Classifier

	// Snapshots is required when Catalog.Source is sqlite.
	Snapshots CatalogLoader
}

// Snapshot is one fully built, immutable catalog.
type Snapshot struct {
	Store   *catalog.Store
	Engine  *recommend.Engine
	Index   *search.Index
	Source  string
	BuiltAt time.Time

	// Report is nil for sources other than CSV.
	Report *catalog.LoadReport
}

// Close releases the search index.
func (s *Snapshot) Close() error {
	if s == nil || s.Index == nil {
		return nil
	}
	return s.Index.Close()
}

// Build runs the whole pipeline and returns a snapshot ready to serve.
func Build(ctx context.Context, opts Options) (*Snapshot, error) {
	start := time.Now()
	snap, err := build(ctx, opts)
	videos := 0
	if snap != nil {
		videos = snap.Store.Len()
	}
	metrics.RecordCatalogLoad(videos, time.Since(start), err)
	return snap, err
}

func build(ctx context.Context, opts Options) (*Snapshot, error) {
	log := logging.Component("app")

	raw, source, report, err := readSource(opts)
	if err != nil {
		return nil, err
	}

	annotated, err := predict.Annotate(ctx, raw, opts.Classifier, predict.Options{BatchSize: opts.BatchSize})
	if err != nil {
		return nil, fmt.Errorf("failed to annotate catalog: %w", err)
	}

	store, err := catalog.NewStore(annotated)
	if err != nil {
		return nil, err
	}

	engine, err := recommend.NewEngine(store)
	if err != nil {
		return nil, err
	}

	index, err := search.Build(store)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("source", source).
		Int("videos", store.Len()).
		Int64("max_views", store.MaxViews()).
		Int64("max_likes", store.MaxLikes()).
		Msg("catalog snapshot built")

	return &Snapshot{
		Store:   store,
		Engine:  engine,
		Index:   index,
		Source:  source,
		BuiltAt: time.Now().UTC(),
		Report:  report,
	}, nil
}

func readSource(opts Options) ([]catalog.Video, string, *catalog.LoadReport, error) {
	switch opts.Catalog.Source {
	case "", config.SourceCSV:
		if opts.Catalog.Path == "" {
			return nil, "", nil, ErrNoCatalogPath
		}
		videos, report, err := catalog.LoadCSVFile(opts.Catalog.Path, catalog.LoadOptions{
			InvalidRows: catalog.InvalidRowPolicy(opts.Catalog.InvalidRows),
		})
		if err != nil {
			return nil, "", nil, err
		}
		return videos, opts.Catalog.Path, report, nil

	case config.SourceSQLite:
		if opts.Snapshots == nil {
			return nil, "", nil, errors.New("sqlite catalog source requires storage")
		}
		videos, err := opts.Snapshots.LoadCatalog()
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
		}
		return videos, config.SourceSQLite, nil, nil

	default:
		return nil, "", nil, fmt.Errorf("unknown catalog source %q", opts.Catalog.Source)
	}
}
