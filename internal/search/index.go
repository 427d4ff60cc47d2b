/*
Package search provides full-text relevance search over a catalog snapshot.

It complements the literal substring filter used for recommendations: a
search query is analyzed and matched against title, category, uploader and
tags with bleve's BM25 scoring, and results can be ordered by relevance or
by one of the catalog metrics. Every hit carries the same composite score
recommendations use.

An Index is built once per snapshot, in memory, and never updated.
*/
package search

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/scoring"
)

// Result count bounds.
const (
	DefaultCount = 9
	MaxCount     = 50
)

var (
	// ErrEmptyQuery is returned for a blank query string.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrInvalidCount is returned for a count outside [1, MaxCount].
	ErrInvalidCount = fmt.Errorf("count must be between 1 and %d", MaxCount)

	// ErrClosed is returned by queries on a closed index.
	ErrClosed = errors.New("search index is closed")
)

// Index is a read-only search index over one catalog.Store.
type Index struct {
	bleveIndex bleve.Index
	store      *catalog.Store
	mu         sync.RWMutex
}

// Build indexes every record of store. Document IDs are catalog positions.
func Build(store *catalog.Store) (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	batch := index.NewBatch()
	if err := addVideos(batch, store); err != nil {
		index.Close()
		return nil, err
	}

	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to batch index videos: %w", err)
	}

	log := logging.Component("search")
	log.Debug().Int("videos", store.Len()).Msg("search index built")
	return &Index{bleveIndex: index, store: store}, nil
}

// documentIndexer is the part of *bleve.Batch that addVideos needs.
type documentIndexer interface {
	Index(id string, data interface{}) error
}

// addVideos stages one document per record. The first failure aborts.
func addVideos(batch documentIndexer, store *catalog.Store) error {
	var indexErr error
	store.Each(func(pos int, v catalog.Video) bool {
		doc := map[string]interface{}{
			"title":             v.Title,
			"category":          v.Category,
			"uploader":          v.Uploader,
			"views":             float64(v.Views),
			"likes":             float64(v.Likes),
			"days_since_upload": float64(v.DaysSinceUpload),
			"score":             scoring.ScoreIn(store, v),
			"position":          float64(pos),
		}
		if len(v.Tags) > 0 {
			doc["tags"] = v.Tags
		}
		if err := batch.Index(strconv.Itoa(pos), doc); err != nil {
			indexErr = fmt.Errorf("failed to index video %d (%q): %w", pos, v.Title, err)
			return false
		}
		return true
	})
	return indexErr
}

// buildIndexMapping creates the document mapping: analyzed text for the
// descriptive fields, numeric doc values for sorting.
func buildIndexMapping() mapping.IndexMapping {
	videoMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"title", "category", "uploader", "tags"} {
		videoMapping.AddFieldMappingsAt(field, bleve.NewTextFieldMapping())
	}

	for _, field := range []string{"views", "likes", "days_since_upload", "score", "position"} {
		fm := bleve.NewNumericFieldMapping()
		fm.IncludeInAll = false
		videoMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = videoMapping
	return indexMapping
}

// Options controls a search.
type Options struct {
	// Count is the number of hits, 1..MaxCount. Zero means DefaultCount.
	Count int
	Sort  Sort
}

// Search runs a match query and returns up to opts.Count hits.
func (i *Index) Search(q string, opts Options) ([]Hit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}

	count := opts.Count
	if count == 0 {
		count = DefaultCount
	}
	if count < 1 || count > MaxCount {
		return nil, ErrInvalidCount
	}

	sortBy := opts.Sort
	if sortBy == "" {
		sortBy = SortRelevance
	}
	order, ok := sortOrders[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSort, sortBy)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.bleveIndex == nil {
		return nil, ErrClosed
	}

	req := bleve.NewSearchRequestOptions(buildMatchQuery(q), count, 0, false)
	req.SortBy(order)

	results, err := i.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	return i.convertHits(results), nil
}

// Count returns the number of indexed videos.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.bleveIndex == nil {
		return 0, ErrClosed
	}

	n, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return n, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		err := i.bleveIndex.Close()
		i.bleveIndex = nil
		return err
	}
	return nil
}

func buildMatchQuery(text string) query.Query {
	return bleve.NewMatchQuery(text)
}

func (i *Index) convertHits(results *bleve.SearchResult) []Hit {
	hits := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		pos, err := strconv.Atoi(h.ID)
		if err != nil || pos < 0 || pos >= i.store.Len() {
			continue
		}
		v := i.store.At(pos)
		hits = append(hits, Hit{
			Video:     v,
			Position:  pos,
			Relevance: h.Score,
			Score:     scoring.ScoreIn(i.store, v),
		})
	}
	return hits
}
