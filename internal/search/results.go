package search

import (
	"errors"
	"strings"

	"github.com/khanglvm/vidrank/internal/catalog"
)

// Hit is one search result.
type Hit struct {
	Video     catalog.Video `json:"video"`
	Position  int           `json:"position"`
	Relevance float64       `json:"relevance"`
	Score     float64       `json:"score"`
}

// Sort names a result ordering.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortScore     Sort = "score"
	SortViews     Sort = "views"
	SortLikes     Sort = "likes"
	SortRecent    Sort = "recent"
)

// ErrUnknownSort is returned for a sort name not in Sorts.
var ErrUnknownSort = errors.New("unknown sort")

// Sorts lists the accepted orderings.
var Sorts = []Sort{SortRelevance, SortScore, SortViews, SortLikes, SortRecent}

// sortOrders are bleve sort keys. Catalog position breaks every tie.
var sortOrders = map[Sort][]string{
	SortRelevance: {"-_score", "position"},
	SortScore:     {"-score", "-_score", "position"},
	SortViews:     {"-views", "position"},
	SortLikes:     {"-likes", "position"},
	SortRecent:    {"days_since_upload", "position"},
}

// ParseSort accepts a sort name case-insensitively. Empty means relevance.
func ParseSort(s string) (Sort, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortRelevance, nil
	}
	if _, ok := sortOrders[Sort(s)]; ok {
		return Sort(s), nil
	}
	return "", ErrUnknownSort
}
