package storage

import "time"

// Query kinds recorded in history.
const (
	KindRecommend = "recommend"
	KindSearch    = "search"
)

// SearchRecord is one served query.
type SearchRecord struct {
	// SearchID is a unique identifier for this query (UUID).
	SearchID string `json:"search_id"`

	// QueryHash is the SHA-256 of the keyword.
	QueryHash string `json:"query_hash"`

	// Kind is KindRecommend or KindSearch.
	Kind string `json:"kind"`

	Timestamp time.Time `json:"timestamp"`

	// ResultsCount is the number of entries returned.
	ResultsCount int `json:"results_count"`
}

// HistoryStats summarizes query history.
type HistoryStats struct {
	Total       int            `json:"total"`
	Empty       int            `json:"empty"`
	ByKind      map[string]int `json:"by_kind"`
	UniqueQuery int            `json:"unique_queries"`
	Last        time.Time      `json:"last,omitempty"`
}

// CatalogInfo describes the stored catalog snapshot.
type CatalogInfo struct {
	Count      int       `json:"count"`
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"imported_at"`
}
