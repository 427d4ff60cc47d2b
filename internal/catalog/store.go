package catalog

import (
	"fmt"
)

// Store is an ordered, read-only snapshot of the annotated catalog with
// cached global maxima. It is safe for concurrent readers. A reload builds a
// new Store; an existing one never changes.
type Store struct {
	videos   []Video
	maxViews int64
	maxLikes int64
}

// Stats summarizes a Store.
type Stats struct {
	Count       int            `json:"count"`
	MaxViews    int64          `json:"max_views"`
	MaxLikes    int64          `json:"max_likes"`
	ByPredicted map[string]int `json:"by_predicted"`
	ByBucket    map[string]int `json:"by_bucket"`
}

// NewStore builds a Store from annotated videos, preserving their order.
// The input slice is copied. An empty input returns ErrDegenerateCatalog.
func NewStore(videos []Video) (*Store, error) {
	if len(videos) == 0 {
		return nil, ErrDegenerateCatalog
	}

	s := &Store{videos: make([]Video, len(videos))}
	copy(s.videos, videos)

	for i, v := range s.videos {
		if !v.Predicted.Valid() {
			return nil, fmt.Errorf("record %d (%q): invalid predicted category %d", i+1, v.Title, int(v.Predicted))
		}
		if v.Views > s.maxViews {
			s.maxViews = v.Views
		}
		if v.Likes > s.maxLikes {
			s.maxLikes = v.Likes
		}
	}

	return s, nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.videos)
}

// At returns the record at catalog position i.
func (s *Store) At(i int) Video {
	return s.videos[i]
}

// Each calls fn for every record in catalog order until fn returns false.
func (s *Store) Each(fn func(pos int, v Video) bool) {
	for i := range s.videos {
		if !fn(i, s.videos[i]) {
			return
		}
	}
}

// MaxViews is the largest view count in the whole catalog.
func (s *Store) MaxViews() int64 {
	return s.maxViews
}

// MaxLikes is the largest like count in the whole catalog.
func (s *Store) MaxLikes() int64 {
	return s.maxLikes
}

// Videos returns a copy of all records in catalog order.
func (s *Store) Videos() []Video {
	out := make([]Video, len(s.videos))
	copy(out, s.videos)
	return out
}

// Stats computes summary counts for reporting.
func (s *Store) Stats() Stats {
	st := Stats{
		Count:       len(s.videos),
		MaxViews:    s.maxViews,
		MaxLikes:    s.maxLikes,
		ByPredicted: make(map[string]int, 3),
		ByBucket:    make(map[string]int, 3),
	}
	for _, v := range s.videos {
		st.ByPredicted[v.Predicted.String()]++
		st.ByBucket[v.Performance.String()]++
	}
	return st
}
