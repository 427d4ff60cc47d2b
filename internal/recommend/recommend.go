/*
Package recommend answers keyword queries against a published catalog.

A query keeps every record whose title or category contains the keyword as a
case-insensitive substring, orders the matches by predicted performance
(High before Medium before Low, catalog order within a level), keeps the
first MaxResults and scores the best one. The first entry is a Top carrying
the score; the rest are Ranked entries carrying their 1-based position.

The engine is pure: it reads an immutable catalog.Store and never changes it.
*/
package recommend

import (
	"sort"
	"strconv"
	"strings"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/scoring"
)

// MaxResults caps the number of entries returned.
const MaxResults = 5

// TopLabel is the display label of the first entry.
const TopLabel = "Top"

// EmptyMessage is shown to users when nothing matched.
const EmptyMessage = "No videos found for the keyword."

// Entry is either a Top or a Ranked.
type Entry interface {
	Record() catalog.Video
	Label() string
	isEntry()
}

// Top is the best match and the only scored entry.
type Top struct {
	Video catalog.Video
	Score float64
}

// Ranked is a match after the first, labelled with its position (2..MaxResults).
type Ranked struct {
	Video catalog.Video
	Rank  int
}

// Record implements Entry.
func (t Top) Record() catalog.Video { return t.Video }

// Label implements Entry.
func (t Top) Label() string { return TopLabel }

func (Top) isEntry() {}

// Record implements Entry.
func (r Ranked) Record() catalog.Video { return r.Video }

// Label implements Entry.
func (r Ranked) Label() string { return strconv.Itoa(r.Rank) }

func (Ranked) isEntry() {}

// Result is the outcome of one query. When nothing matched, Top is nil and
// Rest is empty; that is a normal result, not an error.
type Result struct {
	Keyword string
	Top     *Top
	Rest    []Ranked
}

// Found reports whether any record matched.
func (r Result) Found() bool {
	return r.Top != nil
}

// Len is the number of entries, Top included.
func (r Result) Len() int {
	if r.Top == nil {
		return 0
	}
	return 1 + len(r.Rest)
}

// Entries returns the entries in ranked order.
func (r Result) Entries() []Entry {
	if r.Top == nil {
		return nil
	}
	out := make([]Entry, 0, r.Len())
	out = append(out, *r.Top)
	for _, e := range r.Rest {
		out = append(out, e)
	}
	return out
}

// Engine serves queries over one catalog snapshot.
type Engine struct {
	store *catalog.Store
}

// NewEngine binds an engine to store. A nil or empty store is refused.
func NewEngine(store *catalog.Store) (*Engine, error) {
	if store == nil || store.Len() == 0 {
		return nil, catalog.ErrDegenerateCatalog
	}
	return &Engine{store: store}, nil
}

// Store returns the snapshot the engine reads.
func (e *Engine) Store() *catalog.Store {
	return e.store
}

// Recommend runs a keyword query. The keyword is lowercased and otherwise
// used as-is: no trimming, no tokenizing.
func (e *Engine) Recommend(keyword string) (Result, error) {
	if e == nil || e.store == nil || e.store.Len() == 0 {
		return Result{}, catalog.ErrDegenerateCatalog
	}

	matches := Filter(e.store, keyword)
	res := Result{Keyword: keyword}
	if len(matches) == 0 {
		return res, nil
	}

	Rank(matches)
	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}

	res.Top = &Top{
		Video: matches[0],
		Score: scoring.ScoreIn(e.store, matches[0]),
	}
	if len(matches) > 1 {
		res.Rest = make([]Ranked, 0, len(matches)-1)
		for i, v := range matches[1:] {
			res.Rest = append(res.Rest, Ranked{Video: v, Rank: i + 2})
		}
	}
	return res, nil
}

// Filter returns, in catalog order, the records whose lowercased title or
// category contains the lowercased keyword.
func Filter(store *catalog.Store, keyword string) []catalog.Video {
	kw := strings.ToLower(keyword)
	var out []catalog.Video
	store.Each(func(_ int, v catalog.Video) bool {
		if Matches(v, kw) {
			out = append(out, v)
		}
		return true
	})
	return out
}

// Matches reports whether lowered is a substring of v's lowercased title or
// category. lowered must already be lowercase.
func Matches(v catalog.Video, lowered string) bool {
	return strings.Contains(strings.ToLower(v.Title), lowered) ||
		strings.Contains(strings.ToLower(v.Category), lowered)
}

// Rank sorts videos by predicted rank weight, highest first. The sort is
// stable: equal weights keep their incoming order.
func Rank(videos []catalog.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Predicted.RankWeight() > videos[j].Predicted.RankWeight()
	})
}
