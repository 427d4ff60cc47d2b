package recommend

import (
	"github.com/goccy/go-json"

	"github.com/khanglvm/vidrank/internal/catalog"
)

type topJSON struct {
	catalog.Video
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

type rankedJSON struct {
	catalog.Video
	Rank  int    `json:"rank"`
	Label string `json:"label"`
}

type resultJSON struct {
	Keyword string       `json:"keyword"`
	Found   bool         `json:"found"`
	Top     *topJSON     `json:"top,omitempty"`
	Videos  []rankedJSON `json:"videos,omitempty"`
	Message string       `json:"message,omitempty"`
}

// MarshalJSON renders the result with video fields flattened into each
// entry. An empty result carries EmptyMessage instead of entries.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Keyword: r.Keyword, Found: r.Found()}
	if !out.Found {
		out.Message = EmptyMessage
		return json.Marshal(out)
	}

	out.Top = &topJSON{Video: r.Top.Video, Score: r.Top.Score, Label: r.Top.Label()}
	out.Videos = make([]rankedJSON, 0, len(r.Rest))
	for _, e := range r.Rest {
		out.Videos = append(out.Videos, rankedJSON{Video: e.Video, Rank: e.Rank, Label: e.Label()})
	}
	return json.Marshal(out)
}
