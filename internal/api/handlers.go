package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/khanglvm/vidrank/internal/app"
	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/recommend"
	"github.com/khanglvm/vidrank/internal/search"
	"github.com/khanglvm/vidrank/internal/version"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 64 << 10

// Service is what the handlers query. *app.App satisfies it.
type Service interface {
	Recommend(keyword string) (recommend.Result, error)
	Search(q string, opts search.Options) ([]search.Hit, error)
	Stats() (catalog.Stats, *app.Snapshot, error)
	Ready() bool
}

// Handler holds the HTTP handlers.
type Handler struct {
	svc     Service
	started time.Time
}

// NewHandler binds handlers to svc.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc, started: time.Now()}
}

// SearchResponse is the body of a search.
type SearchResponse struct {
	Query string       `json:"q"`
	Sort  search.Sort  `json:"sort"`
	Count int          `json:"count"`
	Hits  []search.Hit `json:"hits"`
}

// StatsResponse is the body of catalog stats.
type StatsResponse struct {
	catalog.Stats
	Source  string    `json:"source"`
	BuiltAt time.Time `json:"built_at"`
	Skipped int       `json:"skipped_rows"`
}

// HealthResponse is the body of the health routes.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Recommend handles GET ?keyword= and POST {"keyword": ...}.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, CodeValidation, "invalid JSON body: "+err.Error(), nil)
			return
		}
	} else {
		req.Keyword = r.URL.Query().Get("keyword")
	}

	if err := validateStruct(&req); err != nil {
		respondValidation(w, err)
		return
	}

	res, err := h.svc.Recommend(req.Keyword)
	if err != nil {
		respondQueryError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// searchBody is the POST form of a search. Browser forms send count as a
// string, so both "12" and 12 are accepted.
type searchBody struct {
	Query string          `json:"query"`
	Count json.RawMessage `json:"count"`
	Sort  string          `json:"sort"`
}

// Search handles GET ?q=&count=&sort= and POST {"query", "count", "sort"}.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var (
		req      SearchRequest
		rawCount string
	)
	if r.Method == http.MethodPost {
		var body searchBody
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, CodeValidation, "invalid JSON body: "+err.Error(), nil)
			return
		}
		req = SearchRequest{Query: body.Query, Sort: body.Sort}
		if len(body.Count) > 0 && string(body.Count) != "null" {
			rawCount = strings.Trim(string(body.Count), `"`)
		}
	} else {
		q := r.URL.Query()
		req = SearchRequest{Query: q.Get("q"), Sort: q.Get("sort")}
		rawCount = q.Get("count")
	}

	if rawCount != "" {
		n, err := strconv.Atoi(rawCount)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeValidation, "count must be an integer",
				map[string]any{"fields": map[string]string{"count": "count must be an integer"}})
			return
		}
		req.Count = n
		if n == 0 {
			// Zero is not "use the default" when given explicitly.
			req.Count = -1
		}
	}

	if err := validateStruct(&req); err != nil {
		respondValidation(w, err)
		return
	}

	opts := search.Options{Count: req.Count, Sort: search.Sort(req.Sort)}
	hits, err := h.svc.Search(req.Query, opts)
	if err != nil {
		respondQueryError(w, err)
		return
	}

	if opts.Sort == "" {
		opts.Sort = search.SortRelevance
	}
	respondJSON(w, http.StatusOK, SearchResponse{
		Query: req.Query,
		Sort:  opts.Sort,
		Count: len(hits),
		Hits:  hits,
	})
}

// CatalogStats handles GET /catalog/stats.
func (h *Handler) CatalogStats(w http.ResponseWriter, r *http.Request) {
	stats, snap, err := h.svc.Stats()
	if err != nil {
		respondQueryError(w, err)
		return
	}

	resp := StatsResponse{Stats: stats, Source: snap.Source, BuiltAt: snap.BuiltAt}
	if snap.Report != nil {
		resp.Skipped = len(snap.Report.Skipped)
	}
	respondJSON(w, http.StatusOK, resp)
}

// Live always answers 200 while the process runs.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.health("ok"))
}

// Ready answers 200 once a snapshot is published, 503 before.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Ready() {
		respondJSON(w, http.StatusServiceUnavailable, h.health("loading"))
		return
	}
	respondJSON(w, http.StatusOK, h.health("ready"))
}

func (h *Handler) health(status string) HealthResponse {
	return HealthResponse{
		Status:  status,
		Version: version.Version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	}
}

func respondValidation(w http.ResponseWriter, err error) {
	details := map[string]any{}
	if ve, ok := err.(*ValidationError); ok {
		details["fields"] = ve.Fields
	}
	respondError(w, http.StatusBadRequest, CodeValidation, err.Error(), details)
}
