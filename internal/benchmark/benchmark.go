/*
Package benchmark measures query latency against a built catalog snapshot.

Each keyword is run through the recommendation engine and the search index
for a number of iterations, and the per-kind latency distribution is
reported. Queries go straight to the snapshot, so nothing is recorded in
query history or request metrics.
*/
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/recommend"
	"github.com/khanglvm/vidrank/internal/search"
)

// Query kinds.
const (
	KindRecommend = "recommend"
	KindSearch    = "search"
)

// DefaultIterations is the number of passes over the keyword list.
const DefaultIterations = 100

// DefaultKeywords is the number of keywords KeywordsFrom picks.
const DefaultKeywords = 20

// ErrNoKeywords is returned when there is nothing to query.
var ErrNoKeywords = errors.New("no benchmark keywords")

// Querier answers both query kinds.
type Querier interface {
	Recommend(keyword string) (recommend.Result, error)
	Search(q string, opts search.Options) ([]search.Hit, error)
}

// Options controls a run.
type Options struct {
	Keywords   []string
	Iterations int

	// Kinds defaults to both kinds.
	Kinds []string
}

// Stats is the latency distribution of one query kind.
type Stats struct {
	Kind    string        `json:"kind"`
	Queries int           `json:"queries"`
	Errors  int           `json:"errors"`
	Empty   int           `json:"empty"`
	Min     time.Duration `json:"min_ns"`
	Mean    time.Duration `json:"mean_ns"`
	P50     time.Duration `json:"p50_ns"`
	P95     time.Duration `json:"p95_ns"`
	P99     time.Duration `json:"p99_ns"`
	Max     time.Duration `json:"max_ns"`
	QPS     float64       `json:"qps"`
}

// Result is the outcome of a run.
type Result struct {
	Keywords   int     `json:"keywords"`
	Iterations int     `json:"iterations"`
	Stats      []Stats `json:"stats"`
}

// Run executes the benchmark. It stops early, returning what it has, when
// ctx is cancelled.
func Run(ctx context.Context, q Querier, opts Options) (*Result, error) {
	if len(opts.Keywords) == 0 {
		return nil, ErrNoKeywords
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = []string{KindRecommend, KindSearch}
	}

	result := &Result{Keywords: len(opts.Keywords), Iterations: opts.Iterations}
	for _, kind := range kinds {
		var run func(string) (int, error)
		switch kind {
		case KindRecommend:
			run = func(kw string) (int, error) {
				res, err := q.Recommend(kw)
				return res.Len(), err
			}
		case KindSearch:
			run = func(kw string) (int, error) {
				hits, err := q.Search(kw, search.Options{})
				return len(hits), err
			}
		default:
			return nil, fmt.Errorf("unknown query kind %q", kind)
		}

		stats, err := measure(ctx, kind, opts, run)
		result.Stats = append(result.Stats, stats)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func measure(ctx context.Context, kind string, opts Options, run func(string) (int, error)) (Stats, error) {
	stats := Stats{Kind: kind}
	durations := make([]time.Duration, 0, len(opts.Keywords)*opts.Iterations)

	start := time.Now()
	var err error
loop:
	for i := 0; i < opts.Iterations; i++ {
		for _, kw := range opts.Keywords {
			if err = ctx.Err(); err != nil {
				break loop
			}
			t0 := time.Now()
			n, qerr := run(kw)
			durations = append(durations, time.Since(t0))
			switch {
			case qerr != nil:
				stats.Errors++
			case n == 0:
				stats.Empty++
			}
		}
	}
	elapsed := time.Since(start)

	summarize(&stats, durations, elapsed)
	return stats, err
}

func summarize(stats *Stats, durations []time.Duration, elapsed time.Duration) {
	stats.Queries = len(durations)
	if len(durations) == 0 {
		return
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	stats.Min = durations[0]
	stats.Max = durations[len(durations)-1]
	stats.Mean = total / time.Duration(len(durations))
	stats.P50 = percentile(durations, 0.50)
	stats.P95 = percentile(durations, 0.95)
	stats.P99 = percentile(durations, 0.99)
	if elapsed > 0 {
		stats.QPS = float64(len(durations)) / elapsed.Seconds()
	}
}

// percentile uses the nearest-rank method on sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// KeywordsFrom picks up to n keywords from a catalog: distinct lowercased
// categories first, then the first word of each title, in catalog order.
func KeywordsFrom(store *catalog.Store, n int) []string {
	if n <= 0 {
		n = DefaultKeywords
	}
	seen := make(map[string]bool)
	var out []string
	add := func(kw string) bool {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !seen[kw] {
			seen[kw] = true
			out = append(out, kw)
		}
		return len(out) < n
	}

	store.Each(func(_ int, v catalog.Video) bool {
		return add(v.Category)
	})
	if len(out) < n {
		store.Each(func(_ int, v catalog.Video) bool {
			fields := strings.Fields(v.Title)
			if len(fields) == 0 {
				return true
			}
			return add(fields[0])
		})
	}
	return out
}

// FormatResult formats the benchmark result for display.
func FormatResult(result *Result) string {
	var sb strings.Builder

	sb.WriteString("╔══════════════════════════════════════════════════════════════╗\n")
	sb.WriteString("║               QUERY LATENCY BENCHMARK RESULTS                ║\n")
	sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
	sb.WriteString(fmt.Sprintf("║  Keywords: %-5d Iterations: %-5d                           ║\n", result.Keywords, result.Iterations))
	for _, s := range result.Stats {
		sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
		sb.WriteString(fmt.Sprintf("║  %-10s queries %-7d errors %-5d empty %-7d         ║\n", strings.ToUpper(s.Kind), s.Queries, s.Errors, s.Empty))
		sb.WriteString(fmt.Sprintf("║     p50 %-10s p95 %-10s p99 %-10s            ║\n", round(s.P50), round(s.P95), round(s.P99)))
		sb.WriteString(fmt.Sprintf("║     min %-10s max %-10s mean %-10s           ║\n", round(s.Min), round(s.Max), round(s.Mean)))
		sb.WriteString(fmt.Sprintf("║     throughput %-12.0f queries/s                      ║\n", s.QPS))
	}
	sb.WriteString("╚══════════════════════════════════════════════════════════════╝\n")

	return sb.String()
}

func round(d time.Duration) string {
	switch {
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond).String()
	case d >= time.Microsecond:
		return d.Round(100 * time.Nanosecond).String()
	default:
		return d.String()
	}
}
