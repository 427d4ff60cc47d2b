package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/app"
	"github.com/khanglvm/vidrank/internal/benchmark"
	"github.com/khanglvm/vidrank/internal/recommend"
	"github.com/khanglvm/vidrank/internal/search"
)

type benchmarkOptions struct {
	catalog    catalogFlags
	keywords   []string
	count      int
	iterations int
	kinds      []string
	json       bool
}

// NewBenchmarkCmd creates the 'benchmark' command for query latency testing.
func NewBenchmarkCmd(global *globalOptions) *cobra.Command {
	opts := &benchmarkOptions{}

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Measure recommend and search latency over the catalog",
		Long: `Build the catalog snapshot, then run every keyword through the
recommendation engine and the search index for a number of iterations and
report latency percentiles and throughput.

Without --keyword, keywords are picked from the catalog's categories and
title words. Benchmark queries are not recorded in query history.`,
		Example: `  # Benchmark with catalog-derived keywords
  vidrank benchmark --catalog videos.csv

  # Specific keywords, recommend only
  vidrank benchmark --catalog videos.csv -k ai -k python --kind recommend

  # Output as JSON
  vidrank benchmark --source sqlite --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, global, opts)
		},
	}

	opts.catalog.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.keywords, "keyword", "k", nil, "Keyword to query (repeatable)")
	cmd.Flags().IntVar(&opts.count, "keywords", benchmark.DefaultKeywords, "Number of catalog-derived keywords when --keyword is not set")
	cmd.Flags().IntVar(&opts.iterations, "iterations", benchmark.DefaultIterations, "Passes over the keyword list")
	cmd.Flags().StringSliceVar(&opts.kinds, "kind", nil, "Query kinds: recommend, search (default both)")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Output as JSON")

	return cmd
}

// snapshotQuerier queries a snapshot directly, bypassing history and metrics.
type snapshotQuerier struct {
	snap *app.Snapshot
}

func (q snapshotQuerier) Recommend(keyword string) (recommend.Result, error) {
	return q.snap.Engine.Recommend(keyword)
}

func (q snapshotQuerier) Search(query string, opts search.Options) ([]search.Hit, error) {
	return q.snap.Index.Search(query, opts)
}

func runBenchmark(cmd *cobra.Command, global *globalOptions, opts *benchmarkOptions) error {
	if opts.iterations <= 0 {
		return fmt.Errorf("--iterations must be positive")
	}

	cfg, err := global.load()
	if err != nil {
		return err
	}
	if err := opts.catalog.apply(cfg); err != nil {
		return err
	}
	cfg.Storage.HistoryEnabled = false

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.app.Snapshot()
	if err != nil {
		return err
	}

	keywords := opts.keywords
	if len(keywords) == 0 {
		keywords = benchmark.KeywordsFrom(snap.Store, opts.count)
	}

	result, err := benchmark.Run(ctx, snapshotQuerier{snap: snap}, benchmark.Options{
		Keywords:   keywords,
		Iterations: opts.iterations,
		Kinds:      opts.kinds,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, result)
	}
	fmt.Fprint(out, benchmark.FormatResult(result))
	return nil
}
