package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/search"
)

type searchOptions struct {
	catalog catalogFlags
	count   int
	sort    string
	json    bool
}

// NewSearchCmd creates the 'search' command.
func NewSearchCmd(global *globalOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Full-text search over the catalog",
		Long: `Search titles, categories, uploaders and tags with relevance ranking.

Unlike 'recommend', the query is analyzed into terms, so word order and
inflection matter less. Every hit carries the same 0-100 score used for
recommendations.

Sort orders: relevance (default), score, views, likes, recent.`,
		Example: `  vidrank search "neural networks" --catalog videos.csv
  vidrank search python --sort views --count 20 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, global, opts, args[0])
		},
	}

	opts.catalog.register(cmd)
	cmd.Flags().IntVarP(&opts.count, "count", "n", search.DefaultCount, fmt.Sprintf("Number of hits (1-%d)", search.MaxCount))
	cmd.Flags().StringVar(&opts.sort, "sort", string(search.SortRelevance), "Sort order")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, global *globalOptions, opts *searchOptions, query string) error {
	sortBy, err := search.ParseSort(opts.sort)
	if err != nil {
		return fmt.Errorf("%w: %q", err, opts.sort)
	}
	if opts.count < 1 || opts.count > search.MaxCount {
		return search.ErrInvalidCount
	}

	cfg, err := global.load()
	if err != nil {
		return err
	}
	if err := opts.catalog.apply(cfg); err != nil {
		return err
	}

	rt, err := newRuntime(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	hits, err := rt.app.Search(query, search.Options{Count: opts.count, Sort: sortBy})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		if hits == nil {
			hits = []search.Hit{}
		}
		return writeJSON(out, hits)
	}
	return printHits(out, hits)
}

func printHits(w io.Writer, hits []search.Hit) error {
	if len(hits) == 0 {
		_, err := fmt.Fprintln(w, "No videos found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tCATEGORY\tVIEWS\tLIKES\tPREDICTED\tSCORE\tRELEVANCE")
	for i, h := range hits {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%.2f\t%.3f\n",
			i+1, h.Video.Title, h.Video.Category, h.Video.Views, h.Video.Likes, h.Video.Predicted, h.Score, h.Relevance)
	}
	return tw.Flush()
}
