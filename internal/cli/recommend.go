package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/recommend"
)

type recommendOptions struct {
	catalog catalogFlags
	json    bool
}

// NewRecommendCmd creates the 'recommend' command.
func NewRecommendCmd(global *globalOptions) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend KEYWORD",
		Short: "Recommend up to five videos for a keyword",
		Long: `Recommend videos whose title or category contains KEYWORD.

Matching is a case-insensitive substring test; the keyword is not trimmed
or tokenized. Matches are ordered by predicted performance (High, Medium,
Low) with catalog order breaking ties. The first entry is labelled Top and
scored 0-100; the rest are labelled with their rank.`,
		Example: `  vidrank recommend "machine learning" --catalog videos.csv
  vidrank recommend ai --source sqlite --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, global, opts, args[0])
		},
	}

	opts.catalog.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output JSON")

	return cmd
}

func runRecommend(cmd *cobra.Command, global *globalOptions, opts *recommendOptions, keyword string) error {
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

	res, err := rt.app.Recommend(keyword)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, res)
	}
	return printRecommendations(out, res)
}

// printRecommendations renders a result as an aligned table.
func printRecommendations(w io.Writer, res recommend.Result) error {
	if !res.Found() {
		_, err := fmt.Fprintln(w, recommend.EmptyMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tCATEGORY\tVIEWS\tLIKES\tPREDICTED\tSCORE")
	for _, e := range res.Entries() {
		v := e.Record()
		score := ""
		if top, ok := e.(recommend.Top); ok {
			score = fmt.Sprintf("%.2f", top.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.Label(), v.Title, v.Category, v.Views, v.Likes, v.Predicted, score)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
