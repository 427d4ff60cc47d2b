package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/classifier"
	"github.com/khanglvm/vidrank/internal/config"
	"github.com/khanglvm/vidrank/internal/storage"
)

// Export formats.
const (
	formatJSON  = "json"
	formatJSONL = "jsonl"
)

// NewCatalogCmd creates the 'catalog' command group.
func NewCatalogCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Import, export and inspect the video catalog",
		Long: `Manage the video catalog.

'catalog import' stores a CSV in the local SQLite database so later runs can
use --source sqlite without the original file. 'catalog export' writes the
annotated catalog, predicted performance included, as JSON or JSONL.`,
	}

	cmd.AddCommand(newCatalogImportCmd(global))
	cmd.AddCommand(newCatalogExportCmd(global))
	cmd.AddCommand(newCatalogStatsCmd(global))

	return cmd
}

func newCatalogImportCmd(global *globalOptions) *cobra.Command {
	var invalidRows string

	cmd := &cobra.Command{
		Use:   "import CSV",
		Short: "Import a scraped CSV into the local database",
		Example: `  vidrank catalog import videos.csv
  vidrank catalog import videos.csv --invalid-rows skip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogImport(cmd, global, args[0], invalidRows)
		},
	}

	cmd.Flags().StringVar(&invalidRows, "invalid-rows", "", "Invalid row policy: reject or skip")

	return cmd
}

func runCatalogImport(cmd *cobra.Command, global *globalOptions, path, invalidRows string) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}
	if invalidRows == "" {
		invalidRows = cfg.Catalog.InvalidRows
	}
	policy := catalog.InvalidRowPolicy(invalidRows)
	if !policy.Valid() {
		return fmt.Errorf("unknown invalid row policy %q (use reject or skip)", invalidRows)
	}

	videos, report, err := catalog.LoadCSVFile(path, catalog.LoadOptions{InvalidRows: policy})
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		return catalog.ErrDegenerateCatalog
	}

	store := storage.NewStorage(cfg.Storage.DBPath)
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := store.SaveCatalog(videos, abs); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Imported %d videos from %s into %s\n", len(videos), path, store.Path())
	if report != nil && len(report.Skipped) > 0 {
		fmt.Fprintf(out, "  Skipped %d invalid rows\n", len(report.Skipped))
	}
	return nil
}

type exportOptions struct {
	catalog catalogFlags
	format  string
	output  string
}

func newCatalogExportCmd(global *globalOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the annotated catalog as JSON or JSONL",
		Long: `Write every catalog record, with its predicted performance, to a file.

Default format: JSONL (one video per line). Without --output the catalog is
written to stdout. File output is locked against concurrent exports and
replaced atomically.`,
		Example: `  # JSONL to stdout
  vidrank catalog export --catalog videos.csv

  # JSON array to a file
  vidrank catalog export --source sqlite --format json --output catalog.json

  # High performers only
  vidrank catalog export --catalog videos.csv | jq -c 'select(.predicted_performance == "High")'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogExport(cmd, global, opts)
		},
	}

	opts.catalog.register(cmd)
	cmd.Flags().StringVar(&opts.format, "format", formatJSONL, "Output format: json or jsonl")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output path (default: stdout)")

	return cmd
}

func runCatalogExport(cmd *cobra.Command, global *globalOptions, opts *exportOptions) error {
	format := strings.ToLower(opts.format)
	if format != formatJSON && format != formatJSONL {
		return fmt.Errorf("unknown format %q (use json or jsonl)", opts.format)
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

	snap, err := rt.app.Snapshot()
	if err != nil {
		return err
	}
	videos := snap.Store.Videos()

	if opts.output == "" {
		return writeVideos(cmd.OutOrStdout(), videos, format)
	}

	lockFile, err := acquireFileLock(opts.output)
	if err != nil {
		return fmt.Errorf("failed to acquire file lock: %w", err)
	}
	defer releaseFileLock(lockFile)

	if err := writeVideosFile(opts.output, videos, format); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d videos to %s\n", len(videos), opts.output)
	return nil
}

// writeVideos encodes videos as a JSON array or as JSON lines.
func writeVideos(w io.Writer, videos []catalog.Video, format string) error {
	encoder := json.NewEncoder(w)

	if format == formatJSON {
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(videos); err != nil {
			return fmt.Errorf("failed to encode videos: %w", err)
		}
		return nil
	}

	for _, v := range videos {
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode video: %w", err)
		}
	}
	return nil
}

// writeVideosFile writes to path+".tmp" and renames it over path.
func writeVideosFile(path string, videos []catalog.Video, format string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := writeVideos(file, videos, format); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename export file: %w", err)
	}
	return nil
}

// acquireFileLock takes an exclusive, non-blocking lock on path+".lock".
func acquireFileLock(path string) (*os.File, error) {
	lockPath := path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("failed to acquire lock (another export in progress?): %w", err)
	}

	return lockFile, nil
}

// releaseFileLock releases the lock and removes the lock file.
func releaseFileLock(lockFile *os.File) error {
	if lockFile == nil {
		return nil
	}

	lockPath := lockFile.Name()
	unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
	lockFile.Close()

	return os.Remove(lockPath)
}

type catalogStatsOptions struct {
	catalog catalogFlags
	json    bool
}

func newCatalogStatsCmd(global *globalOptions) *cobra.Command {
	opts := &catalogStatsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog and the stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogStats(cmd, global, opts)
		},
	}

	opts.catalog.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output JSON")

	return cmd
}

// catalogStatsOutput is the JSON form of 'catalog stats'.
type catalogStatsOutput struct {
	catalog.Stats
	Source      string               `json:"source"`
	SkippedRows int                  `json:"skipped_rows"`
	Snapshot    *storage.CatalogInfo `json:"snapshot,omitempty"`
}

func runCatalogStats(cmd *cobra.Command, global *globalOptions, opts *catalogStatsOptions) error {
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

	stats, snap, err := rt.app.Stats()
	if err != nil {
		return err
	}

	result := catalogStatsOutput{Stats: stats, Source: snap.Source}
	if snap.Report != nil {
		result.SkippedRows = len(snap.Report.Skipped)
	}
	if info, err := rt.storage.CatalogInfo(); err == nil {
		result.Snapshot = &info
	} else if !errors.Is(err, storage.ErrNoSnapshot) && !errors.Is(err, storage.ErrUnavailable) {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, result)
	}
	return printCatalogStats(out, result, cfg)
}

func printCatalogStats(w io.Writer, s catalogStatsOutput, cfg *config.Config) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Source:\t%s\n", s.Source)
	fmt.Fprintf(tw, "Videos:\t%d\n", s.Count)
	fmt.Fprintf(tw, "Skipped rows:\t%d\n", s.SkippedRows)
	fmt.Fprintf(tw, "Max views:\t%d\n", s.MaxViews)
	fmt.Fprintf(tw, "Max likes:\t%d\n", s.MaxLikes)
	fmt.Fprintf(tw, "Classifier:\t%s\n", classifierName(cfg))
	for _, name := range []string{"High", "Medium", "Low"} {
		fmt.Fprintf(tw, "Predicted %s:\t%d\t(bucket %d)\n", name, s.ByPredicted[name], s.ByBucket[name])
	}
	if s.Snapshot != nil {
		fmt.Fprintf(tw, "Stored snapshot:\t%d videos from %s (%s)\n",
			s.Snapshot.Count, s.Snapshot.Source, s.Snapshot.ImportedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func classifierName(cfg *config.Config) string {
	settings := cfg.Classifier.ClassifierSettings()
	switch {
	case settings.Kind == classifier.KindThreshold:
		return classifier.KindThreshold
	case settings.Command != "":
		return classifier.KindProcess + ": " + settings.Command
	default:
		return classifier.KindThreshold
	}
}
