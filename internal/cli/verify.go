package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/classifier"
	"github.com/khanglvm/vidrank/internal/config"
	"github.com/khanglvm/vidrank/internal/scheduler"
	"github.com/khanglvm/vidrank/internal/storage"
)

// probeTimeout bounds the classifier probe in 'verify'.
const probeTimeout = 30 * time.Second

// NewVerifyCmd creates the 'verify' command.
func NewVerifyCmd(global *globalOptions) *cobra.Command {
	var catalogOpts catalogFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify configuration, storage, catalog source and classifier",
		Long: `Check everything 'serve' needs without serving.

The classifier is probed with one feature vector, so a model process is
started, initialized and asked for a prediction.`,
		Example: `  vidrank verify
  vidrank verify --catalog videos.csv --model-command ./predict.py`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.load()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := catalogOpts.apply(cfg); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			path, _ := global.path()
			return runVerify(cmd.Context(), cmd.OutOrStdout(), cfg, path)
		},
	}

	catalogOpts.register(cmd)

	return cmd
}

// runVerify prints one line per check and fails if any check failed.
func runVerify(ctx context.Context, out io.Writer, cfg *config.Config, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	failed := 0
	check := func(name string, err error, detail string) {
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", name, err)
			return
		}
		fmt.Fprintf(out, "✓ %s: %s\n", name, detail)
	}

	if _, err := os.Stat(configPath); err == nil {
		check("Config file", nil, configPath)
	} else {
		check("Config file", nil, "defaults (no file at "+configPath+")")
	}

	store := storage.NewStorage(cfg.Storage.DBPath)
	err := store.Init()
	check("Storage", err, store.Path())
	defer store.Close()

	switch cfg.Catalog.Source {
	case config.SourceSQLite:
		info, err := store.CatalogInfo()
		if errors.Is(err, storage.ErrNoSnapshot) {
			err = fmt.Errorf("%w (run 'vidrank catalog import')", err)
		}
		check("Catalog", err, fmt.Sprintf("%d videos imported from %s", info.Count, info.Source))
	default:
		if cfg.Catalog.Path == "" {
			check("Catalog", errors.New("catalog.path is not set"), "")
			break
		}
		videos, report, err := catalog.LoadCSVFile(cfg.Catalog.Path, catalog.LoadOptions{
			InvalidRows: catalog.InvalidRowPolicy(cfg.Catalog.InvalidRows),
		})
		detail := ""
		if err == nil {
			detail = fmt.Sprintf("%d videos in %s", len(videos), cfg.Catalog.Path)
			if len(report.Skipped) > 0 {
				detail += fmt.Sprintf(" (%d rows skipped)", len(report.Skipped))
			}
		}
		check("Catalog", err, detail)
	}

	check("Classifier", probeClassifier(ctx, cfg.Classifier.ClassifierSettings()), classifierName(cfg))

	for _, job := range []struct{ name, spec string }{
		{scheduler.JobHistoryCleanup, cfg.Scheduler.CleanupCron},
		{scheduler.JobCatalogReload, cfg.Scheduler.ReloadCron},
	} {
		detail := job.spec
		if detail == "" {
			detail = "disabled"
		}
		check("Job "+job.name, nil, detail)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

// probeClassifier asks the classifier for a single prediction.
func probeClassifier(ctx context.Context, settings classifier.Config) error {
	c, err := classifier.New(settings)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	preds, err := c.Predict(ctx, []catalog.Features{{100, 10, 12, 0.1, 30, 1500}})
	if err != nil {
		return err
	}
	if len(preds) != 1 {
		return fmt.Errorf("expected 1 prediction, got %d", len(preds))
	}
	return nil
}
