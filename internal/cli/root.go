/*
Package cli implements the vidrank command tree.

Every command loads configuration the same way: defaults, then the YAML
file (--config or ~/.vidrank.yaml), then VIDRANK_* environment variables,
then command-line flags.
*/
package cli

import (
	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/config"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	dbPath     string
}

// NewRootCmd creates the vidrank root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "vidrank",
		Short: "Keyword video recommendations ranked by predicted performance",
		Long: `vidrank serves keyword-based video recommendations from a scraped catalog.

Each video is annotated once with a predicted performance category (Low,
Medium, High) by a pre-trained classifier. A keyword query returns up to five
matching videos ordered by predicted performance; the best one carries a
0-100 score combining performance, views and likes.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default: ~/.vidrank.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite database path (default: ~/.vidrank/vidrank.db)")

	rootCmd.AddCommand(NewServeCmd(opts))
	rootCmd.AddCommand(NewRecommendCmd(opts))
	rootCmd.AddCommand(NewSearchCmd(opts))
	rootCmd.AddCommand(NewCatalogCmd(opts))
	rootCmd.AddCommand(NewHistoryCmd(opts))
	rootCmd.AddCommand(NewConfigCmd(opts))
	rootCmd.AddCommand(NewVerifyCmd(opts))
	rootCmd.AddCommand(NewBenchmarkCmd(opts))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// load reads configuration, applies global flag overrides and initializes
// logging.
func (o *globalOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.dbPath != "" {
		cfg.Storage.DBPath = o.dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}
