package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/config"
	"github.com/khanglvm/vidrank/internal/storage"
)

// NewHistoryCmd creates the 'history' command group for query history.
//
// Only a SHA-256 hash of each keyword is stored, never the keyword itself.
func NewHistoryCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage query history",
		Long: `Manage the local query history.

Each served query records its kind, a hash of the keyword, the number of
results and a timestamp. Keywords are never stored in clear text.

Disable recording with storage.history_enabled: false in the config file
or VIDRANK_STORAGE__HISTORY_ENABLED=false.`,
	}

	cmd.AddCommand(newHistoryStatusCmd(global))
	cmd.AddCommand(newHistoryClearCmd(global))
	cmd.AddCommand(newHistoryCleanupCmd(global))

	return cmd
}

// openHistory opens storage for a history subcommand. Unlike serving, an
// unusable database is an error here.
func openHistory(cfg *config.Config) (*storage.SQLiteStorage, error) {
	store := storage.NewStorage(cfg.Storage.DBPath)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if !store.Enabled() {
		return nil, storage.ErrUnavailable
	}
	return store, nil
}

func newHistoryStatusCmd(global *globalOptions) *cobra.Command {
	var (
		days    int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show query history statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			cfg, err := global.load()
			if err != nil {
				return err
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var since time.Time
			if days > 0 {
				since = time.Now().Add(-time.Duration(days) * 24 * time.Hour)
			}
			stats, err := store.HistoryStats(since)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, stats)
			}

			window := "all time"
			if days > 0 {
				window = fmt.Sprintf("last %d days", days)
			}
			fmt.Fprintln(out, "Query History")
			fmt.Fprintln(out, "=============")
			fmt.Fprintf(out, "Database:        %s\n", store.Path())
			fmt.Fprintf(out, "Window:          %s\n", window)
			fmt.Fprintf(out, "Queries:         %d\n", stats.Total)
			fmt.Fprintf(out, "  recommend:     %d\n", stats.ByKind[storage.KindRecommend])
			fmt.Fprintf(out, "  search:        %d\n", stats.ByKind[storage.KindSearch])
			fmt.Fprintf(out, "Empty results:   %d\n", stats.Empty)
			fmt.Fprintf(out, "Unique keywords: %d\n", stats.UniqueQuery)
			if !stats.Last.IsZero() {
				fmt.Fprintf(out, "Last query:      %s\n", stats.Last.Local().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Only count the last N days (0 means all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")

	return cmd
}

func newHistoryClearCmd(global *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all query history",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprint(out, "This will delete all query history. Continue? (y/N): ")
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.TrimSpace(response)
				if response != "y" && response != "Y" {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			cfg, err := global.load()
			if err != nil {
				return err
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.ClearHistory()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d history records\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newHistoryCleanupCmd(global *globalOptions) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete history older than the retention window",
		Long: `Delete history older than storage.retention (default 90 days).

'vidrank serve' runs the same cleanup on scheduler.cleanup_cron.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("retention") {
				cfg.Storage.Retention = retention
			}
			if cfg.Storage.Retention <= 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Retention is disabled; nothing to do")
				return nil
			}

			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Cleanup(cfg.Storage.Retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records older than %s\n", n, cfg.Storage.Retention)
			return nil
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 0, "Override storage.retention (e.g. 720h)")

	return cmd
}
