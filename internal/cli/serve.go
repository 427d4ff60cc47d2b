package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/api"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/mcp"
	"github.com/khanglvm/vidrank/internal/scheduler"
)

// jobTimeout bounds one scheduled job run.
const jobTimeout = 5 * time.Minute

type serveOptions struct {
	catalog catalogFlags
	stdio   bool
	addr    string
}

// NewServeCmd creates the 'serve' command.
//
// By default it serves the HTTP API. With --stdio it speaks MCP over
// stdin/stdout instead, exposing video_recommend, video_search and
// catalog_stats as tools.
func NewServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP or MCP stdio",
		Long: `Load and annotate the catalog, then serve queries until interrupted.

HTTP endpoints (default):
  GET  /api/v1/recommend?keyword=...  Keyword recommendations (top 5)
  POST /api/v1/recommend              Same, with a JSON body {"keyword": "..."}
  GET  /api/v1/search?q=...           Full-text search
  GET  /api/v1/catalog/stats          Catalog summary
  GET  /api/v1/health/live            Liveness
  GET  /api/v1/health/ready           Readiness (catalog loaded)
  GET  /metrics                       Prometheus metrics

With --stdio the MCP server runs on stdin/stdout instead.

Scheduled jobs (history cleanup, catalog reload) run in both modes when
their cron specs are set.`,
		Example: `  # HTTP API on :8080
  vidrank serve --catalog videos.csv

  # Use an external model process
  vidrank serve --catalog videos.csv --model-command ./predict.py

  # MCP server for an AI client
  vidrank serve --stdio --source sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(global, opts)
		},
	}

	opts.catalog.register(cmd)
	cmd.Flags().BoolVar(&opts.stdio, "stdio", false, "Serve MCP over stdin/stdout instead of HTTP")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides server.addr)")

	return cmd
}

// runServe builds the runtime and serves until SIGINT/SIGTERM/SIGQUIT or, in
// stdio mode, until stdin closes.
func runServe(global *globalOptions, opts *serveOptions) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if err := opts.catalog.apply(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	log := logging.Component("serve")

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	defer rt.Close()

	sched := scheduler.New(jobTimeout)
	if err := sched.Add(scheduler.JobHistoryCleanup, cfg.Scheduler.CleanupCron,
		scheduler.CleanupJob(rt.storage, cfg.Storage.Retention)); err != nil {
		return err
	}
	if err := sched.Add(scheduler.JobCatalogReload, cfg.Scheduler.ReloadCron,
		scheduler.ReloadJob(rt.app)); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if opts.stdio {
		log.Info().Msg("serving MCP on stdio")
		err = mcp.NewServer(rt.app).Run(ctx)
	} else {
		server := api.NewServer(rt.app, api.ServerOptions{
			Addr:            cfg.Server.Addr,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			Router: api.RouterOptions{
				RateLimit:       cfg.Server.RateLimit,
				RateLimitWindow: cfg.Server.RateLimitWindow,
			},
		})
		err = server.Run(ctx)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
