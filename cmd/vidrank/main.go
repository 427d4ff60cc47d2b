/*
Package main is the entry point for the vidrank CLI.

vidrank recommends videos for a keyword from a scraped catalog, ranked by a
pre-trained performance classifier.

Usage:
  vidrank [command]

Available Commands:
  serve       Serve recommendations over HTTP or MCP stdio
  recommend   Recommend up to five videos for a keyword
  search      Full-text search over the catalog
  catalog     Import, export and inspect the video catalog
  history     Inspect and manage query history
  config      Create and inspect the configuration file
  verify      Verify configuration, storage, catalog source and classifier
  version     Show version information

Examples:
  # One-off recommendation
  vidrank recommend "machine learning" --catalog videos.csv

  # HTTP API
  vidrank serve --catalog videos.csv --addr :9090
*/
package main

import (
	"fmt"
	"os"

	"github.com/khanglvm/vidrank/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
