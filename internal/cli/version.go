package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/version"
)

// NewVersionCmd creates the 'version' command
func NewVersionCmd() *cobra.Command {
	var jsonOut, check, force bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the current version, commit hash, and build date.

With --check, also look up the latest GitHub release (cached for 24 hours).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if check {
				return runVersionCheck(cmd.Context(), out, version.NewChecker(), force, jsonOut)
			}

			info := version.Current()
			if jsonOut {
				return writeJSON(out, info)
			}
			fmt.Fprintf(out, "Version:  %s\n", info.Version)
			fmt.Fprintf(out, "Commit:   %s\n", info.Commit)
			fmt.Fprintf(out, "Built:    %s\n", info.Date)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	cmd.Flags().BoolVar(&force, "force", false, "Ignore the cached check result (with --check)")

	return cmd
}

func runVersionCheck(ctx context.Context, out io.Writer, checker *version.Checker, force, jsonOut bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	update, err := checker.Check(ctx, force)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(out, update)
	}

	if update.Available {
		fmt.Fprintf(out, "Update available: %s (current: %s)\n", update.Latest.Version(), update.Current)
		fmt.Fprintf(out, "Download: %s\n", update.Latest.HTMLURL)
		return nil
	}
	fmt.Fprintf(out, "vidrank %s is up to date (latest release: %s)\n", update.Current, update.Latest.Version())
	return nil
}
