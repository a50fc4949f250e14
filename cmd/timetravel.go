package cmd

import (
	"github.com/huangsam/mri/core"
	"github.com/huangsam/mri/internal/iostore"
	"github.com/spf13/cobra"
)

// runRead adapts a read executor to Cobra.
func runRead(exec core.ExecutorFunc) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		return exec(rootCtx, cfg, iostore.Manager)
	}
}

// latestCmd shows the current snapshot.
var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent snapshot of a repository.",
	Long: `Show the health, hotspots and notable events of the most recent sprint.

Examples:
  mri latest --repo acme/api
  mri latest --repo acme/api --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runRead(core.ExecuteLatest),
}

// showCmd shows one sprint.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the snapshot of a repository at a given sprint.",
	Long: `Travel back to an explicit sprint and show its snapshot exactly as it was built.

Examples:
  mri show --repo acme/api --sprint 7`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runRead(core.ExecuteShow),
}

// rangeCmd lists a window of sprints.
var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "List the snapshots between two sprints.",
	Long: `List the snapshots of every built sprint between --from and --to (inclusive),
oldest first. Sprints that were never built are simply missing.

Examples:
  mri range --repo acme/api --from 3 --to 9
  mri range --repo acme/api --from 1 --to 24 --output csv --output-file q1.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runRead(core.ExecuteRange),
}

// historyCmd is the trend view used for playback.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent snapshots of a repository as a trend.",
	Long: `Show the most recent snapshots oldest first, so that the health trend reads
from left to right.

Examples:
  mri history --repo acme/api
  mri history --repo acme/api --limit 52 --output parquet --output-file trend.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runRead(core.ExecuteHistory),
}
