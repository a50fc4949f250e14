package cmd

import (
	"github.com/huangsam/mri/core"
	"github.com/huangsam/mri/internal/iostore"
	"github.com/spf13/cobra"
)

// buildCmd builds and persists the snapshot of one sprint.
var buildCmd = &cobra.Command{
	Use:   "build <metrics-file>",
	Short: "Score a metric batch and store it as the snapshot of a sprint.",
	Long: `Score every file of a metric batch, aggregate the repository health and
persist the result as the immutable snapshot of one sprint.

The metric batch comes from an external metrics provider as JSON, YAML or CSV
(path,complexity,churn,loc). Use "-" to read it from stdin. Files the provider
could not measure are reported as skipped, never scored.

Only one build per repository runs at a time. Building a sprint that already
exists fails unless --overwrite is given. Backfilling an earlier sprint also
refreshes the comparison of the snapshot that follows it.

Examples:
  # Build sprint 12 of acme/api
  mri build metrics.json --repo acme/api --sprint 12

  # Recompute a sprint after fixing the metrics
  mri build metrics.yaml --repo acme/api --sprint 12 --overwrite

  # Pipe metrics in and record telemetry for a Prometheus textfile collector
  provider | mri build - --repo acme/api --sprint 13 --metrics-file /var/lib/node_exporter/mri.prom`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		return core.ExecuteBuild(rootCtx, cfg, iostore.Manager, args[0])
	},
}

// scoreCmd is the dry-run variant of build.
var scoreCmd = &cobra.Command{
	Use:   "score <metrics-file>",
	Short: "Score a metric batch without storing anything.",
	Long: `Run a metric batch through the risk model and print the snapshot a build
would produce, without touching the snapshot store. Comparisons and events
stay empty because there is no previous snapshot.

Examples:
  # Preview the hotspots of a batch
  mri score metrics.csv

  # Try custom thresholds before committing to them
  mri score metrics.json --complexity-threshold 15 --size-saturation 800`,
	Args:    cobra.ExactArgs(1),
	PreRunE: configOnlySetup,
	RunE: func(_ *cobra.Command, args []string) error {
		return core.ExecuteScore(rootCtx, cfg, args[0])
	},
}
