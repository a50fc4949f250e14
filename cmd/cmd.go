// Package cmd defines the command-line interface for mri.
package cmd

import (
	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(rangeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("repo", "r", "", "Repository id, e.g. acme/api")
	rootCmd.PersistentFlags().IntP("sprint", "s", 0, "Sprint number (build, show)")
	rootCmd.PersistentFlags().Float64("complexity-threshold", schema.DefaultComplexityThreshold, "Raw complexity that scores 50")
	rootCmd.PersistentFlags().Int("churn-window", schema.DefaultChurnWindowSize, "Expected observation periods in the churn window")
	rootCmd.PersistentFlags().Int("size-saturation", schema.DefaultSizeSaturationLOC, "Lines of code at which the size score saturates")
	rootCmd.PersistentFlags().Int("top-k", schema.DefaultTopK, "Number of hotspots kept per snapshot")
	rootCmd.PersistentFlags().String("retain", "", "Comma-separated paths always kept in the stored file list")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent scoring workers")
	rootCmd.PersistentFlags().String("lease-ttl", contract.DefaultLeaseTTL.String(), "How long a build may hold the repository lease")
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Snapshot store: sqlite or mysql or postgresql or memory")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string (sqlite defaults to ~/.mri_snapshots.db)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write build telemetry to this Prometheus textfile")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of buildCmd to Viper
	buildCmd.Flags().Bool("overwrite", false, "Recompute an existing sprint instead of failing")
	if err := viper.BindPFlags(buildCmd.Flags()); err != nil {
		contract.LogFatal("Error binding build flags", err)
	}

	// Bind all flags of rangeCmd to Viper
	rangeCmd.Flags().Int("from", 0, "First sprint of the range")
	rangeCmd.Flags().Int("to", 0, "Last sprint of the range")
	if err := viper.BindPFlags(rangeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding range flags", err)
	}

	// The history bound is also read by the MCP server, hence the longer key.
	historyCmd.Flags().IntP("limit", "n", schema.DefaultHistoryLimit, "Number of most recent snapshots to show")
	if err := viper.BindPFlag("history-limit", historyCmd.Flags().Lookup("limit")); err != nil {
		contract.LogFatal("Error binding history flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
