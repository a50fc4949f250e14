package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/mri/internal/iostore"
	"github.com/spf13/cobra"
)

// storeCmd focused on snapshot store management.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the snapshot store",
	Long: `Manage the snapshot store that keeps one health snapshot per repository and sprint.

Supported backends: SQLite (default), MySQL, PostgreSQL, or memory (testing only)

Subcommands:
  status  - Show store statistics
  clear   - Remove every snapshot and lease
  migrate - Run database schema migrations
  export  - Export snapshots and hotspots to Parquet

Examples:
  # Check the store
  mri store status

  # Use PostgreSQL (set connection string via env variable)
  MRI_BACKEND=postgresql MRI_DB_CONNECT="host=... dbname=mri" mri store status`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, the number of snapshots and repositories, the newest and
oldest snapshot, active build leases and table sizes.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := iostore.GetStatus(rootCtx, iostore.Manager, time.Now())
		if err != nil {
			return fmt.Errorf("failed to get store status: %w", err)
		}
		iostore.PrintStoreStatus(os.Stdout, status)
		return nil
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored snapshot and lease",
	Long: `Delete all snapshots and build leases from the configured backend.
History cannot be rebuilt afterwards unless the metric batches were kept.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iostore.ClearStores(rootCtx); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
		fmt.Println("Snapshot store cleared successfully.")
		return nil
	},
}

// storeMigrateCmd runs versioned schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations",
	Long: `Apply or roll back the versioned schema of the snapshot store.

The store creates its tables on first use, so this is only needed to upgrade an
existing database or to roll it back.

Examples:
  # Migrate to the latest version
  mri store migrate

  # Roll back to version 1
  mri store migrate --target-version 1`,
	PreRunE: configOnlySetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return iostore.MigrateSnapshots(cfg.Backend, cfg.DBConnect, cfg.TargetVersion, os.Stdout)
	},
}

// storeExportCmd exports the store to Parquet.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export snapshots and hotspots to Parquet for analytics",
	Long: `Write every stored snapshot to <file>.snapshots.parquet and every top hotspot
to <file>.hotspots.parquet, ready for pandas, DuckDB or Spark.

Examples:
  mri store export --output-file mri-data`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return iostore.ExportSnapshots(rootCtx, iostore.Manager.GetSnapshotStore(), cfg.OutputFile, os.Stdout)
	},
}
