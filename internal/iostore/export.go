package iostore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/internal/parquet"
)

// ExportSnapshots writes every stored snapshot to Parquet files next to outputFile.
// Two files are produced: one row per snapshot and one row per ranked hotspot.
func ExportSnapshots(ctx context.Context, store contract.SnapshotStore, outputFile string, w io.Writer) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("snapshot store is not initialized")
	}

	// Check if there's any data to export
	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalSnapshots == 0 {
		return errors.New("no snapshots found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total snapshots: %s across %s repositories\n",
		humanize.Comma(int64(status.TotalSnapshots)), humanize.Comma(int64(status.TotalRepos)))

	snapshots, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve snapshots: %w", err)
	}

	snapshotRows := parquet.SnapshotRows(snapshots)
	hotspotRows := parquet.HotspotRows(snapshots)

	snapshotsFile := outputFile + ".snapshots.parquet"
	if err := parquet.WriteSnapshotsParquet(snapshotRows, snapshotsFile); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d snapshots to: %s\n", len(snapshotRows), snapshotsFile)

	hotspotsFile := outputFile + ".hotspots.parquet"
	if err := parquet.WriteHotspotsParquet(hotspotRows, hotspotsFile); err != nil {
		return fmt.Errorf("failed to write hotspots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d hotspot records to: %s\n", len(hotspotRows), hotspotsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - Any other Parquet-compatible tool")
	return nil
}
