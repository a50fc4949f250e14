package outwriter

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/internal/parquet"
	"github.com/huangsam/mri/schema"
	"github.com/olekukonko/tablewriter"
)

// PrintBuildResults outputs a build result, dispatching based on the output format configured.
func PrintBuildResults(out *schema.BuildOutput, cfg *contract.Config, backend string, duration time.Duration) error {
	if cfg.Output == schema.ParquetOut {
		rows := parquet.SnapshotRows([]schema.AnalysisSnapshot{out.Snapshot})
		if err := parquet.WriteSnapshotsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		contract.LogInfo("💾 Wrote snapshot to %s", cfg.OutputFile)
		return nil
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteBuildResults(w, out, cfg, backend, duration)
	}, "Wrote build result")
}

// WriteBuildResults writes a build result to w in the text, JSON or CSV format.
// CSV carries the hotspot list only; skipped files are reported on stderr instead.
func WriteBuildResults(w io.Writer, out *schema.BuildOutput, cfg *contract.Config, backend string, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if out.Errors == nil {
			out.Errors = []schema.FileError{}
		}
		if err := writeJSON(w, out); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		return nil
	case schema.CSVOut:
		for _, fe := range out.Errors {
			contract.LogWarn("skipped "+fe.Path, errors.New(fe.Reason))
		}
		if err := writeCSVHotspots(w, out.Snapshot); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
		return nil
	}

	if err := writeSnapshotText(w, &out.Snapshot, cfg); err != nil {
		return fmt.Errorf("error writing snapshot table output: %w", err)
	}
	if err := writeFileErrors(w, out.Errors, cfg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Build completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, backend)
	return err
}

// writeFileErrors lists the files that were excluded from a build.
func writeFileErrors(w io.Writer, errs []schema.FileError, cfg *contract.Config) error {
	if len(errs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Skipped %d files:\n", len(errs)); err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Path", "Reason"})
	pathWidth := GetMaxTablePathWidth(cfg)
	var data [][]string
	for _, fe := range errs {
		data = append(data, []string{contract.TruncatePath(fe.Path, pathWidth), fe.Reason})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
