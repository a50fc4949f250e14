package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/internal/parquet"
	"github.com/huangsam/mri/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// hotspotCSVHeader is the column order of hotspot rows in CSV output.
var hotspotCSVHeader = []string{
	"repo_id",
	"sprint",
	"rank",
	"path",
	"risk",
	"category",
	"complexity",
	"churn_rate",
	"loc",
}

// PrintSnapshotResults outputs one snapshot, dispatching based on the output format configured.
func PrintSnapshotResults(s *schema.AnalysisSnapshot, cfg *contract.Config) error {
	if cfg.Output == schema.ParquetOut {
		rows := parquet.HotspotRows([]schema.AnalysisSnapshot{*s})
		if err := parquet.WriteHotspotsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		contract.LogInfo("💾 Wrote %d hotspots to %s", len(rows), cfg.OutputFile)
		return nil
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteSnapshotResults(w, s, cfg)
	}, "Wrote snapshot")
}

// WriteSnapshotResults writes one snapshot to w in the text, JSON or CSV format.
func WriteSnapshotResults(w io.Writer, s *schema.AnalysisSnapshot, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, s); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVHotspots(w, *s); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeSnapshotText(w, s, cfg); err != nil {
			return fmt.Errorf("error writing snapshot table output: %w", err)
		}
	}
	return nil
}

// writeCSVHotspots writes the ranked hotspot list of a snapshot.
func writeCSVHotspots(w io.Writer, s schema.AnalysisSnapshot) error {
	return writeCSVWithHeader(w, hotspotCSVHeader, func(cw *csv.Writer) error {
		for _, r := range schema.NewHotspotRecords(s) {
			rec := []string{
				r.RepoID,
				strconv.Itoa(r.Sprint),
				strconv.Itoa(r.Rank),
				r.Path,
				strconv.Itoa(r.Risk),
				string(r.Category),
				strconv.Itoa(r.Complexity),
				strconv.Itoa(r.ChurnRate),
				strconv.Itoa(r.LOC),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSnapshotText writes the summary block, the hotspot table and the events of a snapshot.
func writeSnapshotText(w io.Writer, s *schema.AnalysisSnapshot, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	agg := s.AggregateMetrics
	cmp := s.Comparison

	// 1. Summary
	lines := []string{
		fmt.Sprintf("Repository: %s  Sprint: %d  Built: %s (%s)",
			s.RepoID, s.Sprint, s.Timestamp.Format(contract.DateTimeFormat), humanize.Time(s.Timestamp)),
		fmt.Sprintf("Health: %s (%s)  Avg risk: %s (%s)",
			fmtFloat(agg.HealthScore), contract.FormatDelta(cmp.HealthScoreDelta, cfg.Precision, true, cfg.UseColors),
			fmtFloat(agg.AvgRisk), contract.FormatDelta(cmp.RiskDelta, cfg.Precision, false, cfg.UseColors)),
		fmt.Sprintf("Hotspots: %d (+%d new, -%d resolved)  Warnings: %d  Healthy: %d",
			agg.HotspotCount, cmp.HotspotsAdded, cmp.HotspotsResolved, agg.WarningCount, agg.HealthyCount),
		fmt.Sprintf("Files: %s  LOC: %s  Avg complexity: %s  Avg churn: %s",
			humanize.Comma(int64(agg.TotalFiles)), humanize.Comma(int64(agg.TotalLOC)),
			fmtFloat(agg.AvgComplexity), fmtFloat(agg.AvgChurn)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	// 2. Hotspots
	if len(s.TopHotspots) > 0 {
		if err := writeHotspotTable(w, s.TopHotspots, cfg); err != nil {
			return err
		}
	}

	// 3. Events
	if len(s.Events) > 0 {
		if _, err := fmt.Fprintln(w, "Events:"); err != nil {
			return err
		}
		for _, e := range s.Events {
			before := "untracked"
			if e.PreviousRisk != nil {
				before = strconv.Itoa(*e.PreviousRisk)
			}
			if _, err := fmt.Fprintf(w, "  %-18s %s (risk %s -> %d)\n", e.Kind, e.Path, before, e.Risk); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeHotspotTable renders ranked files as a table.
func writeHotspotTable(w io.Writer, files []schema.ScoredFile, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Path", "Risk", "Category", "Complexity", "Churn", "LOC"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg)
	var data [][]string
	for i, f := range files {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(f.Path, pathWidth),
			strconv.Itoa(f.Risk),
			categoryLabel(f.Category, cfg.UseColors),
			strconv.Itoa(f.Complexity),
			strconv.Itoa(f.ChurnRate),
			humanize.Comma(int64(f.LOC)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
