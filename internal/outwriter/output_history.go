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

// historyCSVHeader is the column order of snapshot rows in CSV output.
var historyCSVHeader = []string{
	"repo_id",
	"sprint",
	"timestamp",
	"total_files",
	"avg_complexity",
	"avg_churn",
	"avg_risk",
	"hotspot_count",
	"warning_count",
	"healthy_count",
	"total_loc",
	"health_score",
	"risk_delta",
	"hotspots_added",
	"hotspots_resolved",
	"health_score_delta",
	"event_count",
}

// PrintHistoryResults outputs a list of snapshots, dispatching based on the output format configured.
func PrintHistoryResults(repoID string, snapshots []schema.AnalysisSnapshot, cfg *contract.Config) error {
	if cfg.Output == schema.ParquetOut {
		rows := parquet.SnapshotRows(snapshots)
		if err := parquet.WriteSnapshotsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		contract.LogInfo("💾 Wrote %d snapshots to %s", len(rows), cfg.OutputFile)
		return nil
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteHistoryResults(w, repoID, snapshots, cfg)
	}, "Wrote history")
}

// WriteHistoryResults writes a list of snapshots to w in the text, JSON or CSV format.
func WriteHistoryResults(w io.Writer, repoID string, snapshots []schema.AnalysisSnapshot, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if snapshots == nil {
			snapshots = []schema.AnalysisSnapshot{}
		}
		if err := writeJSON(w, snapshots); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		fmtFloat := createFormatter(cfg.Precision)
		if err := writeCSVHistory(w, snapshots, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeHistoryTable(w, repoID, snapshots, cfg); err != nil {
			return fmt.Errorf("error writing history table output: %w", err)
		}
	}
	return nil
}

// writeCSVHistory writes one row per snapshot.
func writeCSVHistory(w io.Writer, snapshots []schema.AnalysisSnapshot, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, historyCSVHeader, func(cw *csv.Writer) error {
		for _, s := range snapshots {
			r := schema.NewSnapshotRecord(s)
			rec := []string{
				r.RepoID,
				strconv.Itoa(r.Sprint),
				r.Timestamp.Format(contract.DateTimeFormat),
				strconv.Itoa(r.TotalFiles),
				fmtFloat(r.AvgComplexity),
				fmtFloat(r.AvgChurn),
				fmtFloat(r.AvgRisk),
				strconv.Itoa(r.HotspotCount),
				strconv.Itoa(r.WarningCount),
				strconv.Itoa(r.HealthyCount),
				strconv.Itoa(r.TotalLOC),
				fmtFloat(r.HealthScore),
				fmtFloat(r.RiskDelta),
				strconv.Itoa(r.HotspotsAdded),
				strconv.Itoa(r.HotspotsResolved),
				fmtFloat(r.HealthScoreDelta),
				strconv.Itoa(r.EventCount),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeHistoryTable prints one line per sprint, oldest first.
func writeHistoryTable(w io.Writer, repoID string, snapshots []schema.AnalysisSnapshot, cfg *contract.Config) error {
	if len(snapshots) == 0 {
		_, err := fmt.Fprintf(w, "No snapshots found for %s\n", repoID)
		return err
	}

	fmtFloat := createFormatter(cfg.Precision)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Sprint", "Built", "Files", "Avg Risk", "Hotspots", "Health", "Δ Health", "Events"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range snapshots {
		agg := s.AggregateMetrics
		data = append(data, []string{
			strconv.Itoa(s.Sprint),
			s.Timestamp.Format("2006-01-02"),
			humanize.Comma(int64(agg.TotalFiles)),
			fmtFloat(agg.AvgRisk),
			strconv.Itoa(agg.HotspotCount),
			fmtFloat(agg.HealthScore),
			contract.FormatDelta(s.Comparison.HealthScoreDelta, cfg.Precision, true, cfg.UseColors),
			strconv.Itoa(len(s.Events)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	first, last := snapshots[0], snapshots[len(snapshots)-1]
	_, err := fmt.Fprintf(w, "Showing %d snapshots of %s (sprints %d..%d, health %s -> %s)\n",
		len(snapshots), repoID, first.Sprint, last.Sprint,
		fmtFloat(first.AggregateMetrics.HealthScore), fmtFloat(last.AggregateMetrics.HealthScore))
	return err
}
