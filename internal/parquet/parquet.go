// Package parquet provides data structures and functions for exporting analysis
// snapshots to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/mri/schema"
	"github.com/parquet-go/parquet-go"
)

// SnapshotRow is one snapshot flattened into a single row.
// This struct maps to the mri_snapshots table plus the comparison fields of the payload.
type SnapshotRow struct {
	// RepoID and Sprint identify the snapshot
	RepoID string `parquet:"repo_id,snappy,dict"`
	Sprint int32  `parquet:"sprint,snappy"`

	// Timestamp is when the snapshot was built (stored as TIMESTAMP with nanosecond precision)
	Timestamp time.Time `parquet:"timestamp,snappy"`

	SchemaVersion int32 `parquet:"schema_version,snappy"`

	// Aggregate metrics
	TotalFiles    int32   `parquet:"total_files,snappy"`
	AvgComplexity float64 `parquet:"avg_complexity,snappy"`
	AvgChurn      float64 `parquet:"avg_churn,snappy"`
	AvgRisk       float64 `parquet:"avg_risk,snappy"`
	HotspotCount  int32   `parquet:"hotspot_count,snappy"`
	WarningCount  int32   `parquet:"warning_count,snappy"`
	HealthyCount  int32   `parquet:"healthy_count,snappy"`
	TotalLOC      int64   `parquet:"total_loc,snappy"`
	HealthScore   float64 `parquet:"health_score,snappy"`

	// Comparison against the previous sprint
	RiskDelta        float64 `parquet:"risk_delta,snappy"`
	HotspotsAdded    int32   `parquet:"hotspots_added,snappy"`
	HotspotsResolved int32   `parquet:"hotspots_resolved,snappy"`
	HealthScoreDelta float64 `parquet:"health_score_delta,snappy"`

	// EventCount is the number of critical transitions recorded by the build
	EventCount int32 `parquet:"event_count,snappy"`
}

// HotspotRow is one ranked entry of a snapshot's hotspot list.
type HotspotRow struct {
	RepoID     string `parquet:"repo_id,snappy,dict"`
	Sprint     int32  `parquet:"sprint,snappy"`
	Rank       int32  `parquet:"rank,snappy"`
	Path       string `parquet:"path,snappy"`
	Risk       int32  `parquet:"risk,snappy"`
	Complexity int32  `parquet:"complexity,snappy"`
	ChurnRate  int32  `parquet:"churn_rate,snappy"`
	LOC        int64  `parquet:"loc,snappy"`
	Category   string `parquet:"category,snappy,dict"`
}

// writeParquet writes rows of any struct type to a new Parquet file.
func writeParquet[T any](data []T, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteSnapshotsParquet writes a slice of SnapshotRow structs to a Parquet file.
func WriteSnapshotsParquet(data []SnapshotRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteHotspotsParquet writes a slice of HotspotRow structs to a Parquet file.
func WriteHotspotsParquet(data []HotspotRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertSnapshotRecords converts schema.SnapshotRecord to SnapshotRow for Parquet export.
func ConvertSnapshotRecords(records []schema.SnapshotRecord) []SnapshotRow {
	result := make([]SnapshotRow, len(records))
	for i, r := range records {
		result[i] = SnapshotRow{
			RepoID:           r.RepoID,
			Sprint:           int32(r.Sprint),
			Timestamp:        r.Timestamp,
			SchemaVersion:    int32(r.SchemaVersion),
			TotalFiles:       int32(r.TotalFiles),
			AvgComplexity:    r.AvgComplexity,
			AvgChurn:         r.AvgChurn,
			AvgRisk:          r.AvgRisk,
			HotspotCount:     int32(r.HotspotCount),
			WarningCount:     int32(r.WarningCount),
			HealthyCount:     int32(r.HealthyCount),
			TotalLOC:         int64(r.TotalLOC),
			HealthScore:      r.HealthScore,
			RiskDelta:        r.RiskDelta,
			HotspotsAdded:    int32(r.HotspotsAdded),
			HotspotsResolved: int32(r.HotspotsResolved),
			HealthScoreDelta: r.HealthScoreDelta,
			EventCount:       int32(r.EventCount),
		}
	}
	return result
}

// ConvertHotspotRecords converts schema.HotspotRecord to HotspotRow for Parquet export.
func ConvertHotspotRecords(records []schema.HotspotRecord) []HotspotRow {
	result := make([]HotspotRow, len(records))
	for i, r := range records {
		result[i] = HotspotRow{
			RepoID:     r.RepoID,
			Sprint:     int32(r.Sprint),
			Rank:       int32(r.Rank),
			Path:       r.Path,
			Risk:       int32(r.Risk),
			Complexity: int32(r.Complexity),
			ChurnRate:  int32(r.ChurnRate),
			LOC:        int64(r.LOC),
			Category:   string(r.Category),
		}
	}
	return result
}

// SnapshotRows flattens snapshots into snapshot rows.
func SnapshotRows(snapshots []schema.AnalysisSnapshot) []SnapshotRow {
	records := make([]schema.SnapshotRecord, len(snapshots))
	for i, s := range snapshots {
		records[i] = schema.NewSnapshotRecord(s)
	}
	return ConvertSnapshotRecords(records)
}

// HotspotRows flattens the hotspot lists of snapshots into hotspot rows.
func HotspotRows(snapshots []schema.AnalysisSnapshot) []HotspotRow {
	var records []schema.HotspotRecord
	for _, s := range snapshots {
		records = append(records, schema.NewHotspotRecords(s)...)
	}
	return ConvertHotspotRecords(records)
}
