package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/mri/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshots() []schema.AnalysisSnapshot {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	previousRisk := 100
	return []schema.AnalysisSnapshot{
		{
			SchemaVersion: schema.SnapshotSchemaVersion,
			RepoID:        "acme/api",
			Sprint:        1,
			Timestamp:     ts,
			AggregateMetrics: schema.AggregateMetrics{
				TotalFiles: 2, AvgRisk: 73, HotspotCount: 1, WarningCount: 1, TotalLOC: 1100, HealthScore: 27,
			},
			TopHotspots: []schema.ScoredFile{
				{Path: "b.go", Risk: 100, Complexity: 100, ChurnRate: 100, LOC: 1000, Category: schema.CriticalCategory},
				{Path: "a.go", Risk: 46, Complexity: 50, ChurnRate: 50, LOC: 100, Category: schema.WarningCategory},
			},
		},
		{
			SchemaVersion: schema.SnapshotSchemaVersion,
			RepoID:        "acme/api",
			Sprint:        2,
			Timestamp:     ts.Add(14 * 24 * time.Hour),
			AggregateMetrics: schema.AggregateMetrics{
				TotalFiles: 2, AvgRisk: 53, WarningCount: 2, TotalLOC: 1100, HealthScore: 47,
			},
			TopHotspots: []schema.ScoredFile{
				{Path: "b.go", Risk: 60, Category: schema.WarningCategory},
				{Path: "a.go", Risk: 46, Category: schema.WarningCategory},
			},
			Comparison: schema.Comparison{RiskDelta: -20, HotspotsResolved: 1, HealthScoreDelta: 20},
			Events:     []schema.Event{{Kind: schema.CriticalResolvedEvent, Path: "b.go", Risk: 60, PreviousRisk: &previousRisk}},
		},
	}
}

func TestSnapshotRowStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	s := parquet.SchemaOf(new(SnapshotRow))
	require.NotNil(t, s)

	expectedColumns := []string{
		"repo_id", "sprint", "timestamp", "schema_version",
		"total_files", "avg_complexity", "avg_churn", "avg_risk",
		"hotspot_count", "warning_count", "healthy_count", "total_loc", "health_score",
		"risk_delta", "hotspots_added", "hotspots_resolved", "health_score_delta", "event_count",
	}
	for _, colName := range expectedColumns {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestHotspotRowStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(HotspotRow))
	require.NotNil(t, s)

	for _, colName := range []string{"repo_id", "sprint", "rank", "path", "risk", "complexity", "churn_rate", "loc", "category"} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteSnapshotsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "snapshots.parquet")
	data := SnapshotRows(sampleSnapshots())
	require.Len(t, data, 2)

	require.NoError(t, WriteSnapshotsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[SnapshotRow](file)
	defer func() { _ = reader.Close() }()

	readData := make([]SnapshotRow, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, len(data), n)

	for i := range data {
		assert.Equal(t, data[i].RepoID, readData[i].RepoID)
		assert.Equal(t, data[i].Sprint, readData[i].Sprint)
		assert.InDelta(t, data[i].HealthScore, readData[i].HealthScore, 1e-9)
		assert.Equal(t, data[i].HotspotsResolved, readData[i].HotspotsResolved)
		assert.Equal(t, data[i].EventCount, readData[i].EventCount)
		assert.WithinDuration(t, data[i].Timestamp, readData[i].Timestamp, time.Nanosecond)
	}
}

func TestWriteHotspotsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "hotspots.parquet")
	data := HotspotRows(sampleSnapshots())
	require.Len(t, data, 4)
	assert.Equal(t, int32(1), data[0].Rank)
	assert.Equal(t, "critical", data[0].Category)
	assert.Equal(t, int32(2), data[3].Sprint)

	require.NoError(t, WriteHotspotsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[HotspotRow](file)
	defer func() { _ = reader.Close() }()
	assert.Equal(t, int64(len(data)), reader.NumRows())
}

func TestWriteSnapshotsParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteSnapshotsParquet([]SnapshotRow{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Parquet file should have a footer even without rows")
}

func TestWriteSnapshotsParquet_InvalidPath(t *testing.T) {
	err := WriteSnapshotsParquet(SnapshotRows(sampleSnapshots()), "/nonexistent/directory/out.parquet")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}
