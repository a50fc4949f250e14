package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(output schema.OutputMode) *contract.Config {
	return &contract.Config{
		Output:    output,
		Precision: 1,
		UseColors: false,
		Width:     140,
		Workers:   4,
	}
}

func testSnapshot(sprint int, health float64) schema.AnalysisSnapshot {
	previousRisk := 60
	return schema.AnalysisSnapshot{
		SchemaVersion: schema.SnapshotSchemaVersion,
		RepoID:        "acme/api",
		Sprint:        sprint,
		Timestamp:     time.Date(2024, 3, sprint, 12, 0, 0, 0, time.UTC),
		Thresholds:    schema.DefaultThresholds(),
		AggregateMetrics: schema.AggregateMetrics{
			TotalFiles:    1500,
			AvgComplexity: 31.5,
			AvgChurn:      22.25,
			AvgRisk:       100 - health,
			HotspotCount:  2,
			WarningCount:  10,
			HealthyCount:  1488,
			TotalLOC:      123456,
			HealthScore:   health,
		},
		TopHotspots: []schema.ScoredFile{
			{Path: "core/engine.go", Risk: 91, Complexity: 100, ChurnRate: 90, LOC: 2400, Category: schema.CriticalCategory},
			{Path: "api/routes.go", Risk: 74, Complexity: 80, ChurnRate: 70, LOC: 600, Category: schema.CriticalCategory},
			{Path: "db/query.go", Risk: 45, Complexity: 50, ChurnRate: 40, LOC: 300, Category: schema.WarningCategory},
		},
		Comparison: schema.Comparison{RiskDelta: -3.5, HotspotsAdded: 1, HealthScoreDelta: 3.5},
		Events: []schema.Event{
			{Kind: schema.CriticalEnteredEvent, Path: "api/routes.go", Risk: 74, PreviousRisk: &previousRisk},
		},
	}
}

func TestWriteSnapshotResults_Text(t *testing.T) {
	s := testSnapshot(2, 62.5)
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshotResults(&buf, &s, testConfig(schema.TextOut)))

	out := buf.String()
	assert.Contains(t, out, "Repository: acme/api  Sprint: 2")
	assert.Contains(t, out, "Health: 62.5 (+3.5)")
	assert.Contains(t, out, "Avg risk: 37.5 (-3.5)")
	assert.Contains(t, out, "Hotspots: 2 (+1 new, -0 resolved)")
	assert.Contains(t, out, "Files: 1,500  LOC: 123,456")
	assert.Contains(t, out, "core/engine.go")
	assert.Contains(t, out, "Critical")
	assert.Contains(t, out, "2,400")
	assert.Contains(t, out, "Events:")
	assert.Contains(t, out, "critical_entered")
	assert.Contains(t, out, "api/routes.go (risk 60 -> 74)")
}

func TestWriteSnapshotResults_UntrackedEvent(t *testing.T) {
	s := testSnapshot(2, 62.5)
	s.Events = []schema.Event{{Kind: schema.CriticalEnteredEvent, Path: "gen/new.go", Risk: 88}}
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshotResults(&buf, &s, testConfig(schema.TextOut)))
	assert.Contains(t, buf.String(), "gen/new.go (risk untracked -> 88)")

	buf.Reset()
	require.NoError(t, WriteSnapshotResults(&buf, &s, testConfig(schema.JSONOut)))
	assert.NotContains(t, buf.String(), "previous_risk")
}

func TestWriteSnapshotResults_JSON(t *testing.T) {
	s := testSnapshot(2, 62.5)
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshotResults(&buf, &s, testConfig(schema.JSONOut)))

	var decoded schema.AnalysisSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, s.RepoID, decoded.RepoID)
	assert.Equal(t, s.AggregateMetrics, decoded.AggregateMetrics)
	assert.Equal(t, s.TopHotspots, decoded.TopHotspots)
	assert.Equal(t, s.Events, decoded.Events)
}

func TestWriteSnapshotResults_CSV(t *testing.T) {
	s := testSnapshot(2, 62.5)
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshotResults(&buf, &s, testConfig(schema.CSVOut)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, hotspotCSVHeader, records[0])
	assert.Equal(t, []string{"acme/api", "2", "1", "core/engine.go", "91", "critical", "100", "90", "2400"}, records[1])
	assert.Equal(t, "3", records[3][2])
}

func TestWriteHistoryResults_Text(t *testing.T) {
	history := []schema.AnalysisSnapshot{testSnapshot(1, 59), testSnapshot(2, 62.5)}
	var buf bytes.Buffer
	require.NoError(t, WriteHistoryResults(&buf, "acme/api", history, testConfig(schema.TextOut)))

	out := buf.String()
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "2024-03-02")
	assert.Contains(t, out, "+3.5")
	assert.Contains(t, out, "Showing 2 snapshots of acme/api (sprints 1..2, health 59.0 -> 62.5)")
}

func TestWriteHistoryResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistoryResults(&buf, "acme/api", nil, testConfig(schema.TextOut)))
	assert.Equal(t, "No snapshots found for acme/api\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteHistoryResults(&buf, "acme/api", nil, testConfig(schema.JSONOut)))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteHistoryResults_CSV(t *testing.T) {
	history := []schema.AnalysisSnapshot{testSnapshot(1, 59), testSnapshot(2, 62.5)}
	cfg := testConfig(schema.CSVOut)
	cfg.Precision = 2
	var buf bytes.Buffer
	require.NoError(t, WriteHistoryResults(&buf, "acme/api", history, cfg))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, historyCSVHeader, records[0])
	assert.Equal(t, "1", records[1][1])
	assert.Equal(t, "2024-03-01T12:00:00Z", records[1][2])
	assert.Equal(t, "59.00", records[1][11])
	assert.Equal(t, "3.50", records[2][15])
	assert.Equal(t, "1", records[2][16])
}

func TestWriteHistoryResults_JSONOrder(t *testing.T) {
	history := []schema.AnalysisSnapshot{testSnapshot(1, 59), testSnapshot(2, 62.5)}
	var buf bytes.Buffer
	require.NoError(t, WriteHistoryResults(&buf, "acme/api", history, testConfig(schema.JSONOut)))

	var decoded []schema.AnalysisSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 1, decoded[0].Sprint)
	assert.Equal(t, 2, decoded[1].Sprint)
}

func TestWriteBuildResults(t *testing.T) {
	out := &schema.BuildOutput{
		Snapshot: testSnapshot(3, 70),
		Errors: []schema.FileError{
			{Path: "gen/x.go", Reason: "duplicate path"},
			{Path: "vendor/blob.bin", Reason: "unreadable by metrics provider"},
		},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteBuildResults(&buf, out, testConfig(schema.TextOut), "sqlite", 250*time.Millisecond))
		text := buf.String()
		assert.Contains(t, text, "Health: 70.0")
		assert.Contains(t, text, "Skipped 2 files:")
		assert.Contains(t, text, "unreadable by metrics provider")
		assert.Contains(t, text, "Build completed in 250ms with 4 workers. Store backend: sqlite")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteBuildResults(&buf, out, testConfig(schema.JSONOut), "sqlite", time.Second))
		var decoded schema.BuildOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, out.Errors, decoded.Errors)
		assert.Equal(t, 3, decoded.Snapshot.Sprint)
	})

	t.Run("json without errors", func(t *testing.T) {
		clean := &schema.BuildOutput{Snapshot: testSnapshot(3, 70)}
		var buf bytes.Buffer
		require.NoError(t, WriteBuildResults(&buf, clean, testConfig(schema.JSONOut), "memory", time.Second))
		assert.Contains(t, buf.String(), `"errors": []`)
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteBuildResults(&buf, out, testConfig(schema.CSVOut), "sqlite", time.Second))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 4)
	})
}

func TestPrintHistoryResults_Parquet(t *testing.T) {
	cfg := testConfig(schema.ParquetOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "history.parquet")
	history := []schema.AnalysisSnapshot{testSnapshot(1, 59), testSnapshot(2, 62.5)}

	require.NoError(t, NewOutWriter().WriteHistory("acme/api", history, cfg))
	info, err := os.Stat(cfg.OutputFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPrintSnapshotResults_File(t *testing.T) {
	cfg := testConfig(schema.JSONOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "latest.json")
	s := testSnapshot(2, 62.5)

	require.NoError(t, NewOutWriter().WriteSnapshot(&s, cfg))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"repo_id": "acme/api"`)
}

func TestGetMaxTablePathWidth(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{width: 60, expected: 15},
		{width: 120, expected: 40},
		{width: 400, expected: 70},
	}
	for _, tt := range tests {
		cfg := &contract.Config{Width: tt.width}
		assert.Equal(t, tt.expected, GetMaxTablePathWidth(cfg))
	}
}
