package schema

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryForRisk(t *testing.T) {
	tests := []struct {
		risk     int
		expected Category
	}{
		{0, HealthyCategory},
		{39, HealthyCategory},
		{40, WarningCategory},
		{46, WarningCategory},
		{70, WarningCategory},
		{71, CriticalCategory},
		{100, CriticalCategory},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategoryForRisk(tt.risk), "risk %d", tt.risk)
	}
}

func TestCategoryForRiskHasNoGaps(t *testing.T) {
	for risk := 0; risk <= 100; risk++ {
		c := CategoryForRisk(risk)
		switch {
		case risk > 70:
			assert.Equal(t, CriticalCategory, c)
		case risk >= 40:
			assert.Equal(t, WarningCategory, c)
		default:
			assert.Equal(t, HealthyCategory, c)
		}
	}
}

func TestCategorySeverity(t *testing.T) {
	assert.Less(t, HealthyCategory.Severity(), WarningCategory.Severity())
	assert.Less(t, WarningCategory.Severity(), CriticalCategory.Severity())
	assert.Equal(t, 0, Category("bogus").Severity())
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	tests := []struct {
		name   string
		mutate func(*Thresholds)
	}{
		{"zero complexity threshold", func(th *Thresholds) { th.ComplexityThreshold = 0 }},
		{"negative complexity threshold", func(th *Thresholds) { th.ComplexityThreshold = -1 }},
		{"zero churn window", func(th *Thresholds) { th.ChurnWindowSize = 0 }},
		{"zero size saturation", func(th *Thresholds) { th.SizeSaturationLOC = 0 }},
		{"negative weight", func(th *Thresholds) { th.Weights.Churn = -0.1 }},
		{"all zero weights", func(th *Thresholds) { th.Weights = RiskWeights{} }},
		{"NaN complexity threshold", func(th *Thresholds) { th.ComplexityThreshold = math.NaN() }},
		{"NaN weight", func(th *Thresholds) { th.Weights.Size = math.NaN() }},
		{"infinite weight", func(th *Thresholds) { th.Weights.Complexity = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			err := th.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidThreshold)
		})
	}
}

func TestInvalidMetricError(t *testing.T) {
	var err error = &InvalidMetricError{Path: "a.go", Field: "loc", Value: -3}
	assert.True(t, errors.Is(err, ErrInvalidMetric))
	assert.Equal(t, "a.go: loc must be >= 0 (got -3)", err.Error())
}

func TestLeaseExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	lease := Lease{RepoID: "r", Owner: "o", AcquiredAt: now, ExpiresAt: now.Add(time.Minute)}

	assert.False(t, lease.Expired(now))
	assert.False(t, lease.Expired(now.Add(59*time.Second)))
	assert.True(t, lease.Expired(now.Add(time.Minute)))
	assert.True(t, lease.Expired(now.Add(time.Hour)))
}

func TestComparisonIsZero(t *testing.T) {
	assert.True(t, Comparison{}.IsZero())
	assert.False(t, Comparison{HotspotsResolved: 1}.IsZero())
}

func TestNewSnapshotRecords(t *testing.T) {
	s := AnalysisSnapshot{
		SchemaVersion: SnapshotSchemaVersion,
		RepoID:        "repo",
		Sprint:        3,
		AggregateMetrics: AggregateMetrics{
			TotalFiles: 2, AvgRisk: 73, HotspotCount: 1, WarningCount: 1, HealthScore: 27, TotalLOC: 1100,
		},
		TopHotspots: []ScoredFile{
			{Path: "b", Risk: 100, Category: CriticalCategory},
			{Path: "a", Risk: 46, Category: WarningCategory},
		},
		Comparison: Comparison{RiskDelta: -5, HotspotsResolved: 1},
		Events:     []Event{{Kind: CriticalResolvedEvent, Path: "c"}},
	}

	rec := NewSnapshotRecord(s)
	assert.Equal(t, "repo", rec.RepoID)
	assert.Equal(t, 3, rec.Sprint)
	assert.Equal(t, 2, rec.TotalFiles)
	assert.InDelta(t, 27.0, rec.HealthScore, 1e-9)
	assert.InDelta(t, -5.0, rec.RiskDelta, 1e-9)
	assert.Equal(t, 1, rec.HotspotsResolved)
	assert.Equal(t, 1, rec.EventCount)

	hot := NewHotspotRecords(s)
	require.Len(t, hot, 2)
	assert.Equal(t, 1, hot[0].Rank)
	assert.Equal(t, "b", hot[0].Path)
	assert.Equal(t, 2, hot[1].Rank)
	assert.Equal(t, WarningCategory, hot[1].Category)
}
