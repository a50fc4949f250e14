package core

import (
	"testing"

	"github.com/huangsam/mri/schema"
	"github.com/stretchr/testify/assert"
)

func riskPtr(v int) *int { return &v }

// TestCompare tests count-based deltas between consecutive aggregates.
func TestCompare(t *testing.T) {
	current := schema.AggregateMetrics{AvgRisk: 46.7, HotspotCount: 1, HealthScore: 53.3}

	t.Run("no previous snapshot", func(t *testing.T) {
		assert.True(t, Compare(current, nil).IsZero())
	})

	t.Run("improvement", func(t *testing.T) {
		previous := schema.AggregateMetrics{AvgRisk: 50, HotspotCount: 3, HealthScore: 50}
		assert.Equal(t, schema.Comparison{
			RiskDelta:        -3.3,
			HotspotsAdded:    0,
			HotspotsResolved: 2,
			HealthScoreDelta: 3.3,
		}, Compare(current, &previous))
	})

	t.Run("regression", func(t *testing.T) {
		previous := schema.AggregateMetrics{AvgRisk: 40.2, HotspotCount: 0, HealthScore: 59.8}
		assert.Equal(t, schema.Comparison{
			RiskDelta:        6.5,
			HotspotsAdded:    1,
			HotspotsResolved: 0,
			HealthScoreDelta: -6.5,
		}, Compare(current, &previous))
	})

	t.Run("swapped hotspots show no movement", func(t *testing.T) {
		previous := current
		cmp := Compare(current, &previous)
		assert.Equal(t, 0, cmp.HotspotsAdded)
		assert.Equal(t, 0, cmp.HotspotsResolved)
	})
}

// TestDetectEvents tests critical boundary crossings between snapshots.
func TestDetectEvents(t *testing.T) {
	previous := &schema.AnalysisSnapshot{
		Files: []schema.ScoredFile{
			{Path: "a.go", Risk: 80, Category: schema.CriticalCategory},
			{Path: "b.go", Risk: 50, Category: schema.WarningCategory},
			{Path: "gone.go", Risk: 90, Category: schema.CriticalCategory},
			{Path: "steady.go", Risk: 75, Category: schema.CriticalCategory},
		},
	}
	current := []schema.ScoredFile{
		{Path: "steady.go", Risk: 77, Category: schema.CriticalCategory},
		{Path: "c.go", Risk: 90, Category: schema.CriticalCategory},
		{Path: "b.go", Risk: 75, Category: schema.CriticalCategory},
		{Path: "a.go", Risk: 60, Category: schema.WarningCategory},
	}

	events := DetectEvents(current, previous)

	assert.Equal(t, []schema.Event{
		{Kind: schema.CriticalEnteredEvent, Path: "b.go", Risk: 75, PreviousRisk: riskPtr(50)},
		{Kind: schema.CriticalEnteredEvent, Path: "c.go", Risk: 90, PreviousRisk: nil},
		{Kind: schema.CriticalResolvedEvent, Path: "a.go", Risk: 60, PreviousRisk: riskPtr(80)},
	}, events)
}

// TestDetectEvents_FirstSnapshot tests that a first snapshot has no baseline.
func TestDetectEvents_FirstSnapshot(t *testing.T) {
	current := []schema.ScoredFile{{Path: "c.go", Risk: 90, Category: schema.CriticalCategory}}
	assert.Nil(t, DetectEvents(current, nil))
}

// TestCompareSnapshots tests the whole-snapshot wrapper.
func TestCompareSnapshots(t *testing.T) {
	current := &schema.AnalysisSnapshot{AggregateMetrics: schema.AggregateMetrics{AvgRisk: 30, HealthScore: 70}}
	previous := &schema.AnalysisSnapshot{AggregateMetrics: schema.AggregateMetrics{AvgRisk: 20, HealthScore: 80, HotspotCount: 1}}

	assert.True(t, compareSnapshots(current, nil).IsZero())
	assert.Equal(t, schema.Comparison{RiskDelta: 10, HotspotsResolved: 1, HealthScoreDelta: -10}, compareSnapshots(current, previous))
}
