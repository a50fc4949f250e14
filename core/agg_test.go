package core

import (
	"slices"
	"testing"

	"github.com/huangsam/mri/schema"
	"github.com/stretchr/testify/assert"
)

func sampleScoredFiles() []schema.ScoredFile {
	return []schema.ScoredFile{
		{Path: "core/engine.go", Risk: 80, Complexity: 90, ChurnRate: 70, LOC: 100, Category: schema.CriticalCategory},
		{Path: "api/handler.go", Risk: 50, Complexity: 40, ChurnRate: 60, LOC: 200, Category: schema.WarningCategory},
		{Path: "util/strings.go", Risk: 10, Complexity: 10, ChurnRate: 5, LOC: 50, Category: schema.HealthyCategory},
	}
}

// TestAggregate tests the repository-wide reduction.
func TestAggregate(t *testing.T) {
	agg := Aggregate(sampleScoredFiles())

	assert.Equal(t, schema.AggregateMetrics{
		TotalFiles:    3,
		AvgComplexity: 46.7,
		AvgChurn:      45.0,
		AvgRisk:       46.7,
		HotspotCount:  1,
		WarningCount:  1,
		HealthyCount:  1,
		TotalLOC:      350,
		HealthScore:   53.3,
	}, agg)
}

// TestAggregate_Empty tests that an empty repository is maximally healthy.
func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil)
	assert.Equal(t, 0, agg.TotalFiles)
	assert.Equal(t, 0.0, agg.AvgRisk)
	assert.Equal(t, 100.0, agg.HealthScore)
}

// TestAggregate_OrderIndependent tests that file order never changes the result.
func TestAggregate_OrderIndependent(t *testing.T) {
	files := sampleScoredFiles()
	reversed := slices.Clone(files)
	slices.Reverse(reversed)

	assert.Equal(t, Aggregate(files), Aggregate(reversed))

	var left, right tally
	left.add(files[0])
	right.add(files[1])
	right.add(files[2])
	left.merge(right)
	assert.Equal(t, Aggregate(files), left.metrics())
}

// TestAggregate_CountsAddUp tests that every file lands in exactly one category.
func TestAggregate_CountsAddUp(t *testing.T) {
	files := make([]schema.ScoredFile, 0, 101)
	for risk := 0; risk <= 100; risk++ {
		files = append(files, schema.ScoredFile{Path: "f", Risk: risk, Category: schema.CategoryForRisk(risk)})
	}
	agg := Aggregate(files)
	assert.Equal(t, agg.TotalFiles, agg.HotspotCount+agg.WarningCount+agg.HealthyCount)
	assert.Equal(t, 30, agg.HotspotCount)
	assert.Equal(t, 31, agg.WarningCount)
	assert.Equal(t, 40, agg.HealthyCount)
	assert.Equal(t, 50.0, agg.AvgRisk)
	assert.Equal(t, 50.0, agg.HealthScore)
}
