package core

import "github.com/huangsam/mri/schema"

// tally is the order-independent reduction state of the aggregator.
// Sums are integers so that merging partial tallies in any order gives the same result.
type tally struct {
	files      int
	complexity int
	churn      int
	risk       int
	loc        int
	critical   int
	warning    int
	healthy    int
}

// add folds one scored file into the tally.
func (t *tally) add(f schema.ScoredFile) {
	t.files++
	t.complexity += f.Complexity
	t.churn += f.ChurnRate
	t.risk += f.Risk
	t.loc += f.LOC
	switch f.Category {
	case schema.CriticalCategory:
		t.critical++
	case schema.WarningCategory:
		t.warning++
	default:
		t.healthy++
	}
}

// merge combines another tally into this one.
func (t *tally) merge(o tally) {
	t.files += o.files
	t.complexity += o.complexity
	t.churn += o.churn
	t.risk += o.risk
	t.loc += o.loc
	t.critical += o.critical
	t.warning += o.warning
	t.healthy += o.healthy
}

// metrics divides the sums into the repository-wide statistics.
func (t tally) metrics() schema.AggregateMetrics {
	if t.files == 0 {
		// An empty repository is maximally healthy.
		return schema.AggregateMetrics{HealthScore: maxScore}
	}
	n := float64(t.files)
	avgRisk := round1(float64(t.risk) / n)
	return schema.AggregateMetrics{
		TotalFiles:    t.files,
		AvgComplexity: round1(float64(t.complexity) / n),
		AvgChurn:      round1(float64(t.churn) / n),
		AvgRisk:       avgRisk,
		HotspotCount:  t.critical,
		WarningCount:  t.warning,
		HealthyCount:  t.healthy,
		TotalLOC:      t.loc,
		HealthScore:   round1(clamp(maxScore-avgRisk, 0, maxScore)),
	}
}

// Aggregate reduces scored files into repository-wide statistics.
// File order never affects the result.
func Aggregate(files []schema.ScoredFile) schema.AggregateMetrics {
	var t tally
	for _, f := range files {
		t.add(f)
	}
	return t.metrics()
}
