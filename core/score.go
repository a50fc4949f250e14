package core

import (
	"math"

	"github.com/huangsam/mri/schema"
)

// Normalization targets of the risk model.
const (
	complexityAtThreshold = 50.0  // a file at exactly the complexity threshold scores this
	maxScore              = 100.0 // every normalized signal saturates here
)

// ScoreFile runs one file metric through the risk model. It fails with
// schema.ErrInvalidThreshold for unusable thresholds and with a
// *schema.InvalidMetricError when a raw value is negative or not a number.
func ScoreFile(m schema.FileMetric, th schema.Thresholds) (schema.ScoredFile, error) {
	if err := th.Validate(); err != nil {
		return schema.ScoredFile{}, err
	}
	return scoreFile(m, th)
}

// scoreFile is ScoreFile without threshold validation, for callers that already validated.
func scoreFile(m schema.FileMetric, th schema.Thresholds) (schema.ScoredFile, error) {
	if err := validateMetric(m); err != nil {
		return schema.ScoredFile{}, err
	}

	complexity := normalize(m.RawComplexity / th.ComplexityThreshold * complexityAtThreshold)
	churnRate := normalize(float64(m.RawChurnCount) / float64(th.ChurnWindowSize) * maxScore)
	sizeScore := normalize(float64(m.RawLOC) / float64(th.SizeSaturationLOC) * maxScore)

	w := th.Weights
	risk := normalize(w.Complexity*float64(complexity) + w.Churn*float64(churnRate) + w.Size*float64(sizeScore))

	return schema.ScoredFile{
		Path:       m.Path,
		Risk:       risk,
		Complexity: complexity,
		ChurnRate:  churnRate,
		LOC:        m.RawLOC,
		Category:   schema.CategoryForRisk(risk),
	}, nil
}

// validateMetric rejects negative raw values.
func validateMetric(m schema.FileMetric) error {
	if m.RawComplexity < 0 || math.IsNaN(m.RawComplexity) || math.IsInf(m.RawComplexity, 0) {
		return &schema.InvalidMetricError{Path: m.Path, Field: "complexity", Value: m.RawComplexity}
	}
	if m.RawChurnCount < 0 {
		return &schema.InvalidMetricError{Path: m.Path, Field: "churn", Value: float64(m.RawChurnCount)}
	}
	if m.RawLOC < 0 {
		return &schema.InvalidMetricError{Path: m.Path, Field: "loc", Value: float64(m.RawLOC)}
	}
	return nil
}

// normalize rounds v half away from zero and clamps it to [0, 100].
// The value is snapped to 1e-9 first so that weights like 0.35 cannot turn
// an exact .5 into .4999... and flip the rounding.
func normalize(v float64) int {
	v = math.Round(v*1e9) / 1e9
	return int(clamp(math.Round(v), 0, maxScore))
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
