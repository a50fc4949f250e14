// Package schema has models, constants and errors shared by all parts of mri.
package schema

import (
	"fmt"
	"math"
)

// FileMetric holds the raw signals for a single file as supplied by an
// external metrics provider. It is an input to a build and is never persisted.
type FileMetric struct {
	Path          string  `json:"path" yaml:"path"`             // Relative path, unique within a build
	RawComplexity float64 `json:"complexity" yaml:"complexity"` // Raw complexity (e.g. cyclomatic)
	RawChurnCount int     `json:"churn" yaml:"churn"`           // Touching changes within the churn window
	RawLOC        int     `json:"loc" yaml:"loc"`               // Lines of code
}

// ScoredFile is a FileMetric after it went through the risk model.
type ScoredFile struct {
	Path       string   `json:"path"`
	Risk       int      `json:"risk"`       // 0-100
	Complexity int      `json:"complexity"` // normalized 0-100
	ChurnRate  int      `json:"churn_rate"` // normalized 0-100
	LOC        int      `json:"loc"`
	Category   Category `json:"category"`
}

// AggregateMetrics are the repository-wide statistics of one snapshot.
type AggregateMetrics struct {
	TotalFiles    int     `json:"total_files"`
	AvgComplexity float64 `json:"avg_complexity"`
	AvgChurn      float64 `json:"avg_churn"`
	AvgRisk       float64 `json:"avg_risk"`
	HotspotCount  int     `json:"hotspot_count"` // critical files
	WarningCount  int     `json:"warning_count"`
	HealthyCount  int     `json:"healthy_count"`
	TotalLOC      int     `json:"total_loc"`
	HealthScore   float64 `json:"health_score"` // clamp(0, 100, 100 - AvgRisk)
}

// RiskWeights are the weights of the normalized signals in the final risk score.
type RiskWeights struct {
	Complexity float64 `json:"complexity" mapstructure:"complexity"`
	Churn      float64 `json:"churn" mapstructure:"churn"`
	Size       float64 `json:"size" mapstructure:"size"`
}

// Thresholds are the repository-specific scoring parameters of a build.
// They come from the repository's analysis settings and are read-only for the engine.
type Thresholds struct {
	ComplexityThreshold float64     `json:"complexity_threshold"` // raw complexity that scores 50
	ChurnWindowSize     int         `json:"churn_window_size"`    // expected observation periods in the window
	SizeSaturationLOC   int         `json:"size_saturation_loc"`  // LOC at which the size score saturates
	Weights             RiskWeights `json:"weights"`
}

// DefaultThresholds returns the thresholds used when a repository has no custom settings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ComplexityThreshold: DefaultComplexityThreshold,
		ChurnWindowSize:     DefaultChurnWindowSize,
		SizeSaturationLOC:   DefaultSizeSaturationLOC,
		Weights:             DefaultRiskWeights(),
	}
}

// DefaultRiskWeights returns the default 0.50/0.35/0.15 weighting.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		Complexity: DefaultComplexityWeight,
		Churn:      DefaultChurnWeight,
		Size:       DefaultSizeWeight,
	}
}

// Validate reports an ErrInvalidThreshold when the thresholds cannot be used for scoring.
func (t Thresholds) Validate() error {
	if !(t.ComplexityThreshold > 0) || math.IsInf(t.ComplexityThreshold, 1) {
		return fmt.Errorf("%w: complexity threshold must be > 0 (got %v)", ErrInvalidThreshold, t.ComplexityThreshold)
	}
	if t.ChurnWindowSize <= 0 {
		return fmt.Errorf("%w: churn window size must be > 0 (got %d)", ErrInvalidThreshold, t.ChurnWindowSize)
	}
	if t.SizeSaturationLOC <= 0 {
		return fmt.Errorf("%w: size saturation must be > 0 (got %d)", ErrInvalidThreshold, t.SizeSaturationLOC)
	}
	w := t.Weights
	if !finiteNonNegative(w.Complexity) || !finiteNonNegative(w.Churn) || !finiteNonNegative(w.Size) {
		return fmt.Errorf("%w: weights must be finite and >= 0 (got %v/%v/%v)", ErrInvalidThreshold, w.Complexity, w.Churn, w.Size)
	}
	if w.Complexity+w.Churn+w.Size == 0 {
		return fmt.Errorf("%w: at least one weight must be > 0", ErrInvalidThreshold)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
