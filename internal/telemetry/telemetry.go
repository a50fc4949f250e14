// Package telemetry records build metrics and writes them in the Prometheus
// textfile format, so that batch runs can be picked up by a node exporter.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "mri"

// Build results used as label values.
const (
	ResultSuccess          = "success"
	ResultLeaseConflict    = "lease_conflict"
	ResultDuplicate        = "duplicate"
	ResultEmptyInput       = "empty_input"
	ResultInvalidThreshold = "invalid_threshold"
	ResultCanceled         = "canceled"
	ResultError            = "error"
)

// Recorder collects build metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	buildsTotal    *prometheus.CounterVec
	filesScored    *prometheus.CounterVec
	filesRejected  *prometheus.CounterVec
	healthScore    *prometheus.GaugeVec
	hotspotCount   *prometheus.GaugeVec
	buildDurations *prometheus.HistogramVec
	lastSuccess    *prometheus.GaugeVec
}

var _ contract.BuildObserver = &Recorder{} // Compile-time check

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "build",
			Name:      "total",
			Help:      "Snapshot builds by repository and result",
		}, []string{"repo", "result"}),
		filesScored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "build",
			Name:      "files_scored_total",
			Help:      "Files that went through the risk model",
		}, []string{"repo"}),
		filesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "build",
			Name:      "files_rejected_total",
			Help:      "Files excluded from a build with a file error",
		}, []string{"repo"}),
		healthScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "snapshot",
			Name:      "health_score",
			Help:      "Health score of the last snapshot built per repository",
		}, []string{"repo"}),
		hotspotCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "snapshot",
			Name:      "hotspots",
			Help:      "Critical files in the last snapshot built per repository",
		}, []string{"repo"}),
		buildDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Wall time of snapshot builds in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"repo"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "build",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful build per repository",
		}, []string{"repo"}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveBuild implements the BuildObserver interface.
func (r *Recorder) ObserveBuild(repoID string, out *schema.BuildOutput, elapsed time.Duration, err error) {
	r.buildsTotal.WithLabelValues(repoID, resultOf(err)).Inc()
	r.buildDurations.WithLabelValues(repoID).Observe(elapsed.Seconds())
	if out == nil {
		return
	}
	r.filesRejected.WithLabelValues(repoID).Add(float64(len(out.Errors)))
	if err != nil {
		return
	}
	agg := out.Snapshot.AggregateMetrics
	r.filesScored.WithLabelValues(repoID).Add(float64(agg.TotalFiles))
	r.healthScore.WithLabelValues(repoID).Set(agg.HealthScore)
	r.hotspotCount.WithLabelValues(repoID).Set(float64(agg.HotspotCount))
	r.lastSuccess.WithLabelValues(repoID).Set(float64(out.Snapshot.Timestamp.Unix()))
}

// WriteFile writes every collected metric to path in the textfile format.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// resultOf maps a build error onto its result label.
func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, schema.ErrLeaseConflict):
		return ResultLeaseConflict
	case errors.Is(err, schema.ErrDuplicateSnapshot):
		return ResultDuplicate
	case errors.Is(err, schema.ErrEmptyValidInput):
		return ResultEmptyInput
	case errors.Is(err, schema.ErrInvalidThreshold):
		return ResultInvalidThreshold
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultError
	}
}
