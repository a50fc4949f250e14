package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/mri/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOutput(health float64, hotspots, files, rejected int) *schema.BuildOutput {
	out := &schema.BuildOutput{
		Snapshot: schema.AnalysisSnapshot{
			RepoID:    "acme/api",
			Sprint:    3,
			Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			AggregateMetrics: schema.AggregateMetrics{
				TotalFiles:   files,
				HotspotCount: hotspots,
				HealthScore:  health,
			},
		},
	}
	for i := range rejected {
		out.Errors = append(out.Errors, schema.FileError{Path: fmt.Sprintf("bad%d.go", i), Reason: "invalid"})
	}
	return out
}

func TestResultOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ResultSuccess},
		{fmt.Errorf("wrap: %w", schema.ErrLeaseConflict), ResultLeaseConflict},
		{schema.ErrDuplicateSnapshot, ResultDuplicate},
		{schema.ErrEmptyValidInput, ResultEmptyInput},
		{schema.ErrInvalidThreshold, ResultInvalidThreshold},
		{context.Canceled, ResultCanceled},
		{context.DeadlineExceeded, ResultCanceled},
		{errors.New("disk full"), ResultError},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, resultOf(tt.err))
		})
	}
}

func TestRecorder_ObserveSuccess(t *testing.T) {
	r := NewRecorder()
	r.ObserveBuild("acme/api", buildOutput(62.5, 2, 40, 3), 150*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.buildsTotal.WithLabelValues("acme/api", ResultSuccess)))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.filesScored.WithLabelValues("acme/api")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.filesRejected.WithLabelValues("acme/api")))
	assert.Equal(t, 62.5, testutil.ToFloat64(r.healthScore.WithLabelValues("acme/api")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.hotspotCount.WithLabelValues("acme/api")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.buildDurations))
}

func TestRecorder_ObserveFailure(t *testing.T) {
	r := NewRecorder()
	r.ObserveBuild("acme/api", nil, time.Millisecond, schema.ErrLeaseConflict)
	r.ObserveBuild("acme/api", buildOutput(50, 0, 0, 2), time.Millisecond, schema.ErrEmptyValidInput)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.buildsTotal.WithLabelValues("acme/api", ResultLeaseConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.buildsTotal.WithLabelValues("acme/api", ResultEmptyInput)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.filesRejected.WithLabelValues("acme/api")))
	// Failed builds never move the health gauge.
	assert.Equal(t, 0, testutil.CollectAndCount(r.healthScore))
}

func TestRecorder_WriteFile(t *testing.T) {
	r := NewRecorder()
	r.ObserveBuild("acme/api", buildOutput(80, 0, 5, 0), time.Second, nil)

	path := filepath.Join(t.TempDir(), "mri.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `mri_build_total{repo="acme/api",result="success"} 1`)
	assert.Contains(t, text, `mri_snapshot_health_score{repo="acme/api"} 80`)
	assert.True(t, strings.Contains(text, "# TYPE mri_build_duration_seconds histogram"))
}

func TestRecorder_WriteFileBadPath(t *testing.T) {
	r := NewRecorder()
	err := r.WriteFile("/nonexistent/dir/mri.prom")
	assert.Error(t, err)
}
