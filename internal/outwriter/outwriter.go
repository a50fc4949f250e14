// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteBuild prints the result of a build (or a dry-run score) using the configured output format.
func (ow *OutWriter) WriteBuild(out *schema.BuildOutput, cfg *contract.Config, backend string, duration time.Duration) error {
	return PrintBuildResults(out, cfg, backend, duration)
}

// WriteSnapshot prints a single stored snapshot using the configured output format.
func (ow *OutWriter) WriteSnapshot(s *schema.AnalysisSnapshot, cfg *contract.Config) error {
	return PrintSnapshotResults(s, cfg)
}

// WriteHistory prints an ascending list of snapshots using the configured output format.
func (ow *OutWriter) WriteHistory(repoID string, snapshots []schema.AnalysisSnapshot, cfg *contract.Config) error {
	return PrintHistoryResults(repoID, snapshots, cfg)
}
