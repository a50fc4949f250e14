package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
	"golang.org/x/sync/errgroup"
)

// Reasons recorded for files excluded from a build.
const (
	reasonEmptyPath  = "empty path"
	reasonDuplicate  = "duplicate path"
	reasonUnreadable = "unreadable by metrics provider"
)

// SnapshotBuilder turns a batch of file metrics into an AnalysisSnapshot.
// It is pure: it never reads or writes a store. The caller resolves the
// previous snapshot and persists the result.
type SnapshotBuilder struct {
	workers int
	now     func() time.Time
}

// BuilderOption configures a SnapshotBuilder.
type BuilderOption func(*SnapshotBuilder)

// WithWorkers bounds the scoring pool.
func WithWorkers(n int) BuilderOption {
	return func(b *SnapshotBuilder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithClock replaces the clock used to stamp snapshots and leases.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *SnapshotBuilder) {
		if now != nil {
			b.now = now
		}
	}
}

// NewSnapshotBuilder is the starting point for building snapshots.
func NewSnapshotBuilder(opts ...BuilderOption) *SnapshotBuilder {
	b := &SnapshotBuilder{
		workers: contract.DefaultWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Now returns the builder's notion of the current time.
func (b *SnapshotBuilder) Now() time.Time {
	return b.now()
}

// Build scores, aggregates and ranks the files of req and assembles the snapshot.
// Malformed files are excluded and listed in the output's Errors. The build fails
// with schema.ErrInvalidThreshold on bad thresholds, with schema.ErrEmptyValidInput
// when no file survives validation, and with the context error when cancelled.
// Two builds with equal (req, previous) differ only in Timestamp.
func (b *SnapshotBuilder) Build(ctx context.Context, req schema.BuildRequest, previous *schema.AnalysisSnapshot) (*schema.BuildOutput, error) {
	if strings.TrimSpace(req.RepoID) == "" {
		return nil, fmt.Errorf("repo id is required")
	}
	if req.Sprint < 1 {
		return nil, fmt.Errorf("sprint must be >= 1 (received %d)", req.Sprint)
	}
	if err := req.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: batch has no files", schema.ErrEmptyValidInput)
	}

	candidates, fileErrors := dedupeMetrics(req.Files)
	for _, p := range req.Unreadable {
		fileErrors = append(fileErrors, schema.FileError{Path: p, Reason: reasonUnreadable})
	}

	// --- 1. Score (parallel) ---
	scored, scoreErrors, err := b.scoreAll(ctx, candidates, req.Thresholds)
	if err != nil {
		return nil, err
	}
	fileErrors = append(fileErrors, scoreErrors...)
	sortFileErrors(fileErrors)

	// Nothing scored so far may reach the store once the caller gave up.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build cancelled after scoring: %w", err)
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("%w: %d of %d files rejected", schema.ErrEmptyValidInput, len(fileErrors), len(req.Files))
	}

	// --- 2. Aggregate, rank and assemble ---
	snapshot := schema.AnalysisSnapshot{
		SchemaVersion:    schema.SnapshotSchemaVersion,
		RepoID:           req.RepoID,
		Sprint:           req.Sprint,
		Thresholds:       req.Thresholds,
		AggregateMetrics: Aggregate(scored),
		TopHotspots:      TopK(scored, req.TopK),
		Files:            retainFiles(scored, req.RetainPaths),
		Events:           DetectEvents(scored, previous),
	}
	snapshot.Comparison = compareSnapshots(&snapshot, previous)
	snapshot.Timestamp = b.now().UTC().Truncate(time.Millisecond)

	return &schema.BuildOutput{Snapshot: snapshot, Errors: fileErrors}, nil
}

// scoreAll scores the candidates on a bounded pool. Results keep input order.
// Per-file failures are soft and come back as file errors; only cancellation
// fails the whole call.
func (b *SnapshotBuilder) scoreAll(ctx context.Context, metrics []schema.FileMetric, th schema.Thresholds) ([]schema.ScoredFile, []schema.FileError, error) {
	results := make([]schema.ScoredFile, len(metrics))
	failures := make([]error, len(metrics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, m := range metrics {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], failures[i] = scoreFile(m, th)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("build cancelled while scoring: %w", err)
	}

	var scored []schema.ScoredFile
	var fileErrors []schema.FileError
	for i := range metrics {
		if failures[i] != nil {
			fileErrors = append(fileErrors, schema.FileError{Path: metrics[i].Path, Reason: failures[i].Error()})
			continue
		}
		scored = append(scored, results[i])
	}
	return scored, fileErrors, nil
}

// dedupeMetrics drops metrics without a path and every repeat of a path.
func dedupeMetrics(files []schema.FileMetric) ([]schema.FileMetric, []schema.FileError) {
	seen := make(map[string]struct{}, len(files))
	kept := make([]schema.FileMetric, 0, len(files))
	var fileErrors []schema.FileError
	for _, f := range files {
		if strings.TrimSpace(f.Path) == "" {
			fileErrors = append(fileErrors, schema.FileError{Path: f.Path, Reason: reasonEmptyPath})
			continue
		}
		if _, dup := seen[f.Path]; dup {
			fileErrors = append(fileErrors, schema.FileError{Path: f.Path, Reason: reasonDuplicate})
			continue
		}
		seen[f.Path] = struct{}{}
		kept = append(kept, f)
	}
	return kept, fileErrors
}

// retainFiles keeps warning and critical files plus the explicitly retained
// paths, sorted by path. Healthy files only live on in the aggregate counts.
func retainFiles(files []schema.ScoredFile, retain []string) []schema.ScoredFile {
	keep := make(map[string]struct{}, len(retain))
	for _, p := range retain {
		keep[p] = struct{}{}
	}

	var out []schema.ScoredFile
	for _, f := range files {
		_, pinned := keep[f.Path]
		if pinned || f.Category != schema.HealthyCategory {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

func sortFileErrors(errs []schema.FileError) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Path != errs[j].Path {
			return errs[i].Path < errs[j].Path
		}
		return errs[i].Reason < errs[j].Reason
	})
}
