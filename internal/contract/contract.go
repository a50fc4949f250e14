// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/mri/schema"
)

// StoreManager defines the interface for managing the snapshot and lease stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetSnapshotStore() SnapshotStore
	GetLeaseStore() LeaseStore
}

// SnapshotStore is the append-only, time-indexed persistence of analysis snapshots.
// Missing snapshots are reported as a nil pointer with a nil error.
type SnapshotStore interface {
	// --- Writes ---

	// Save persists a new snapshot. It fails with schema.ErrDuplicateSnapshot
	// when (RepoID, Sprint) already exists.
	Save(ctx context.Context, s schema.AnalysisSnapshot) error

	// Overwrite replaces (or creates) the snapshot for (RepoID, Sprint).
	Overwrite(ctx context.Context, s schema.AnalysisSnapshot) error

	// UpdateComparison rewrites the comparison of a stored snapshot.
	// It is the only write allowed on an existing snapshot.
	UpdateComparison(ctx context.Context, repoID string, sprint int, cmp schema.Comparison) error

	// --- Reads ---

	// GetLatest returns the snapshot with the highest sprint for the repository.
	GetLatest(ctx context.Context, repoID string) (*schema.AnalysisSnapshot, error)

	// GetBySprint returns the snapshot for an explicit sprint.
	GetBySprint(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error)

	// GetPrevious returns the snapshot with the highest sprint below the given one.
	GetPrevious(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error)

	// GetNext returns the snapshot with the lowest sprint above the given one.
	GetNext(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error)

	// GetRange returns snapshots with start <= sprint <= end, ascending by sprint.
	GetRange(ctx context.Context, repoID string, start, end int) ([]schema.AnalysisSnapshot, error)

	// GetHistory returns the most recent limit snapshots, ascending by sprint.
	GetHistory(ctx context.Context, repoID string, limit int) ([]schema.AnalysisSnapshot, error)

	// ListAll returns every stored snapshot ordered by repository and sprint.
	ListAll(ctx context.Context) ([]schema.AnalysisSnapshot, error)

	// --- Admin ---

	// GetStatus returns status information about the snapshot store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Clear removes every stored snapshot.
	Clear(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}

// LeaseStore holds the per-repository build leases.
type LeaseStore interface {
	// Acquire takes the lease for lease.RepoID. It succeeds when no lease exists,
	// when the existing one expired at lease.AcquiredAt, or when the caller already
	// owns it. Otherwise it fails with schema.ErrLeaseConflict.
	Acquire(ctx context.Context, lease schema.Lease) error

	// Release drops the lease if it is still held by owner.
	Release(ctx context.Context, repoID, owner string) error

	// CountActive returns the number of leases not yet expired at now.
	CountActive(ctx context.Context, now time.Time) (int, error)

	// Clear removes every lease.
	Clear(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}

// BuildObserver receives the outcome of every snapshot build.
type BuildObserver interface {
	ObserveBuild(repoID string, out *schema.BuildOutput, elapsed time.Duration, err error)
}
