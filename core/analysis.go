package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
)

// AnalysisOptions tunes one lease-guarded analysis run.
type AnalysisOptions struct {
	Overwrite bool                   // recompute an existing sprint instead of failing
	LeaseTTL  time.Duration          // zero means contract.DefaultLeaseTTL
	Owner     string                 // lease owner token; empty means a random UUID
	Observer  contract.BuildObserver // optional
}

// RunAnalysis builds and persists the snapshot of req under the repository lease.
//
// The run holds the lease for the whole read-build-write cycle so that no other
// build can change the previous snapshot in between. The lease is renewed right
// before the write, and the run fails with schema.ErrLeaseConflict if another
// builder took it over in the meantime. Storing a sprint before an
// existing one also recomputes the comparison of the following snapshot, the only
// write ever applied to a stored snapshot.
func RunAnalysis(ctx context.Context, mgr contract.StoreManager, builder *SnapshotBuilder, req schema.BuildRequest, opts AnalysisOptions) (*schema.BuildOutput, error) {
	start := time.Now()
	out, err := runAnalysisUnderLease(ctx, mgr, builder, req, opts)
	if opts.Observer != nil {
		opts.Observer.ObserveBuild(req.RepoID, out, time.Since(start), err)
	}
	return out, err
}

func runAnalysisUnderLease(ctx context.Context, mgr contract.StoreManager, builder *SnapshotBuilder, req schema.BuildRequest, opts AnalysisOptions) (*schema.BuildOutput, error) {
	snapshots := mgr.GetSnapshotStore()
	leases := mgr.GetLeaseStore()
	if snapshots == nil || leases == nil {
		return nil, fmt.Errorf("snapshot store is not initialized")
	}

	owner := opts.Owner
	if owner == "" {
		owner = uuid.NewString()
	}
	ttl := opts.LeaseTTL
	if ttl <= 0 {
		ttl = contract.DefaultLeaseTTL
	}

	now := builder.Now()
	lease := schema.Lease{RepoID: req.RepoID, Owner: owner, AcquiredAt: now, ExpiresAt: now.Add(ttl)}
	if err := leases.Acquire(ctx, lease); err != nil {
		return nil, fmt.Errorf("acquire lease for %s: %w", req.RepoID, err)
	}
	defer func() {
		// A cancelled build must still give the lease back.
		if err := leases.Release(context.WithoutCancel(ctx), req.RepoID, owner); err != nil {
			contract.LogWarn(fmt.Sprintf("Failed to release lease for %s", req.RepoID), err)
		}
	}()

	// A builder that crashed mid-run may have persisted this sprint already.
	existing, err := snapshots.GetBySprint(ctx, req.RepoID, req.Sprint)
	if err != nil {
		return nil, fmt.Errorf("check existing snapshot: %w", err)
	}
	if existing != nil && !opts.Overwrite {
		return nil, fmt.Errorf("%w: %s sprint %d", schema.ErrDuplicateSnapshot, req.RepoID, req.Sprint)
	}

	previous, err := snapshots.GetPrevious(ctx, req.RepoID, req.Sprint)
	if err != nil {
		return nil, fmt.Errorf("resolve previous snapshot: %w", err)
	}

	out, err := builder.Build(ctx, req, previous)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build cancelled before persist: %w", err)
	}

	// A build that outlived its TTL may have lost the lease to another builder.
	renewedAt := builder.Now()
	lease.AcquiredAt, lease.ExpiresAt = renewedAt, renewedAt.Add(ttl)
	if err := leases.Acquire(ctx, lease); err != nil {
		return nil, fmt.Errorf("renew lease for %s before persist: %w", req.RepoID, err)
	}

	if opts.Overwrite {
		err = snapshots.Overwrite(ctx, out.Snapshot)
	} else {
		err = snapshots.Save(ctx, out.Snapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	if err := refreshSuccessor(ctx, snapshots, &out.Snapshot); err != nil {
		return out, err
	}
	return out, nil
}

// refreshSuccessor recomputes the comparison of the snapshot following s.
// It is idempotent: nothing is written when the stored comparison is current.
func refreshSuccessor(ctx context.Context, snapshots contract.SnapshotStore, s *schema.AnalysisSnapshot) error {
	next, err := snapshots.GetNext(ctx, s.RepoID, s.Sprint)
	if err != nil {
		return fmt.Errorf("resolve next snapshot: %w", err)
	}
	if next == nil {
		return nil
	}
	cmp := compareSnapshots(next, s)
	if cmp == next.Comparison {
		return nil
	}
	if err := snapshots.UpdateComparison(ctx, next.RepoID, next.Sprint, cmp); err != nil {
		return fmt.Errorf("update comparison of sprint %d: %w", next.Sprint, err)
	}
	return nil
}
