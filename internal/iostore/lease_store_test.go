package iostore

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaseFactories() map[string]func(t *testing.T) contract.LeaseStore {
	return map[string]func(t *testing.T) contract.LeaseStore{
		"memory": func(_ *testing.T) contract.LeaseStore {
			return NewMemoryLeaseStore()
		},
		"sqlite": func(t *testing.T) contract.LeaseStore {
			snapshots, err := NewSnapshotStore(schema.SQLiteBackend, ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = snapshots.Close() })
			return NewLeaseStore(snapshots)
		},
	}
}

func newLease(repoID, owner string, at time.Time, ttl time.Duration) schema.Lease {
	return schema.Lease{RepoID: repoID, Owner: owner, AcquiredAt: at, ExpiresAt: at.Add(ttl)}
}

func TestLeaseStore_Exclusive(t *testing.T) {
	for name, factory := range leaseFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			leases := factory(t)

			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "builder-a", baseTime, time.Minute)))

			err := leases.Acquire(ctx, newLease("acme/api", "builder-b", baseTime.Add(time.Second), time.Minute))
			require.Error(t, err)
			assert.ErrorIs(t, err, schema.ErrLeaseConflict)

			// Other repositories are independent.
			require.NoError(t, leases.Acquire(ctx, newLease("acme/web", "builder-b", baseTime, time.Minute)))

			count, err := leases.CountActive(ctx, baseTime.Add(time.Second))
			require.NoError(t, err)
			assert.Equal(t, 2, count)
		})
	}
}

func TestLeaseStore_Reacquire(t *testing.T) {
	for name, factory := range leaseFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			leases := factory(t)

			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "builder-a", baseTime, time.Minute)))
			// The holder may refresh its own lease, even with identical values.
			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "builder-a", baseTime, time.Minute)))
			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "builder-a", baseTime.Add(time.Second), time.Minute)))
		})
	}
}

func TestLeaseStore_ExpiredIsReclaimed(t *testing.T) {
	for name, factory := range leaseFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			leases := factory(t)

			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "crashed", baseTime, time.Minute)))
			later := baseTime.Add(2 * time.Minute)
			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "builder-b", later, time.Minute)))

			err := leases.Acquire(ctx, newLease("acme/api", "crashed", later.Add(time.Second), time.Minute))
			assert.ErrorIs(t, err, schema.ErrLeaseConflict)
		})
	}
}

func TestLeaseStore_Release(t *testing.T) {
	for name, factory := range leaseFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			leases := factory(t)

			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "builder-a", baseTime, time.Minute)))

			// Only the owner can release.
			require.NoError(t, leases.Release(ctx, "acme/api", "builder-b"))
			count, err := leases.CountActive(ctx, baseTime)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			require.NoError(t, leases.Release(ctx, "acme/api", "builder-a"))
			count, err = leases.CountActive(ctx, baseTime)
			require.NoError(t, err)
			assert.Equal(t, 0, count)

			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "builder-b", baseTime, time.Minute)))
			require.NoError(t, leases.Clear(ctx))
			count, err = leases.CountActive(ctx, baseTime)
			require.NoError(t, err)
			assert.Equal(t, 0, count)
		})
	}
}

func TestLeaseStore_CountActiveSkipsExpired(t *testing.T) {
	for name, factory := range leaseFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			leases := factory(t)

			require.NoError(t, leases.Acquire(ctx, newLease("acme/api", "a", baseTime, time.Minute)))
			require.NoError(t, leases.Acquire(ctx, newLease("acme/web", "b", baseTime, time.Hour)))

			count, err := leases.CountActive(ctx, baseTime.Add(time.Minute))
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}
