// Package iostore is for persisting analysis snapshots and build leases.
package iostore

import (
	"sync"

	"github.com/huangsam/mri/internal/contract"
)

// Table names for snapshot storage.
const (
	snapshotsTable = "mri_snapshots"
	leasesTable    = "mri_leases"
)

// StoreManager manages the SnapshotStore and LeaseStore instances.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	snapshots    contract.SnapshotStore
	leases       contract.LeaseStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// NewStoreManager wraps already opened stores.
func NewStoreManager(snapshots contract.SnapshotStore, leases contract.LeaseStore) *StoreManager {
	return &StoreManager{snapshots: snapshots, leases: leases}
}

// GetSnapshotStore returns the SnapshotStore.
func (mgr *StoreManager) GetSnapshotStore() contract.SnapshotStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.snapshots
}

// GetLeaseStore returns the LeaseStore.
func (mgr *StoreManager) GetLeaseStore() contract.LeaseStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.leases
}

// Close closes both stores. The lease store goes first since it may share
// the snapshot store's connection.
func (mgr *StoreManager) Close() error {
	mgr.Lock()
	defer mgr.Unlock()
	var firstErr error
	if mgr.leases != nil {
		firstErr = mgr.leases.Close()
	}
	if mgr.snapshots != nil {
		if err := mgr.snapshots.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	mgr.leases, mgr.snapshots = nil, nil
	return firstErr
}
