package iostore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/mri/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// OpenStores opens the snapshot and lease stores of a backend.
func OpenStores(backend schema.DatabaseBackend, connStr string) (*StoreManager, error) {
	if backend == schema.MemoryBackend {
		return NewStoreManager(NewMemorySnapshotStore(), NewMemoryLeaseStore()), nil
	}
	snapshots, err := NewSnapshotStore(backend, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	return NewStoreManager(snapshots, NewLeaseStore(snapshots)), nil
}

// InitStores initializes the global store manager. Only the first call has an effect.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		mgr, err := OpenStores(backend, connStr)
		if err != nil {
			initErr = err
			return
		}
		Manager.Lock()
		defer Manager.Unlock()
		Manager.snapshots = mgr.snapshots
		Manager.leases = mgr.leases
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		_ = Manager.Close()
	})
}

// ClearStores removes every snapshot and lease of the global manager.
func ClearStores(ctx context.Context) error {
	if leases := Manager.GetLeaseStore(); leases != nil {
		if err := leases.Clear(ctx); err != nil {
			return err
		}
	}
	if snapshots := Manager.GetSnapshotStore(); snapshots != nil {
		if err := snapshots.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

// GetStatus returns the status of both stores of mgr, counting leases active at now.
func GetStatus(ctx context.Context, mgr *StoreManager, now time.Time) (schema.StoreStatus, error) {
	snapshots := mgr.GetSnapshotStore()
	if snapshots == nil {
		return schema.StoreStatus{}, fmt.Errorf("snapshot store is not initialized")
	}
	status, err := snapshots.GetStatus(ctx)
	if err != nil {
		return status, err
	}
	if leases := mgr.GetLeaseStore(); leases != nil {
		active, err := leases.CountActive(ctx, now)
		if err != nil {
			return status, err
		}
		status.ActiveLeases = active
	}
	return status, nil
}
