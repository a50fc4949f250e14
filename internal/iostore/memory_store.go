package iostore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
)

// MemorySnapshotStore keeps snapshots in process memory. It is used by the
// memory backend and for tests, and loses everything on exit.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	repos map[string]map[int]schema.AnalysisSnapshot
}

var _ contract.SnapshotStore = &MemorySnapshotStore{} // Compile-time check

// NewMemorySnapshotStore returns an empty in-memory snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{repos: make(map[string]map[int]schema.AnalysisSnapshot)}
}

// cloneSnapshot copies the slices of s so that callers never share storage.
func cloneSnapshot(s schema.AnalysisSnapshot) schema.AnalysisSnapshot {
	s.TopHotspots = slices.Clone(s.TopHotspots)
	s.Files = slices.Clone(s.Files)
	s.Events = slices.Clone(s.Events)
	for i, e := range s.Events {
		if e.PreviousRisk != nil {
			risk := *e.PreviousRisk
			s.Events[i].PreviousRisk = &risk
		}
	}
	return s
}

// Save implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) Save(_ context.Context, s schema.AnalysisSnapshot) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.repos[s.RepoID][s.Sprint]; ok {
		return fmt.Errorf("%w: %s sprint %d", schema.ErrDuplicateSnapshot, s.RepoID, s.Sprint)
	}
	ms.put(s)
	return nil
}

// Overwrite implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) Overwrite(_ context.Context, s schema.AnalysisSnapshot) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.put(s)
	return nil
}

func (ms *MemorySnapshotStore) put(s schema.AnalysisSnapshot) {
	sprints, ok := ms.repos[s.RepoID]
	if !ok {
		sprints = make(map[int]schema.AnalysisSnapshot)
		ms.repos[s.RepoID] = sprints
	}
	sprints[s.Sprint] = cloneSnapshot(s)
}

// UpdateComparison implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) UpdateComparison(_ context.Context, repoID string, sprint int, c schema.Comparison) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	s, ok := ms.repos[repoID][sprint]
	if !ok {
		return fmt.Errorf("no snapshot stored for %s sprint %d", repoID, sprint)
	}
	s.Comparison = c
	ms.repos[repoID][sprint] = s
	return nil
}

// sortedSprints returns the stored sprints of a repository in ascending order.
// The caller must hold the lock.
func (ms *MemorySnapshotStore) sortedSprints(repoID string) []int {
	return slices.Sorted(maps.Keys(ms.repos[repoID]))
}

// find returns a copy of the first snapshot whose sprint satisfies match,
// scanning ascending or descending.
func (ms *MemorySnapshotStore) find(repoID string, descending bool, match func(int) bool) *schema.AnalysisSnapshot {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	sprints := ms.sortedSprints(repoID)
	if descending {
		slices.Reverse(sprints)
	}
	for _, sprint := range sprints {
		if match(sprint) {
			s := cloneSnapshot(ms.repos[repoID][sprint])
			return &s
		}
	}
	return nil
}

// GetLatest implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) GetLatest(_ context.Context, repoID string) (*schema.AnalysisSnapshot, error) {
	return ms.find(repoID, true, func(int) bool { return true }), nil
}

// GetBySprint implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) GetBySprint(_ context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	return ms.find(repoID, false, func(s int) bool { return s == sprint }), nil
}

// GetPrevious implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) GetPrevious(_ context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	return ms.find(repoID, true, func(s int) bool { return s < sprint }), nil
}

// GetNext implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) GetNext(_ context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	return ms.find(repoID, false, func(s int) bool { return s > sprint }), nil
}

// GetRange implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) GetRange(_ context.Context, repoID string, start, end int) ([]schema.AnalysisSnapshot, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var out []schema.AnalysisSnapshot
	for _, sprint := range ms.sortedSprints(repoID) {
		if sprint >= start && sprint <= end {
			out = append(out, cloneSnapshot(ms.repos[repoID][sprint]))
		}
	}
	return out, nil
}

// GetHistory implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) GetHistory(_ context.Context, repoID string, limit int) ([]schema.AnalysisSnapshot, error) {
	if limit <= 0 {
		return nil, nil
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	sprints := ms.sortedSprints(repoID)
	if len(sprints) > limit {
		sprints = sprints[len(sprints)-limit:]
	}
	var out []schema.AnalysisSnapshot
	for _, sprint := range sprints {
		out = append(out, cloneSnapshot(ms.repos[repoID][sprint]))
	}
	return out, nil
}

// ListAll implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) ListAll(_ context.Context) ([]schema.AnalysisSnapshot, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var out []schema.AnalysisSnapshot
	for _, repoID := range slices.Sorted(maps.Keys(ms.repos)) {
		for _, sprint := range ms.sortedSprints(repoID) {
			out = append(out, cloneSnapshot(ms.repos[repoID][sprint]))
		}
	}
	return out, nil
}

// GetStatus implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) GetStatus(_ context.Context) (schema.StoreStatus, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	status := schema.StoreStatus{
		Backend:    string(schema.MemoryBackend),
		Connected:  true,
		TotalRepos: len(ms.repos),
		TableSizes: make(map[string]int64),
	}
	for _, sprints := range ms.repos {
		for _, s := range sprints {
			status.TotalSnapshots++
			if status.LastSnapshotTime.IsZero() || s.Timestamp.After(status.LastSnapshotTime) {
				status.LastSnapshotTime = s.Timestamp
			}
			if status.OldestSnapshotTime.IsZero() || s.Timestamp.Before(status.OldestSnapshotTime) {
				status.OldestSnapshotTime = s.Timestamp
			}
		}
	}
	status.TableSizes[snapshotsTable] = int64(status.TotalSnapshots)
	return status, nil
}

// Clear implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) Clear(_ context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	clear(ms.repos)
	return nil
}

// Close implements the SnapshotStore interface.
func (ms *MemorySnapshotStore) Close() error {
	return nil
}

// MemoryLeaseStore keeps leases in process memory.
type MemoryLeaseStore struct {
	mu     sync.Mutex
	leases map[string]schema.Lease
}

var _ contract.LeaseStore = &MemoryLeaseStore{} // Compile-time check

// NewMemoryLeaseStore returns an empty in-memory lease store.
func NewMemoryLeaseStore() *MemoryLeaseStore {
	return &MemoryLeaseStore{leases: make(map[string]schema.Lease)}
}

// Acquire implements the LeaseStore interface.
func (ml *MemoryLeaseStore) Acquire(_ context.Context, lease schema.Lease) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if held, ok := ml.leases[lease.RepoID]; ok && held.Owner != lease.Owner && !held.Expired(lease.AcquiredAt) {
		return fmt.Errorf("%w: %s held by %s until %s", schema.ErrLeaseConflict,
			lease.RepoID, held.Owner, held.ExpiresAt.Format(contract.DateTimeFormat))
	}
	ml.leases[lease.RepoID] = lease
	return nil
}

// Release implements the LeaseStore interface.
func (ml *MemoryLeaseStore) Release(_ context.Context, repoID, owner string) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if held, ok := ml.leases[repoID]; ok && held.Owner == owner {
		delete(ml.leases, repoID)
	}
	return nil
}

// CountActive implements the LeaseStore interface.
func (ml *MemoryLeaseStore) CountActive(_ context.Context, now time.Time) (int, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	count := 0
	for _, l := range ml.leases {
		if !l.Expired(now) {
			count++
		}
	}
	return count, nil
}

// Clear implements the LeaseStore interface.
func (ml *MemoryLeaseStore) Clear(_ context.Context) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	clear(ml.leases)
	return nil
}

// Close implements the LeaseStore interface.
func (ml *MemoryLeaseStore) Close() error {
	return nil
}
