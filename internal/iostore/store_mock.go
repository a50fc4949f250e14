package iostore

import (
	"context"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetSnapshotStore implements the StoreManager interface.
func (m *MockStoreManager) GetSnapshotStore() contract.SnapshotStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SnapshotStore)
	return store
}

// GetLeaseStore implements the StoreManager interface.
func (m *MockStoreManager) GetLeaseStore() contract.LeaseStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.LeaseStore)
	return store
}

// MockSnapshotStore is a mock implementation of SnapshotStore for testing.
type MockSnapshotStore struct {
	mock.Mock
}

var _ contract.SnapshotStore = &MockSnapshotStore{} // Compile-time check

func snapshotOrNil(v any) *schema.AnalysisSnapshot {
	s, _ := v.(*schema.AnalysisSnapshot)
	return s
}

func snapshotsOrNil(v any) []schema.AnalysisSnapshot {
	s, _ := v.([]schema.AnalysisSnapshot)
	return s
}

// Save implements the SnapshotStore interface.
func (m *MockSnapshotStore) Save(ctx context.Context, s schema.AnalysisSnapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// Overwrite implements the SnapshotStore interface.
func (m *MockSnapshotStore) Overwrite(ctx context.Context, s schema.AnalysisSnapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// UpdateComparison implements the SnapshotStore interface.
func (m *MockSnapshotStore) UpdateComparison(ctx context.Context, repoID string, sprint int, c schema.Comparison) error {
	args := m.Called(ctx, repoID, sprint, c)
	return args.Error(0)
}

// GetLatest implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetLatest(ctx context.Context, repoID string) (*schema.AnalysisSnapshot, error) {
	args := m.Called(ctx, repoID)
	return snapshotOrNil(args.Get(0)), args.Error(1)
}

// GetBySprint implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetBySprint(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	args := m.Called(ctx, repoID, sprint)
	return snapshotOrNil(args.Get(0)), args.Error(1)
}

// GetPrevious implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetPrevious(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	args := m.Called(ctx, repoID, sprint)
	return snapshotOrNil(args.Get(0)), args.Error(1)
}

// GetNext implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetNext(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	args := m.Called(ctx, repoID, sprint)
	return snapshotOrNil(args.Get(0)), args.Error(1)
}

// GetRange implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetRange(ctx context.Context, repoID string, start, end int) ([]schema.AnalysisSnapshot, error) {
	args := m.Called(ctx, repoID, start, end)
	return snapshotsOrNil(args.Get(0)), args.Error(1)
}

// GetHistory implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetHistory(ctx context.Context, repoID string, limit int) ([]schema.AnalysisSnapshot, error) {
	args := m.Called(ctx, repoID, limit)
	return snapshotsOrNil(args.Get(0)), args.Error(1)
}

// ListAll implements the SnapshotStore interface.
func (m *MockSnapshotStore) ListAll(ctx context.Context) ([]schema.AnalysisSnapshot, error) {
	args := m.Called(ctx)
	return snapshotsOrNil(args.Get(0)), args.Error(1)
}

// GetStatus implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Clear implements the SnapshotStore interface.
func (m *MockSnapshotStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close implements the SnapshotStore interface.
func (m *MockSnapshotStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockLeaseStore is a mock implementation of LeaseStore for testing.
type MockLeaseStore struct {
	mock.Mock
}

var _ contract.LeaseStore = &MockLeaseStore{} // Compile-time check

// Acquire implements the LeaseStore interface.
func (m *MockLeaseStore) Acquire(ctx context.Context, lease schema.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

// Release implements the LeaseStore interface.
func (m *MockLeaseStore) Release(ctx context.Context, repoID, owner string) error {
	args := m.Called(ctx, repoID, owner)
	return args.Error(0)
}

// CountActive implements the LeaseStore interface.
func (m *MockLeaseStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// Clear implements the LeaseStore interface.
func (m *MockLeaseStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close implements the LeaseStore interface.
func (m *MockLeaseStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
