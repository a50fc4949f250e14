package core

import (
	"context"
	"fmt"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/schema"
)

// TimeTravel is the read side used by playback clients. It adds no
// computation on top of the snapshot store.
type TimeTravel struct {
	store        contract.SnapshotStore
	historyLimit int
}

// NewTimeTravel wraps a snapshot store. A historyLimit of zero or less means
// schema.DefaultHistoryLimit.
func NewTimeTravel(store contract.SnapshotStore, historyLimit int) *TimeTravel {
	if historyLimit <= 0 {
		historyLimit = schema.DefaultHistoryLimit
	}
	return &TimeTravel{store: store, historyLimit: historyLimit}
}

// Latest resolves the current snapshot of a repository, or nil when none exists.
func (t *TimeTravel) Latest(ctx context.Context, repoID string) (*schema.AnalysisSnapshot, error) {
	return t.store.GetLatest(ctx, repoID)
}

// AtSprint resolves an explicit sprint, or nil when it was never built.
func (t *TimeTravel) AtSprint(ctx context.Context, repoID string, sprint int) (*schema.AnalysisSnapshot, error) {
	return t.store.GetBySprint(ctx, repoID, sprint)
}

// Range returns the snapshots of sprints from..to, ascending.
func (t *TimeTravel) Range(ctx context.Context, repoID string, from, to int) ([]schema.AnalysisSnapshot, error) {
	if from > to {
		return nil, fmt.Errorf("invalid sprint range %d..%d", from, to)
	}
	return t.store.GetRange(ctx, repoID, from, to)
}

// History returns the most recent snapshots ascending, so that position i of
// a playback slider is element i. A limit of zero or less uses the default bound.
func (t *TimeTravel) History(ctx context.Context, repoID string, limit int) ([]schema.AnalysisSnapshot, error) {
	if limit <= 0 {
		limit = t.historyLimit
	}
	return t.store.GetHistory(ctx, repoID, limit)
}
