// Package core has core logic for scoring, building and time-travelling snapshots.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/mri/internal/contract"
	"github.com/huangsam/mri/internal/outwriter"
	"github.com/huangsam/mri/internal/provider"
	"github.com/huangsam/mri/internal/telemetry"
	"github.com/huangsam/mri/schema"
)

// dryRunRepoID names the repository of a score run without --repo.
const dryRunRepoID = "local"

// ExecutorFunc defines the function signature for executing the read commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteBuild reads a metric batch, builds the snapshot of cfg.Sprint under the
// repository lease and persists it. It serves as the main entry point for 'build'.
func ExecuteBuild(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, metricsPath string) error {
	start := time.Now()
	batch, err := provider.ReadBatch(metricsPath)
	if err != nil {
		return err
	}
	req := buildRequest(cfg, batch)
	if req.RepoID == "" {
		return errors.New("repo is required (use --repo, MRI_REPO or repo_id in the metric batch)")
	}
	if req.Sprint < 1 {
		return fmt.Errorf("sprint must be >= 1 (received %d)", req.Sprint)
	}

	var recorder *telemetry.Recorder
	opts := AnalysisOptions{Overwrite: cfg.Overwrite, LeaseTTL: cfg.LeaseTTL}
	if cfg.MetricsFile != "" {
		recorder = telemetry.NewRecorder()
		opts.Observer = recorder
	}

	builder := NewSnapshotBuilder(WithWorkers(cfg.Workers))
	out, err := RunAnalysis(ctx, mgr, builder, req, opts)

	// The textfile is written for failed builds too, so that alerts can fire on them.
	if recorder != nil {
		if werr := recorder.WriteFile(cfg.MetricsFile); werr != nil {
			contract.LogWarn("Failed to write metrics file", werr)
		}
	}
	if err != nil {
		return err
	}
	return outwriter.PrintBuildResults(out, cfg, string(cfg.Backend), time.Since(start))
}

// ExecuteScore scores a metric batch like a build would, without any store.
// Events and comparisons stay empty since there is no previous snapshot.
func ExecuteScore(ctx context.Context, cfg *contract.Config, metricsPath string) error {
	start := time.Now()
	batch, err := provider.ReadBatch(metricsPath)
	if err != nil {
		return err
	}
	req := buildRequest(cfg, batch)
	if req.RepoID == "" {
		req.RepoID = dryRunRepoID
	}
	if req.Sprint < 1 {
		req.Sprint = 1
	}

	builder := NewSnapshotBuilder(WithWorkers(cfg.Workers))
	out, err := builder.Build(ctx, req, nil)
	if err != nil {
		return err
	}
	return outwriter.PrintBuildResults(out, cfg, "none (dry run)", time.Since(start))
}

// ExecuteLatest prints the most recent snapshot of cfg.RepoID.
func ExecuteLatest(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	tt, err := timeTravelFor(cfg, mgr)
	if err != nil {
		return err
	}
	s, err := tt.Latest(ctx, cfg.RepoID)
	if err != nil {
		return fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if s == nil {
		contract.LogInfo("No snapshot found for %s", cfg.RepoID)
		return nil
	}
	return outwriter.PrintSnapshotResults(s, cfg)
}

// ExecuteShow prints the snapshot of cfg.RepoID at cfg.Sprint.
func ExecuteShow(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if err := cfg.RequireSprint(); err != nil {
		return err
	}
	tt, err := timeTravelFor(cfg, mgr)
	if err != nil {
		return err
	}
	s, err := tt.AtSprint(ctx, cfg.RepoID, cfg.Sprint)
	if err != nil {
		return fmt.Errorf("failed to load sprint %d: %w", cfg.Sprint, err)
	}
	if s == nil {
		contract.LogInfo("No snapshot found for %s sprint %d", cfg.RepoID, cfg.Sprint)
		return nil
	}
	return outwriter.PrintSnapshotResults(s, cfg)
}

// ExecuteRange prints the snapshots of cfg.RepoID between cfg.FromSprint and cfg.ToSprint.
func ExecuteRange(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if err := cfg.RequireRange(); err != nil {
		return err
	}
	tt, err := timeTravelFor(cfg, mgr)
	if err != nil {
		return err
	}
	snapshots, err := tt.Range(ctx, cfg.RepoID, cfg.FromSprint, cfg.ToSprint)
	if err != nil {
		return fmt.Errorf("failed to load sprints %d..%d: %w", cfg.FromSprint, cfg.ToSprint, err)
	}
	return outwriter.PrintHistoryResults(cfg.RepoID, snapshots, cfg)
}

// ExecuteHistory prints the most recent cfg.HistoryLimit snapshots of cfg.RepoID.
func ExecuteHistory(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	tt, err := timeTravelFor(cfg, mgr)
	if err != nil {
		return err
	}
	snapshots, err := tt.History(ctx, cfg.RepoID, cfg.HistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return outwriter.PrintHistoryResults(cfg.RepoID, snapshots, cfg)
}

// timeTravelFor checks the shared preconditions of the read commands.
func timeTravelFor(cfg *contract.Config, mgr contract.StoreManager) (*TimeTravel, error) {
	if err := cfg.RequireRepo(); err != nil {
		return nil, err
	}
	store := mgr.GetSnapshotStore()
	if store == nil {
		return nil, errors.New("snapshot store is not initialized")
	}
	return NewTimeTravel(store, cfg.HistoryLimit), nil
}

// buildRequest merges the configuration with a metric batch. Flags win over
// the repository and sprint recorded in the batch.
func buildRequest(cfg *contract.Config, batch *schema.MetricBatch) schema.BuildRequest {
	req := schema.BuildRequest{
		RepoID:      cfg.RepoID,
		Sprint:      cfg.Sprint,
		Files:       batch.Files,
		Thresholds:  cfg.Thresholds,
		TopK:        cfg.TopK,
		RetainPaths: cfg.RetainPaths,
		Unreadable:  batch.Unreadable,
	}
	if req.RepoID == "" {
		req.RepoID = batch.RepoID
	}
	if req.Sprint == 0 {
		req.Sprint = batch.Sprint
	}
	return req
}
