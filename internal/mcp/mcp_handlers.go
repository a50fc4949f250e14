package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/mri/core"
	"github.com/huangsam/mri/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	tt      *core.TimeTravel
}

// repoID resolves the repository argument, falling back to the configured one.
func (h *toolHandler) repoID(request mcp.CallToolRequest) (string, error) {
	repo := request.GetString("repo_id", "")
	if repo == "" {
		repo = h.baseCfg.RepoID
	}
	if repo == "" {
		return "", fmt.Errorf("repo_id is required")
	}
	return repo, nil
}

// jsonResult marshals v as the text content of a tool result.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetLatest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := h.repoID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snapshot, err := h.tt.Latest(ctx, repo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if snapshot == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No snapshot found for %s", repo)), nil
	}
	return jsonResult(snapshot), nil
}

func (h *toolHandler) handleGetBySprint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := h.repoID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sprint := request.GetInt("sprint", 0)
	if sprint < 1 {
		return mcp.NewToolResultError(fmt.Sprintf("sprint must be >= 1 (received %d)", sprint)), nil
	}

	snapshot, err := h.tt.AtSprint(ctx, repo, sprint)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if snapshot == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No snapshot found for %s sprint %d", repo, sprint)), nil
	}
	return jsonResult(snapshot), nil
}

func (h *toolHandler) handleGetRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := h.repoID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg := &contract.Config{
		FromSprint: request.GetInt("from", 0),
		ToSprint:   request.GetInt("to", 0),
	}
	if err := cfg.RequireRange(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid range parameters: %v", err)), nil
	}

	snapshots, err := h.tt.Range(ctx, repo, cfg.FromSprint, cfg.ToSprint)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	return jsonResult(nonNil(snapshots)), nil
}

func (h *toolHandler) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := h.repoID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", h.baseCfg.HistoryLimit)
	if limit < 0 || limit > contract.MaxHistoryLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 0 (default) and %d (received %d)", contract.MaxHistoryLimit, limit)), nil
	}

	snapshots, err := h.tt.History(ctx, repo, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	return jsonResult(nonNil(snapshots)), nil
}

// nonNil keeps empty results encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
