// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/mri/core"
	"github.com/huangsam/mri/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the MRI MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, tt *core.TimeTravel) *server.MCPServer {
	s := server.NewMCPServer(
		"Codebase MRI Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		tt:      tt,
	}

	repoOption := mcp.WithString("repo_id", mcp.Description("Repository id (defaults to the configured repository)."))

	// --- 1. Tool: get_latest_snapshot ---
	s.AddTool(mcp.NewTool("get_latest_snapshot",
		mcp.WithDescription("Get the most recent technical-debt snapshot of a repository."),
		repoOption,
	), h.handleGetLatest)

	// --- 2. Tool: get_snapshot_by_sprint ---
	s.AddTool(mcp.NewTool("get_snapshot_by_sprint",
		mcp.WithDescription("Get the technical-debt snapshot of a repository at a given sprint."),
		repoOption,
		mcp.WithNumber("sprint", mcp.Description("Sprint number (>= 1)."), mcp.Required()),
	), h.handleGetBySprint)

	// --- 3. Tool: get_snapshot_range ---
	s.AddTool(mcp.NewTool("get_snapshot_range",
		mcp.WithDescription("Get every snapshot between two sprints (inclusive), oldest first."),
		repoOption,
		mcp.WithNumber("from", mcp.Description("First sprint of the range."), mcp.Required()),
		mcp.WithNumber("to", mcp.Description("Last sprint of the range."), mcp.Required()),
	), h.handleGetRange)

	// --- 4. Tool: get_snapshot_history ---
	s.AddTool(mcp.NewTool("get_snapshot_history",
		mcp.WithDescription("Get the most recent snapshots of a repository, oldest first, for trend playback."),
		repoOption,
		mcp.WithNumber("limit", mcp.Description("Maximum number of snapshots (0 or omitted uses the configured history limit).")),
	), h.handleGetHistory)

	return s
}

// StartMCPServer starts the MRI MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, tt *core.TimeTravel) error {
	s := NewMCPServer(baseCfg, tt)
	return server.ServeStdio(s)
}
