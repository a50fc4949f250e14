package cmd

import (
	"github.com/huangsam/mri/core"
	"github.com/huangsam/mri/internal/iostore"
	"github.com/huangsam/mri/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MRI MCP server",
	Long:  `Launch an MCP server that allows AI agents to travel through stored snapshots via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Nothing may be printed to stdout here, since stdio is the protocol channel.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		tt := core.NewTimeTravel(iostore.Manager.GetSnapshotStore(), cfg.HistoryLimit)
		return mcp.StartMCPServer(rootCtx, cfg, tt)
	},
}
