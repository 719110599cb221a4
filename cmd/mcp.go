package cmd

import (
	"github.com/huangsam/annoq/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Annoq MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents list tasks, generate
requests and read agreement statistics via standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
