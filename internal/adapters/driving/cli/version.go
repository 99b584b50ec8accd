package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/mcp"
)

// versionInfo is the JSON form of the version command.
type versionInfo struct {
	Version    string `json:"version"`
	MCPVersion string `json:"mcp_server"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versionInfo{Version: version, MCPVersion: mcp.Version}
		if jsonOutput {
			return printJSON(cmd, info)
		}
		cmd.Printf("sercha-kb version %s (mcp server %s)\n", info.Version, info.MCPVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
