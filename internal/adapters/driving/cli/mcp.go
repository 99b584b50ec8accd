package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so assistants can pull
knowledge base context.

Tools:
  get_context  passages relevant to a question
  search       ranked chunks with scores and retrieval method
  list_files   uploaded files

Resources:
  kb://files               uploaded files as JSON
  kb://files/{id}/chunks   the chunks of one file

The server speaks JSON-RPC over stdio unless --port or --addr is given,
in which case it serves streamable HTTP (useful with MCP Inspector).

Examples:
  sercha-kb mcp serve
  sercha-kb mcp serve --port 8080
  sercha-kb mcp serve --addr 127.0.0.1:8080`,
	RunE: runMCPServe,
}

var mcpConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the desktop client configuration for this binary",
	Args:  cobra.NoArgs,
	RunE:  runMCPConfig,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port on all interfaces (0 = use stdio)")
	mcpServeCmd.Flags().String("addr", "", "HTTP listen address, overrides --port")
	mcpServeCmd.Flags().String("instructions", "", "replace the instructions sent to clients")
	mcpCmd.AddCommand(mcpServeCmd, mcpConfigCmd)
	rootCmd.AddCommand(mcpCmd)
}

// mcpListenAddr resolves the HTTP address from flags. Empty means stdio.
func mcpListenAddr(cmd *cobra.Command) (string, error) {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return "", fmt.Errorf("getting addr flag: %w", err)
	}
	if addr != "" {
		return addr, nil
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return "", fmt.Errorf("getting port flag: %w", err)
	}
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	if port == 0 {
		return "", nil
	}
	return fmt.Sprintf(":%d", port), nil
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, err := mcpListenAddr(cmd)
	if err != nil {
		return err
	}

	opts := []mcp.Option{mcp.WithVersion(version)}
	if cmd.Flags().Changed("instructions") {
		instructions, _ := cmd.Flags().GetString("instructions")
		opts = append(opts, mcp.WithInstructions(instructions))
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchService,
		Document: documentService,
	}, opts...)
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", displayAddr(addr))
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

// mcpClientConfig is the "mcpServers" block desktop assistants read.
type mcpClientConfig struct {
	MCPServers map[string]mcpClientEntry `json:"mcpServers"`
}

type mcpClientEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// executable is replaced in tests.
var executable = os.Executable

func runMCPConfig(cmd *cobra.Command, _ []string) error {
	path, err := executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	args := []string{"mcp", "serve"}
	if dataDirFlag != "" {
		args = append([]string{"--data-dir", dataDirFlag}, args...)
	}

	return printJSON(cmd, mcpClientConfig{
		MCPServers: map[string]mcpClientEntry{
			"sercha-kb": {Command: path, Args: args},
		},
	})
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
