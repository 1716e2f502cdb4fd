package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/mcp"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can retrieve
recipes, screen queries and read stored conversations.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  nutrigenie mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  nutrigenie mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "nutrigenie": {
        "command": "/path/to/nutrigenie",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports, err := mcpPorts(cmd)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

// mcpPorts resolves the services exposed as tools. Retrieval is required;
// the rest are dropped with a warning when they cannot be built.
func mcpPorts(cmd *cobra.Command) (*mcp.Ports, error) {
	svc, err := getServices()
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	retrieval, err := svc.Retrieval(ctx)
	if err != nil {
		return nil, fmt.Errorf("open retriever: %w", err)
	}
	ports := &mcp.Ports{
		Retrieval: retrieval,
		Language:  svc.Language(),
	}

	if safety, err := svc.Safety(ctx); err != nil {
		logger.Warn("classify_query disabled: %v", err)
	} else {
		ports.Safety = safety
	}
	if titles, err := svc.Titles(ctx); err != nil {
		logger.Warn("title tools disabled: %v", err)
	} else {
		ports.Titles = titles
	}
	if conversations, err := svc.Conversations(ctx); err != nil {
		logger.Warn("conversation resources disabled: %v", err)
	} else {
		ports.Conversations = conversations
	}

	return ports, nil
}
