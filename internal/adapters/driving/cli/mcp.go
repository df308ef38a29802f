package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qanun-labs/qanun-cli/internal/adapters/driving/mcp"
	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  qanun mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  qanun mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "qanun": {
        "command": "/path/to/qanun",
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

	ctx := cmd.Context()

	// Serve from a warm index when embeddings already exist.
	if vectorIndex.Info().Status == domain.IndexStatusAbsent {
		if _, err := indexService.BuildIndex(ctx); err != nil {
			logger.Warn("Initial index build failed: %v", err)
		}
	}

	// The server is long-lived; pick up threshold recalibrations from
	// config edits without a restart.
	err = configStore.Watch(ctx, func(s domain.Settings) {
		searchService.UpdateSettings(s)
		indexService.UpdateSettings(s.Index)
	})
	if err != nil {
		logger.Warn("Config watcher unavailable: %v", err)
	}

	ports := &mcp.Ports{
		Search:    searchService,
		Embedding: embeddingService,
		Index:     indexService,
		Store:     chunkStore,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
