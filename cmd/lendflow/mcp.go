package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/lendflow/internal/cli"
	"github.com/aretw0/lendflow/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts lendflow as an MCP server, so AI agents can hold loan conversations
through tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs and spans go to stderr so they never corrupt JSON-RPC on stdout.
		app, err := buildApp(cmd, cli.BuildOptions{TraceOutput: os.Stderr})
		if err != nil {
			return err
		}
		defer func() { _ = app.Close(context.Background()) }()

		srv := mcp.NewServer(app.Assistant, mcp.WithLogger(app.Logger))

		switch transport {
		case "stdio":
			app.Logger.Info("Starting lendflow MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			app.Logger.Info("Starting lendflow MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("MCP server failed: %w", err)
			}
			app.Logger.Info("MCP server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
