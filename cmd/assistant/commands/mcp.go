// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents query the documents over stdio, with optional /metrics
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mawell/doc-assistant/internal/core"
	"github.com/mawell/doc-assistant/internal/mcp"
	"github.com/mawell/doc-assistant/internal/metrics"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var (
	metricsAddr string
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the document assistant as an MCP (Model Context Protocol) server,
so LLM agents can ask questions about the documents via stdio.

With --metrics-addr, Prometheus metrics for retrieval strategies,
answer outcomes and stage failures are served at /metrics.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  assistant mcp

  # Also expose Prometheus metrics
  assistant mcp --metrics-addr :9090

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "mawell-docs": {
  #       "command": "assistant",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (disabled when empty)")

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	var rec *metrics.Recorder
	if metricsAddr != "" {
		rec = metrics.New()
	}

	assistant, err := core.Bootstrap(cfg, log, rec)
	if err != nil {
		return err
	}

	server, _ := mcp.NewServer(assistant, versionInfo.Version)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if rec != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rec.Handler())
		metricsServer = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", "addr", metricsAddr, "err", err)
			}
		}()
		log.Info("serving metrics", "addr", metricsAddr)
	}

	log.Info("MCP server starting on stdio", "server", mcp.ServerName)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err = <-serverErr:
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := metricsServer.Shutdown(shutdownCtx); serr != nil {
			log.Warn("metrics server shutdown", "err", serr)
		}
	}

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
