// ABOUTME: Standalone MCP server for the document assistant over stdio
// ABOUTME: Loads config and the chunk store, then serves the document tools
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mawell/doc-assistant/internal/config"
	"github.com/mawell/doc-assistant/internal/core"
	"github.com/mawell/doc-assistant/internal/logger"
	"github.com/mawell/doc-assistant/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.SetupLogger(cfg.LogLevel, cfg.LogJSON)

	assistant, err := core.Bootstrap(cfg, log, nil)
	if err != nil {
		log.Error("failed to start assistant", "err", err)
		os.Exit(1)
	}

	server, _ := mcp.NewServer(assistant, version)

	log.Info("MCP server starting on stdio", "server", mcp.ServerName, "version", version)
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
}
