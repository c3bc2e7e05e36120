// ABOUTME: MCP tool definitions and registration for the document assistant
// ABOUTME: Exposes ask_documents, search_documents and index_stats
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerName is reported to MCP clients during initialization
const ServerName = "Mawell Document Assistant"

// NewServer creates an MCP server with every tool registered
func NewServer(assistant Assistant, version string) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(ServerName, version, mcpserver.WithToolCapabilities(false))
	handlers := RegisterTools(server, assistant)
	return server, handlers
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, assistant Assistant) *Handlers {
	handlers := &Handlers{assistant: assistant}

	server.AddTool(mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question using only the ingested company documents. Off-topic questions are declined.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "Question in natural language (Spanish works best)",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskDocuments)

	server.AddTool(mcp.Tool{
		Name:        "search_documents",
		Description: "Return the document chunks retrieval considers relevant, without composing an answer.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query",
				},
				"top_k": map[string]any{
					"type":        "number",
					"description": "Maximum number of chunks to return (default: configured RETRIEVAL_TOP_K)",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchDocuments)

	server.AddTool(mcp.Tool{
		Name:        "index_stats",
		Description: "Report chunk count, index shape, embedding model and the active retrieval pipeline.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, handlers.IndexStats)

	return handlers
}
