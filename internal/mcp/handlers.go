// ABOUTME: MCP tool handler implementations for the document assistant
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mawell/doc-assistant/internal/core"
	"github.com/mawell/doc-assistant/internal/models"
)

const maxTopK = 50

// Assistant is the part of core.Assistant the tools need
type Assistant interface {
	Answer(ctx context.Context, query string) models.Answer
	Search(ctx context.Context, query string, topK int) models.RetrievalResult
	Stats() core.Stats
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	assistant Assistant
}

type hitView struct {
	ID     int     `json:"id"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
	Text   string  `json:"text"`
}

// AskDocuments handles the ask_documents tool
func (h *Handlers) AskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	if strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question must not be empty"), nil
	}

	answer := h.assistant.Answer(ctx, question)
	if answer.SourceIDs == nil {
		answer.SourceIDs = []int{}
	}
	return jsonResult(map[string]any{
		"question":   answer.Question,
		"answer":     answer.Answer,
		"outcome":    answer.Outcome,
		"source_ids": answer.SourceIDs,
	})
}

// SearchDocuments handles the search_documents tool
func (h *Handlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	topK := request.GetInt("top_k", 0)
	if topK < 0 || topK > maxTopK {
		return mcp.NewToolResultError(fmt.Sprintf("top_k must be between 1 and %d", maxTopK)), nil
	}

	result := h.assistant.Search(ctx, query, topK)
	hits := make([]hitView, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, hitView{
			ID:     hit.ID,
			Score:  hit.Score,
			Source: models.SourceOf(hit.Chunk),
			Text:   hit.Chunk.Text(),
		})
	}

	return jsonResult(map[string]any{
		"query":    query,
		"strategy": result.Strategy,
		"hits":     hits,
	})
}

// IndexStats handles the index_stats tool
func (h *Handlers) IndexStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.assistant.Stats())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
