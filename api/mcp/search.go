package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/cake/pkg/knowledgebase"
)

const defaultTopK = 5

var (
	searchToolName    = "knowledge_search"
	searchDescription = "Search the knowledge base for stored facts using semantic search. Returns the subject-predicate-object facts closest to the query text, nearest first."
)

// SearchInput represents the input arguments for the knowledge_search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text to find relevant facts"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// SearchResult is a single matching fact.
type SearchResult struct {
	ID        uint64   `json:"id"`
	Subject   string   `json:"subject"`
	Predicate string   `json:"predicate"`
	Object    string   `json:"object"`
	Text      string   `json:"text"`
	Timestamp string   `json:"timestamp,omitempty"`
	Start     *float64 `json:"start,omitempty"`
	End       *float64 `json:"end,omitempty"`
	Distance  float32  `json:"distance"`
}

// SearchOutput represents the output of the knowledge_search tool.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), SearchOutput{}, nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	logger.Debug("MCP knowledge search", "query", input.Query, "top_k", topK)

	matches, err := s.config.Searcher.Matches(ctx, input.Query, topK)
	if err != nil {
		logger.Error("knowledge search failed", "error", err)
		return errorResult(fmt.Sprintf("Failed to search knowledge: %v", err)), SearchOutput{}, nil
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: make([]SearchResult, 0, len(matches)),
	}
	for _, m := range matches {
		output.Results = append(output.Results, buildSearchResult(m))
	}
	output.Count = len(output.Results)

	// Structured output is mirrored as JSON text for clients that only read content.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func buildSearchResult(m knowledgebase.Match) SearchResult {
	return SearchResult{
		ID:        m.ID,
		Subject:   m.Subject,
		Predicate: m.Predicate,
		Object:    m.Object,
		Text:      m.Text(),
		Timestamp: m.Timestamp,
		Start:     m.Start,
		End:       m.End,
		Distance:  m.Distance,
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
