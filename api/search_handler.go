package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cake/pkg/knowledgebase"
)

// SearchResponse is the reply to GET /v1/search.
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []knowledgebase.Match `json:"results"`
	Count   int                   `json:"count"`
}

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default 5): number of results to return
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := s.config.DefaultTopK
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	matches, err := s.base.Matches(c.UserContext(), query, topK)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}
	if matches == nil {
		matches = []knowledgebase.Match{}
	}

	return c.JSON(SearchResponse{
		Query:   query,
		Results: matches,
		Count:   len(matches),
	})
}
