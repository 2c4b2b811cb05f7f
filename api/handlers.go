package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cake/pkg/knowledge"
)

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply to POST /v1/chat.
type ChatResponse struct {
	Response           string              `json:"response"`
	ExtractedKnowledge []knowledge.Triplet `json:"extracted_knowledge"`
}

// KnowledgeResponse lists every stored fact.
type KnowledgeResponse struct {
	Facts []knowledge.Fact `json:"facts"`
	Count int              `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleChat runs one chat turn.
func (s *Server) handleChat(c *fiber.Ctx) error {
	if s.chat == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "chat is not configured: a model is required",
		})
	}

	var req ChatRequest
	// A malformed body is treated like a missing message.
	_ = c.BodyParser(&req)

	reply, err := s.chat.Turn(c.UserContext(), req.Message)
	if errors.Is(err, knowledge.ErrEmptyInput) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "No message provided"})
	}
	if err != nil {
		s.logger.Error("chat turn failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to process message"})
	}

	return c.JSON(ChatResponse{
		Response:           reply.Response,
		ExtractedKnowledge: reply.ExtractedKnowledge,
	})
}

// handleListKnowledge returns every stored fact in ID order.
func (s *Server) handleListKnowledge(c *fiber.Ctx) error {
	facts, err := s.base.Facts(c.UserContext())
	if err != nil {
		s.logger.Error("listing facts failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load knowledge"})
	}
	if facts == nil {
		facts = []knowledge.Fact{}
	}
	return c.JSON(KnowledgeResponse{Facts: facts, Count: len(facts)})
}

// handleStats reports store and index sizes.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.base.Stats(c.UserContext())
	if err != nil {
		s.logger.Error("loading stats failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load stats"})
	}
	return c.JSON(stats)
}
