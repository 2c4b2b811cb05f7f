package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cake/api/mcp"
	"github.com/papercomputeco/cake/pkg/chat"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/knowledgebase"
)

// Chatter runs a chat turn.
type Chatter interface {
	Turn(ctx context.Context, message string) (*chat.Reply, error)
}

// KnowledgeBase is the read side of the knowledge base served by the API.
type KnowledgeBase interface {
	Facts(ctx context.Context) ([]knowledge.Fact, error)
	Matches(ctx context.Context, query string, k int) ([]knowledgebase.Match, error)
	Stats(ctx context.Context) (knowledgebase.Stats, error)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for chatting with and querying the knowledge base.
type Server struct {
	config Config
	chat   Chatter
	base   KnowledgeBase
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. chatter may be nil, in which case
// POST /v1/chat answers 503.
func NewServer(config Config, chatter Chatter, base KnowledgeBase, logger *slog.Logger) (*Server, error) {
	if base == nil {
		return nil, errors.New("knowledge base is required")
	}
	if config.DefaultTopK <= 0 {
		config.DefaultTopK = 5
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		chat:   chatter,
		base:   base,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/chat", s.handleChat)
	// Unversioned paths used by existing chat clients.
	app.Post("/chat", s.handleChat)
	app.Post("/api/chat", s.handleChat)
	app.Get("/v1/knowledge", s.handleListKnowledge)
	app.Get("/v1/search", s.handleSearchEndpoint)
	app.Get("/v1/stats", s.handleStats)

	if config.MCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Searcher: base,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating MCP server: %w", err)
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr, "mcp", s.config.MCP)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
