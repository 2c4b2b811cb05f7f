// Package servecmder provides the serve command, which runs the cake HTTP
// API and MCP server.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/api"
	"github.com/papercomputeco/cake/cmd/cake/cmdutil"
	"github.com/papercomputeco/cake/pkg/chat"
	"github.com/papercomputeco/cake/pkg/config"
)

type serveCommander struct {
	mcp bool

	logger *slog.Logger
}

const serveLongDesc string = `Run the cake API server.

Endpoints:
  GET  /ping                          Health check
  POST /v1/chat      {"message": ...} Chat turn with knowledge extraction
  GET  /v1/knowledge                  All stored facts
  GET  /v1/search?query=&top_k=       Nearest facts to a query
  GET  /v1/stats                      Fact and index counts
  /mcp                                MCP server with the knowledge_search tool

Examples:
  cake serve
  cake serve --listen :9090 --model llama3.2
  cake serve --mcp=false`

const serveShortDesc string = "Run the cake API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = cmdutil.NewLogger(cmd)
			return cmder.run(cmd)
		},
	}

	cmdutil.AddFlags(cmd, config.KnowledgeFlags, config.ChatFlags)
	config.AddStringFlag(cmd, config.ServerFlags, config.FlagAPIListen, new(string))
	cmd.Flags().BoolVar(&cmder.mcp, "mcp", true, "Serve the MCP knowledge search tool at /mcp")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	eng, err := cmdutil.OpenEngine(ctx, cmd, c.logger, true, config.KnowledgeFlags, config.ChatFlags, config.ServerFlags)
	if err != nil {
		return err
	}
	defer eng.Close()

	session := chat.NewSession(eng.Conversation, eng.Responder, eng.Extractor, eng.Base, eng.HistoryWindow(), c.logger)

	server, err := api.NewServer(api.Config{
		ListenAddr:  eng.Config.API.Listen,
		DefaultTopK: int(eng.Config.Chat.TopK),
		MCP:         c.mcp,
	}, session, eng.Base, c.logger)
	if err != nil {
		return err
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	case <-ctx.Done():
		return server.Shutdown()
	}
}
