// Package ollama implements llm.Model on top of Ollama's chat API.
package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/llm/provider"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "llama3.2"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Model is an Ollama backed llm.Model.
type Model struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

// New creates an Ollama chat model.
func New(cfg provider.Config) (*Model, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama url %q: %w", baseURL, err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Model{
		client: api.NewClient(u, hc),
		model:  model,
		logger: logger,
	}, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.model
}

// Complete runs a non-streaming chat request.
func (m *Model) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	o := llm.ApplyOptions(opts...)

	stream := false
	req := &api.ChatRequest{
		Model:    m.model,
		Messages: make([]api.Message, 0, len(messages)),
		Stream:   &stream,
		Options:  map[string]any{},
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, api.Message{Role: msg.Role, Content: msg.Content})
	}
	if len(o.Schema) > 0 {
		req.Format = o.Schema
	}
	if o.Temperature != nil {
		req.Options["temperature"] = *o.Temperature
	}
	if o.MaxTokens > 0 {
		req.Options["num_predict"] = o.MaxTokens
	}

	var out strings.Builder
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	m.logger.Debug("ollama chat completed", "model", m.model, "messages", len(messages), "chars", out.Len())
	return out.String(), nil
}

var _ llm.Model = (*Model)(nil)
