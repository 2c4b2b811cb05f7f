// Package anthropic implements llm.Model on top of the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/llm/provider"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "claude-haiku-4-5-20251001"

	// DefaultBaseURL is the Anthropic API URL.
	DefaultBaseURL = "https://api.anthropic.com"

	defaultMaxTokens = 1024
)

// Model is an Anthropic backed llm.Model.
type Model struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

// New creates an Anthropic model. An API key is required.
func New(cfg provider.Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(2),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	client := anthropic.NewClient(opts...)
	return &Model{client: &client, model: model, logger: logger}, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.model
}

// Complete sends the conversation to the Messages API. System messages are
// lifted into the system prompt; a JSON schema is appended to it as an
// instruction.
func (m *Model) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	o := llm.ApplyOptions(opts...)
	system, rest := llm.SplitSystem(messages)

	if len(o.Schema) > 0 {
		if system != "" {
			system += "\n\n"
		}
		system += "Return ONLY valid JSON matching this schema, no markdown or extra text:\n" + string(o.Schema)
	}

	maxTokens := int64(defaultMaxTokens)
	if o.MaxTokens > 0 {
		maxTokens = int64(o.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(rest)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if o.Temperature != nil {
		params.Temperature = anthropic.Float(*o.Temperature)
	}

	for _, msg := range rest {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == llm.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	m.logger.Debug("anthropic message completed",
		"model", m.model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)

	if out.Len() == 0 {
		return "", errors.New("anthropic returned no text content")
	}
	return out.String(), nil
}

var _ llm.Model = (*Model)(nil)
