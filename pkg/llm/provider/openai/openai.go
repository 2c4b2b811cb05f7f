// Package openai implements llm.Model on top of the OpenAI chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/llm/provider"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4o-mini"

	// DefaultBaseURL is the OpenAI API URL, without the version path.
	DefaultBaseURL = "https://api.openai.com"

	schemaName = "response"
)

// Model is an OpenAI backed llm.Model.
type Model struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// New creates an OpenAI model. An API key is required.
func New(cfg provider.Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
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
		option.WithBaseURL(strings.TrimSuffix(baseURL, "/") + "/v1/"),
		option.WithMaxRetries(2),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	client := openai.NewClient(opts...)
	return &Model{client: &client, model: model, logger: logger}, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.model
}

// Complete runs a chat completion. A JSON schema is sent as a strict
// json_schema response format.
func (m *Model) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	o := llm.ApplyOptions(opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}
	if o.Temperature != nil {
		params.Temperature = openai.Float(*o.Temperature)
	}
	if o.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.MaxTokens))
	}
	if len(o.Schema) > 0 {
		var schema map[string]any
		if err := json.Unmarshal(o.Schema, &schema); err != nil {
			return "", fmt.Errorf("decoding response schema: %w", err)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	m.logger.Debug("openai chat completed",
		"model", m.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return resp.Choices[0].Message.Content, nil
}

var _ llm.Model = (*Model)(nil)
