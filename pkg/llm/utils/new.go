// Package llmutils builds the process-wide language model handle.
package llmutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/llm/provider"
	"github.com/papercomputeco/cake/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/cake/pkg/llm/provider/ollama"
	"github.com/papercomputeco/cake/pkg/llm/provider/openai"
)

type NewModelOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Logger       *slog.Logger
}

func NewModel(o *NewModelOpts) (llm.Model, error) {
	cfg := provider.Config{
		BaseURL: o.TargetURL,
		Model:   o.Model,
		APIKey:  o.APIKey,
		Logger:  o.Logger,
	}

	switch o.ProviderType {
	case provider.Ollama:
		return ollama.New(cfg)
	case provider.Anthropic:
		return anthropic.New(cfg)
	case provider.OpenAI:
		return openai.New(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q (supported: %v)", o.ProviderType, provider.SupportedProviders())
	}
}
