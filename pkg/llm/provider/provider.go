// Package provider holds the configuration shared by the language model
// provider implementations.
package provider

import (
	"log/slog"
	"net/http"
	"slices"
)

// Supported provider type constants
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Ollama    = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI, Ollama}
}

// IsSupported reports whether name is a supported provider type.
func IsSupported(name string) bool {
	return slices.Contains(SupportedProviders(), name)
}

// Config configures a provider client.
type Config struct {
	// BaseURL is the provider API URL. Each provider has its own default.
	BaseURL string

	// Model is the model name passed to the provider.
	Model string

	// APIKey authenticates against hosted providers.
	APIKey string

	// HTTPClient overrides the HTTP client used for requests.
	HTTPClient *http.Client

	Logger *slog.Logger
}
