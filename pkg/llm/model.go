// Package llm is the language model boundary: a provider-agnostic message
// type and the Model handle used for extraction, answering and evaluation.
package llm

import (
	"context"
	"encoding/json"
)

// Model completes a conversation and returns the assistant's text.
//
// A Model is constructed once per process and handed to every component
// that needs it. Implementations must be safe for concurrent use.
type Model interface {
	// Complete sends messages to the model and returns the generated text.
	Complete(ctx context.Context, messages []Message, opts ...CompleteOption) (string, error)

	// Name returns the model identifier, e.g. "llama3.2".
	Name() string
}

// CompleteOptions holds per-call generation parameters.
type CompleteOptions struct {
	// Temperature is the sampling temperature. Nil leaves the provider default.
	Temperature *float64

	// Schema is a JSON schema the response must satisfy. Providers with native
	// structured output enforce it; the rest receive it as an instruction.
	Schema json.RawMessage

	// MaxTokens caps the response length. Zero leaves the provider default.
	MaxTokens int
}

// CompleteOption configures a single Complete call.
type CompleteOption func(*CompleteOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CompleteOption {
	return func(o *CompleteOptions) {
		o.Temperature = &t
	}
}

// WithJSONSchema requests structured output matching schema.
func WithJSONSchema(schema json.RawMessage) CompleteOption {
	return func(o *CompleteOptions) {
		o.Schema = schema
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) CompleteOption {
	return func(o *CompleteOptions) {
		o.MaxTokens = n
	}
}

// ApplyOptions folds opts into a CompleteOptions value.
func ApplyOptions(opts ...CompleteOption) CompleteOptions {
	var o CompleteOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
