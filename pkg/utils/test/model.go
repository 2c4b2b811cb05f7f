package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/cake/pkg/llm"
)

// ModelCall records one Complete invocation.
type ModelCall struct {
	Messages []llm.Message
	Options  llm.CompleteOptions
}

// MockModel is a test llm.Model. Respond, when set, computes the reply;
// otherwise Responses are returned in order, repeating the last one.
type MockModel struct {
	Responses []string
	Respond   func(messages []llm.Message) (string, error)
	Err       error

	mu    sync.Mutex
	calls []ModelCall
}

func NewMockModel(responses ...string) *MockModel {
	return &MockModel{Responses: responses}
}

func (m *MockModel) Name() string {
	return "mock-model"
}

func (m *MockModel) Complete(_ context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.calls)
	m.calls = append(m.calls, ModelCall{
		Messages: append([]llm.Message(nil), messages...),
		Options:  llm.ApplyOptions(opts...),
	})

	if m.Err != nil {
		return "", m.Err
	}
	if m.Respond != nil {
		return m.Respond(messages)
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	return m.Responses[min(n, len(m.Responses)-1)], nil
}

// Calls returns the recorded invocations.
func (m *MockModel) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModelCall(nil), m.calls...)
}
