package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/cake/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	Err error

	mu     sync.Mutex
	events []*eventstream.KnowledgeAcceptedEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishAccepted(_ context.Context, event *eventstream.KnowledgeAcceptedEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the recorded events.
func (m *MockPublisher) Events() []*eventstream.KnowledgeAcceptedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.KnowledgeAcceptedEvent(nil), m.events...)
}

func (m *MockPublisher) Close() error {
	return nil
}
