// Package nop provides the disabled eventstream publisher.
package nop

import (
	"context"

	"github.com/papercomputeco/cake/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishAccepted validates input and otherwise does nothing.
func (p *Publisher) PublishAccepted(_ context.Context, event *eventstream.KnowledgeAcceptedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
