package eventstream

import "context"

// Publisher publishes knowledge events to an event stream backend.
type Publisher interface {
	PublishAccepted(ctx context.Context, event *KnowledgeAcceptedEvent) error
	Close() error
}
