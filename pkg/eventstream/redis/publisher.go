// Package redis publishes knowledge events to a Redis stream.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/papercomputeco/cake/pkg/eventstream"
)

// Config configures the Redis publisher.
type Config struct {
	// Addr is the Redis server, host:port.
	Addr string

	// Stream is the stream key events are appended to.
	Stream string

	// MaxLen approximately caps the stream length. Zero leaves it unbounded.
	MaxLen int64
}

// Publisher appends one stream entry per event.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

// NewPublisher creates a Redis stream publisher.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Stream == "" {
		return nil, errors.New("redis stream is required")
	}

	return &Publisher{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr}),
		stream: cfg.Stream,
		maxLen: cfg.MaxLen,
		logger: logger,
	}, nil
}

// PublishAccepted appends the event to the stream.
func (p *Publisher) PublishAccepted(ctx context.Context, event *eventstream.KnowledgeAcceptedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding knowledge event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_id":   event.EventID,
			"event_type": event.EventType,
			"payload":    string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("appending to redis stream %s: %w", p.stream, err)
	}

	p.logger.Debug("published knowledge event",
		"stream", p.stream,
		"entry_id", id,
		"event_id", event.EventID,
	)
	return nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
