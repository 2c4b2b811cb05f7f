// Package eventstreamutils builds the configured eventstream publisher.
package eventstreamutils

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/cake/pkg/eventstream"
	"github.com/papercomputeco/cake/pkg/eventstream/kafka"
	"github.com/papercomputeco/cake/pkg/eventstream/nop"
	"github.com/papercomputeco/cake/pkg/eventstream/redis"
)

type NewPublisherOpts struct {
	ProviderType string

	// Brokers is a comma-separated broker list for kafka, or the server
	// address for redis.
	Brokers string
	Topic   string
	Logger  *slog.Logger
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "nop", "":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: splitBrokers(o.Brokers),
			Topic:   o.Topic,
		}, o.Logger)
	case "redis":
		return redis.NewPublisher(redis.Config{
			Addr:   o.Brokers,
			Stream: o.Topic,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", o.ProviderType)
	}
}

func splitBrokers(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
