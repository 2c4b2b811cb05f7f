package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/cake/pkg/knowledge"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeKnowledgeAccepted is emitted after facts are committed to the
	// fact store and the vector index.
	EventTypeKnowledgeAccepted = "cake.knowledge.accepted"
)

// Origins of accepted knowledge.
const (
	OriginChat   = "chat"
	OriginIngest = "ingest"
)

// KnowledgeAcceptedEvent is a transport-neutral payload for a committed batch.
type KnowledgeAcceptedEvent struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     string           `json:"event_type"`
	EventID       string           `json:"event_id"`
	EmittedAt     time.Time        `json:"emitted_at"`
	Origin        string           `json:"origin"`
	Facts         []knowledge.Fact `json:"facts"`
}

// NewKnowledgeAcceptedEvent builds an event for facts with a fresh ID.
func NewKnowledgeAcceptedEvent(origin string, facts []knowledge.Fact, now time.Time) *KnowledgeAcceptedEvent {
	return &KnowledgeAcceptedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeKnowledgeAccepted,
		EventID:       uuid.NewString(),
		EmittedAt:     now.UTC(),
		Origin:        origin,
		Facts:         facts,
	}
}
