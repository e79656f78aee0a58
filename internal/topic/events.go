package topic

import (
	"time"

	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/pubsub"
)

// Event type names. They double as pub/sub topic names.
const (
	EventCreated = "topic.created"
	EventUpdated = "topic.updated"
	EventDeleted = "topic.deleted"
)

// Change is the payload of every topic event. Topic is nil for deletes.
type Change struct {
	Type       string        `json:"type"`
	TopicID    int64         `json:"topic_id"`
	Topic      *domain.Topic `json:"topic,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

var (
	Created = pubsub.NewEvent[Change](EventCreated, "a topic was created; carries the new topic")
	Updated = pubsub.NewEvent[Change](EventUpdated, "a topic was overwritten; carries the updated topic")
	Deleted = pubsub.NewEvent[Change](EventDeleted, "a topic was removed; carries only its id")
)

// AllEvents lists the events a stream subscriber needs.
var AllEvents = []pubsub.Event[Change]{Created, Updated, Deleted}
