package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Event[T] binds a topic name to its payload type so publishers and
// subscribers agree on the JSON shape.
type Event[T any] struct {
	topicName   string
	description string
}

// EventInfo describes a registered event for listings and docs.
type EventInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	catalogMu sync.RWMutex
	catalog   = map[string]EventInfo{}
)

// NewEvent creates a typed event and records it in the package catalog.
// Events are defined at package level, so a duplicate name panics at init.
func NewEvent[T any](name, description string) Event[T] {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	if _, exists := catalog[name]; exists {
		panic(fmt.Sprintf("pubsub: event %q registered twice", name))
	}
	catalog[name] = EventInfo{Name: name, Description: description}
	return Event[T]{topicName: name, description: description}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Events lists every registered event sorted by name.
func Events() []EventInfo {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make([]EventInfo, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		Payload: data,
	})
}

// Decode unmarshals a message published for event.
func Decode[T any](event Event[T], msg Message) (T, error) {
	var payload T
	if msg.Topic != "" && msg.Topic != event.Name() {
		return payload, fmt.Errorf("message on %q is not a %q event", msg.Topic, event.Name())
	}
	err := json.Unmarshal(msg.Payload, &payload)
	return payload, err
}
