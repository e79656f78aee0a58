package pubsub

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var testEvent = NewEvent[testPayload]("test.payload", "payload used by the pubsub tests")

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	bus := NewWatermillBridge(slog.Default())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 1)
	require.NoError(t, bus.Subscribe(ctx, "topic.created", func(ctx context.Context, msg Message) error {
		got <- msg
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, Message{
		Topic:    "topic.created",
		Payload:  []byte(`{"id":1}`),
		Metadata: map[string]string{"request_id": "abc"},
	}))

	msg := receive(t, got)
	assert.Equal(t, "topic.created", msg.Topic)
	assert.JSONEq(t, `{"id":1}`, string(msg.Payload))
	assert.Equal(t, "abc", msg.Metadata["request_id"])
	_, hasTopic := msg.Metadata[metaKeyTopic]
	assert.False(t, hasTopic, "reserved metadata must not leak")
}

func TestWatermillBridge_TopicsAreIsolated(t *testing.T) {
	bus := NewWatermillBridge(nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 2)
	require.NoError(t, bus.Subscribe(ctx, "topic.deleted", func(ctx context.Context, msg Message) error {
		got <- msg
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, Message{Topic: "topic.updated", Payload: []byte(`{}`)}))
	require.NoError(t, bus.Publish(ctx, Message{Topic: "topic.deleted", Payload: []byte(`{"id":9}`)}))

	msg := receive(t, got)
	assert.Equal(t, "topic.deleted", msg.Topic)
}

func TestWatermillBridge_HandlerErrorDoesNotRedeliver(t *testing.T) {
	bus := NewWatermillBridge(nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	require.NoError(t, bus.Subscribe(ctx, "topic.updated", func(ctx context.Context, msg Message) error {
		calls <- struct{}{}
		return errors.New("handler failed")
	}))
	require.NoError(t, bus.Publish(ctx, Message{Topic: "topic.updated", Payload: []byte(`{}`)}))

	<-calls
	select {
	case <-calls:
		t.Fatal("message was redelivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTypedPublish(t *testing.T) {
	bus := NewWatermillBridge(nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 1)
	require.NoError(t, bus.Subscribe(ctx, testEvent.Name(), func(ctx context.Context, msg Message) error {
		got <- msg
		return nil
	}))
	require.NoError(t, Publish(ctx, bus, testEvent, testPayload{ID: 3, Name: "Confounding"}))

	payload, err := Decode(testEvent, receive(t, got))
	require.NoError(t, err)
	assert.Equal(t, testPayload{ID: 3, Name: "Confounding"}, payload)
}

func TestDecode_WrongTopic(t *testing.T) {
	_, err := Decode(testEvent, Message{Topic: "other", Payload: []byte(`{}`)})
	assert.Error(t, err)
}

func TestEventsCatalog(t *testing.T) {
	var found bool
	for _, info := range Events() {
		if info.Name == "test.payload" {
			found = true
			assert.Equal(t, "payload used by the pubsub tests", info.Description)
		}
	}
	assert.True(t, found)

	assert.Panics(t, func() { NewEvent[testPayload]("test.payload", "again") })
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.With(map[string]interface{}{"subscriber": "ws"}).Error("boom", errors.New("bad"), map[string]interface{}{"topic": "t"})
	out := buf.String()
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "subscriber=ws")
	assert.Contains(t, out, "topic=t")
	assert.Contains(t, out, "error=bad")
}

func TestSlogAdapter_InfoLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	adapter.Info("No subscribers to send message", nil)
	adapter.Trace("sending message", nil)
	assert.Empty(t, buf.String())

	adapter.Error("boom", errors.New("bad"), nil)
	assert.Contains(t, buf.String(), "boom")
}

func TestWatermillBridge_PublishWithoutSubscribersIsQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	bus := NewWatermillBridge(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer bus.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), Message{Topic: "topic.created", Payload: []byte(`{}`)}))
	}
	assert.Empty(t, buf.String())
}
