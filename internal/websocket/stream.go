package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/causal/internal/middleware"
	"github.com/nfrund/causal/internal/pubsub"
)

const (
	// DefaultSendBuffer is how many events a slow client may lag behind.
	DefaultSendBuffer = 64
	writeTimeout      = 10 * time.Second
)

// helloFrame is sent once every subscription is live.
var helloFrame = []byte(`{"type":"subscribed"}`)

// EventStream forwards pub/sub messages to WebSocket clients. Each connection
// gets its own subscriptions and is one-way: client frames are ignored.
type EventStream struct {
	sub            pubsub.Subscriber
	topics         []string
	originPatterns []string
	sendBuffer     int

	mu      sync.Mutex
	clients map[string]*Client
	closed  bool
	done    chan struct{}
}

// NewEventStream creates a stream over topics. An empty origin list or "*"
// accepts every origin.
func NewEventStream(sub pubsub.Subscriber, topics []string, originPatterns []string) *EventStream {
	return &EventStream{
		sub:            sub,
		topics:         topics,
		originPatterns: originPatterns,
		sendBuffer:     DefaultSendBuffer,
		clients:        make(map[string]*Client),
		done:           make(chan struct{}),
	}
}

func (s *EventStream) acceptOptions() *websocket.AcceptOptions {
	if len(s.originPatterns) == 0 {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	hosts := make([]string, 0, len(s.originPatterns))
	for _, origin := range s.originPatterns {
		if origin == "*" {
			return &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
		// Patterns are matched against the Origin host only.
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			origin = u.Host
		}
		hosts = append(hosts, origin)
	}
	return &websocket.AcceptOptions{OriginPatterns: hosts}
}

// Handler upgrades the request and streams events until either side closes.
func (s *EventStream) Handler(c echo.Context) error {
	logger := middleware.FromContext(c.Request().Context())

	conn, err := websocket.Accept(c.Response(), c.Request(), s.acceptOptions())
	if err != nil {
		logger.Warn("Failed to upgrade connection to WebSocket", "error", err)
		return nil
	}

	client := newClient(uuid.NewString(), conn, s.sendBuffer)
	if !s.register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return nil
	}
	defer s.unregister(client)

	// CloseRead discards client frames and cancels ctx once the peer goes away.
	ctx, cancel := context.WithCancel(conn.CloseRead(context.Background()))
	defer cancel()

	for _, topic := range s.topics {
		if err := s.sub.Subscribe(ctx, topic, func(_ context.Context, msg pubsub.Message) error {
			client.SendMessage(msg.Payload)
			return nil
		}); err != nil {
			logger.Error("Failed to subscribe WebSocket client", "client_id", client.ID, "topic", topic, "error", err)
			conn.Close(websocket.StatusInternalError, "subscription failed")
			return nil
		}
	}

	logger.Debug("WebSocket client subscribed", "client_id", client.ID, "topics", s.topics)
	if err := write(ctx, conn, helloFrame); err != nil {
		return nil
	}

	err = s.pump(ctx, client)
	switch {
	case err == nil:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	case errors.Is(err, context.Canceled):
		logger.Debug("WebSocket client disconnected", "client_id", client.ID)
	default:
		logger.Warn("WebSocket write error", "client_id", client.ID, "error", err)
		conn.Close(websocket.StatusInternalError, "write failed")
	}
	return nil
}

// pump writes queued events until ctx ends or the stream is closed.
func (s *EventStream) pump(ctx context.Context, client *Client) error {
	send := client.Send
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := write(ctx, client.Conn, msg); err != nil {
				return err
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

func (s *EventStream) register(c *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c.ID] = c
	return true
}

func (s *EventStream) unregister(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.ID)
	s.mu.Unlock()
	c.Close()
}

// Clients returns the number of connected clients.
func (s *EventStream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client and rejects new ones.
func (s *EventStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Frame is the decoded form of an event frame, used by clients and tests.
type Frame struct {
	Type    string          `json:"type"`
	TopicID int64           `json:"topic_id,omitempty"`
	Topic   json.RawMessage `json:"topic,omitempty"`
}

// ReadFrame reads and decodes one text frame from conn.
func ReadFrame(ctx context.Context, conn *websocket.Conn) (Frame, error) {
	var f Frame
	_, data, err := conn.Read(ctx)
	if err != nil {
		return f, err
	}
	err = json.Unmarshal(data, &f)
	return f, err
}
