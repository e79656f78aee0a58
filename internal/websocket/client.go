package websocket

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Client represents a single connected WebSocket client.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	mu   sync.RWMutex
}

func newClient(id string, conn *websocket.Conn, buffer int) *Client {
	return &Client{ID: id, Conn: conn, Send: make(chan []byte, buffer)}
}

// SendMessage queues msg for the client without blocking. When the buffer is
// full the message is dropped.
func (c *Client) SendMessage(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// If the channel is nil, it means the client is disconnected.
	if c.Send == nil {
		return false
	}

	select {
	case c.Send <- msg:
		return true
	default:
		slog.Warn("Client send channel full, dropping message", "clientID", c.ID)
		return false
	}
}

// Close safely closes the client's send channel.
// It uses a write lock to prevent other operations during closing.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Send != nil {
		close(c.Send)
		c.Send = nil
	}
}
