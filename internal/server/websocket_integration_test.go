package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	ws "github.com/nfrund/causal/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests dial the stream with gorilla/websocket, the way a browser-style
// client would, with an Origin header set.

func dialStream(t *testing.T, ctx context.Context, url, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	header.Set("Origin", origin)
	return websocket.DefaultDialer.DialContext(ctx, url, header)
}

func TestWebSocketAllowedOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.CORSAllowOrigins = []string{"http://localhost:3000"}
	s := newTestServer(t, cfg, nil)
	httpServer := httptest.NewServer(s.E)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws/topics"
	conn, _, err := dialStream(t, ctx, wsURL, "http://localhost:3000")
	require.NoError(t, err)
	defer func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello ws.Frame
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "subscribed", hello.Type)

	rec := do(t, s, http.MethodPost, "/topics", `{"title":"Mediators","content":"On the path","tags":[]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var frame ws.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "topic.created", frame.Type)
	assert.Equal(t, int64(1), frame.TopicID)

	rec = do(t, s, http.MethodPut, "/topics/1", `{"title":"Mediators","content":"Updated","tags":["paths"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "topic.updated", frame.Type)
	assert.JSONEq(t, `{"id":1,"title":"Mediators","content":"Updated","tags":["paths"]}`, string(frame.Topic))
}

func TestWebSocketRejectedOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.CORSAllowOrigins = []string{"http://localhost:3000"}
	s := newTestServer(t, cfg, nil)
	httpServer := httptest.NewServer(s.E)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws/topics"
	conn, resp, err := dialStream(t, ctx, wsURL, "http://evil.example")
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, s.Stream.Clients())
}

func TestWebSocketShutdownClosesClients(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	httpServer := httptest.NewServer(s.E)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws/topics"
	conn, _, err := dialStream(t, ctx, wsURL, httpServer.URL)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello ws.Frame
	require.NoError(t, conn.ReadJSON(&hello))

	s.Stream.Close()

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
