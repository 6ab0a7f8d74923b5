package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// wsSink accepts one connection and forwards every text frame
func wsSink(t *testing.T) (*httptest.Server, <-chan string) {
	t.Helper()
	frames := make(chan string, 100)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				close(frames)
				return
			}
			if kind == websocket.TextMessage {
				frames <- string(data)
			}
		}
	}))
	return server, frames
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocket_SendDeliversFramesInOrder(t *testing.T) {
	server, frames := wsSink(t)
	defer server.Close()

	ws, err := DialWebSocket(context.Background(), wsURL(server), nil)
	require.NoError(t, err)

	require.True(t, ws.Send([]byte(`[{"n":1}]`)))
	require.True(t, ws.Send([]byte(`[{"n":2}]`)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ws.Close(ctx))

	var got []string
	for frame := range frames {
		got = append(got, frame)
	}
	require.Equal(t, []string{`[{"n":1}]`, `[{"n":2}]`}, got)
}

func TestWebSocket_SendAfterClose(t *testing.T) {
	server, _ := wsSink(t)
	defer server.Close()

	ws, err := DialWebSocket(context.Background(), wsURL(server), nil)
	require.NoError(t, err)
	require.NoError(t, ws.Close(context.Background()))

	require.False(t, ws.Send([]byte("[]")))
	require.True(t, errors.Is(ws.Close(context.Background()), ErrClosed))
}

func TestWebSocket_DialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := DialWebSocket(ctx, "ws://localhost:1/v1/collect", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to dial")
}
