package transport

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nicktill/tinytrack/pkg/config"
)

// WebSocket implements Transport over one long-lived connection. Each
// batch becomes one text frame written by a single writer goroutine.
// When the send buffer is full the batch is refused rather than queued.
type WebSocket struct {
	conn   *websocket.Conn
	out    chan []byte
	done   chan struct{}
	logger *log.Logger

	mu     sync.Mutex
	closed bool
}

// DialWebSocket connects to a ws:// or wss:// collection endpoint
func DialWebSocket(ctx context.Context, endpoint string, logger *log.Logger) (*WebSocket, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: config.WSHandshakeLimit,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	ws := &WebSocket{
		conn:   conn,
		out:    make(chan []byte, config.WSSendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	go ws.writeLoop()
	go ws.readLoop()
	return ws, nil
}

// Send queues one frame. It returns false after Close or when the
// buffer is full.
func (w *WebSocket) Send(payload []byte) bool {
	frame := make([]byte, len(payload))
	copy(frame, payload)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}

	select {
	case w.out <- frame:
		return true
	default:
		w.logger.Printf("⚠️  WebSocket send buffer full, dropping %d byte batch", len(payload))
		return false
	}
}

// Close flushes buffered frames, sends a close frame and waits for the
// writer to finish, or until ctx is done.
func (w *WebSocket) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.closed = true
	close(w.out)
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.conn.Close()
		return fmt.Errorf("websocket writer did not drain: %w", ctx.Err())
	}
}

func (w *WebSocket) writeLoop() {
	defer close(w.done)
	defer w.conn.Close()

	broken := false
	for frame := range w.out {
		if broken {
			continue
		}
		// A failed deadline surfaces as the write error below
		_ = w.conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
		if err := w.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			w.logger.Printf("❌ WebSocket write failed, dropping further batches: %v", err)
			broken = true
		}
	}

	if !broken {
		// Best effort: the connection is closed right after either way
		_ = w.conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
		_ = w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

// readLoop keeps control frames (ping, close) flowing. Data frames from
// the endpoint are ignored.
func (w *WebSocket) readLoop() {
	for {
		if _, _, err := w.conn.NextReader(); err != nil {
			return
		}
	}
}
