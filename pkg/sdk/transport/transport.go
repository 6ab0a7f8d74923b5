package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nicktill/tinytrack/pkg/config"
)

// ErrClosed is returned by Close when the transport was already closed.
var ErrClosed = errors.New("transport: closed")

// Transport delivers one serialized batch, fire-and-forget. Send must not
// block on the network. The return value says whether the payload was
// accepted for delivery, never whether it arrived.
type Transport interface {
	Send(payload []byte) bool
}

// Closer is implemented by transports that hold in-flight work at
// teardown. Close waits for it, bounded by ctx.
type Closer interface {
	Close(ctx context.Context) error
}

// Func adapts an ordinary function to Transport.
type Func func(payload []byte) bool

// Send calls f(payload).
func (f Func) Send(payload []byte) bool { return f(payload) }

// Beacon implements Transport with HTTP POSTs issued on background
// goroutines detached from the caller, the way navigator.sendBeacon
// works: the request outlives the call, the response is never read.
type Beacon struct {
	endpoint string
	client   *http.Client
	logger   *log.Logger
	maxBytes int

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// BeaconOption customizes a Beacon
type BeaconOption func(*Beacon)

// WithHTTPClient replaces the default client (config.BeaconTimeout)
func WithHTTPClient(client *http.Client) BeaconOption {
	return func(b *Beacon) { b.client = client }
}

// WithLogger reports refused and failed beacons
func WithLogger(logger *log.Logger) BeaconOption {
	return func(b *Beacon) { b.logger = logger }
}

// NewBeacon creates a beacon transport for an absolute http(s) endpoint
func NewBeacon(endpoint string, opts ...BeaconOption) (*Beacon, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	b := &Beacon{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: config.BeaconTimeout,
		},
		logger:   log.New(io.Discard, "", 0),
		maxBytes: config.MaxBeaconBytes,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Send queues payload for delivery. It refuses (returns false) payloads
// over config.MaxBeaconBytes and anything sent after Close.
func (b *Beacon) Send(payload []byte) bool {
	if len(payload) > b.maxBytes {
		b.logger.Printf("⚠️  Beacon refused: %d bytes exceeds %d byte limit", len(payload), b.maxBytes)
		return false
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.inflight.Add(1)
	b.mu.Unlock()

	body := make([]byte, len(payload))
	copy(body, payload)

	go func() {
		defer b.inflight.Done()
		if err := b.post(body); err != nil {
			b.logger.Printf("❌ Beacon delivery failed: %v", err)
		}
	}()
	return true
}

// Close stops accepting beacons and waits for in-flight ones, or until
// ctx is done.
func (b *Beacon) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("beacons still in flight: %w", ctx.Err())
	}
}

// post sends one beacon. The context is detached from every caller so a
// flush issued during teardown is still attempted.
func (b *Beacon) post(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// No response is parsed; drain so the connection can be reused. A
	// short read only costs the connection.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (b *Beacon) timeout() time.Duration {
	if b.client.Timeout > 0 {
		return b.client.Timeout
	}
	return config.BeaconTimeout
}
