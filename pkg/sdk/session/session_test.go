package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/nicktill/tinytrack/pkg/clock"
	"github.com/nicktill/tinytrack/pkg/config"
	"github.com/nicktill/tinytrack/pkg/storage"
	"github.com/nicktill/tinytrack/pkg/storage/badger"
	"github.com/nicktill/tinytrack/pkg/storage/memory"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// flakyKV wraps memory storage and fails on demand
type flakyKV struct {
	*memory.Storage
	mu      sync.Mutex
	getErr  error
	setErr  error
	getRaw  []byte
	setCall int
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getRaw != nil {
		return f.getRaw, nil
	}
	return f.Storage.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCall++
	if f.setErr != nil {
		return f.setErr
	}
	return f.Storage.Set(ctx, key, value)
}

func newStore(kv storage.KV, c clock.Clock) *Store {
	return New(Config{Storage: kv, Clock: c})
}

func TestIDStableWithinTimeout(t *testing.T) {
	c := clock.Fake(epoch)
	store := newStore(memory.New(), c)

	first := store.ID()
	require.NotEmpty(t, first)

	c.Advance(config.SessionTimeout - time.Millisecond)
	require.Equal(t, first, store.ID())
}

func TestIDSlidesWindowOnEveryRead(t *testing.T) {
	c := clock.Fake(epoch)
	store := newStore(memory.New(), c)

	first := store.ID()
	// Three reads, each 20 minutes apart, span an hour but never go idle
	// for a full timeout.
	for i := 0; i < 3; i++ {
		c.Advance(20 * time.Minute)
		require.Equal(t, first, store.ID())
	}
}

func TestIDExpiresAfterInactivity(t *testing.T) {
	c := clock.Fake(epoch)
	store := newStore(memory.New(), c)

	first := store.ID()
	c.Advance(config.SessionTimeout)
	second := store.ID()

	require.NotEqual(t, first, second)
	require.Equal(t, second, store.ID())
}

func TestIDSurvivesPageLoads(t *testing.T) {
	c := clock.Fake(epoch)
	kv := memory.New()

	first := newStore(kv, c).ID()
	c.Advance(time.Minute)

	// A new Store over the same storage is a new page load.
	require.Equal(t, first, newStore(kv, c).ID())
}

func TestIDWritesOnEveryCall(t *testing.T) {
	c := clock.Fake(epoch)
	kv := memory.New()
	store := newStore(kv, c)

	for i := 0; i < 5; i++ {
		store.ID()
	}
	require.Equal(t, 5, kv.Writes())

	raw, err := kv.Get(context.Background(), config.SessionKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"`+store.ID()+`","last":`+strconv.FormatInt(epoch.UnixMilli(), 10)+`}`, string(raw))
}

func TestNewDoesNotTouchStorage(t *testing.T) {
	kv := memory.New()
	newStore(kv, clock.Fake(epoch))
	require.Equal(t, 0, kv.Writes())
}

func TestMalformedPayloadStartsFreshSession(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"wrong shape", `["a","b"]`},
		{"missing id", `{"last":123}`},
		{"wrong types", `{"id":42,"last":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := &flakyKV{Storage: memory.New(), getRaw: []byte(tt.raw)}
			store := newStore(kv, clock.Fake(epoch))

			id := store.ID()
			require.NotEmpty(t, id)
			require.Equal(t, 1, kv.setCall)
		})
	}
}

func TestStorageReadFailureFallsBackToPageLoadSession(t *testing.T) {
	kv := &flakyKV{Storage: memory.New(), getErr: errors.New("quota exceeded")}
	store := newStore(kv, clock.Fake(epoch))

	first := store.ID()
	require.NotEmpty(t, first)
	require.Equal(t, first, store.ID())
	require.Equal(t, 0, kv.setCall)

	// A different page load gets a different fallback.
	require.NotEqual(t, first, newStore(kv, clock.Fake(epoch)).ID())
}

func TestStorageWriteFailureStillReturnsID(t *testing.T) {
	kv := &flakyKV{Storage: memory.New(), setErr: errors.New("read-only")}
	store := newStore(kv, clock.Fake(epoch))

	id := store.ID()
	require.NotEmpty(t, id)

	// Later read failures keep this page load on the id already handed out.
	kv.mu.Lock()
	kv.getErr = errors.New("gone")
	kv.mu.Unlock()
	require.Equal(t, id, store.ID())
}

func TestNilStorage(t *testing.T) {
	store := New(Config{Clock: clock.Fake(epoch)})
	id := store.ID()
	require.NotEmpty(t, id)
	require.Equal(t, id, store.ID())
}

func TestNilBadgerStorage(t *testing.T) {
	// What badger.New returns alongside an error
	var db *badger.Storage

	store := New(Config{Storage: db, Clock: clock.Fake(epoch)})
	id := store.ID()
	require.NotEmpty(t, id)
	require.Equal(t, id, store.ID())
}

// panickyKV blows up on every call
type panickyKV struct{}

func (panickyKV) Get(ctx context.Context, key string) ([]byte, error) { panic("get") }

func (panickyKV) Set(ctx context.Context, key string, value []byte) error { panic("set") }

func (panickyKV) Close() error { return nil }

func TestPanickingStorageFallsBackToPageLoadSession(t *testing.T) {
	store := New(Config{Storage: panickyKV{}, Clock: clock.Fake(epoch)})

	id := store.ID()
	require.NotEmpty(t, id)
	require.Equal(t, id, store.ID())
}
