package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nicktill/tinytrack/pkg/clock"
	"github.com/nicktill/tinytrack/pkg/config"
	"github.com/nicktill/tinytrack/pkg/storage"
)

// record is the persisted form: {"id": "...", "last": epoch-millis}
type record struct {
	ID   string `json:"id"`
	Last int64  `json:"last"`
}

// Config holds configuration for the session store
type Config struct {
	// Storage may be nil when the host has no durable storage
	Storage storage.KV
	Clock   clock.Clock
	Logger  *log.Logger

	Key     string        // default config.SessionKey
	Timeout time.Duration // default config.SessionTimeout
}

// Store hands out a session id that stays stable across page loads until
// the visitor has been idle for Timeout. Every ID call slides the window.
type Store struct {
	kv      storage.KV
	clock   clock.Clock
	logger  *log.Logger
	key     string
	timeout time.Duration

	mu       sync.Mutex
	fallback string
}

// New creates a session store. It does not touch storage.
func New(cfg Config) *Store {
	if cfg.Key == "" {
		cfg.Key = config.SessionKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.SessionTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if isNil(cfg.Storage) {
		// A nil *badger.Storage from a failed badger.New lands here
		cfg.Storage = nil
	}

	return &Store{
		kv:       cfg.Storage,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		key:      cfg.Key,
		timeout:  cfg.Timeout,
		fallback: uuid.NewString(),
	}
}

// ID returns the current session id, renewing or replacing the persisted
// session. It never fails: when storage is unusable it returns an id that
// is unique to this page load.
func (s *Store) ID() (id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv == nil {
		return s.fallback
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("⚠️  Session storage panicked, using page-load session: %v", r)
			id = s.fallback
		}
	}()

	ctx := context.Background()
	now := s.clock.Now().UnixMilli()

	current, err := s.load(ctx)
	if err != nil {
		s.logger.Printf("⚠️  Session storage unavailable, using page-load session: %v", err)
		return s.fallback
	}

	if current != nil && now-current.Last < s.timeout.Milliseconds() {
		current.Last = now
		if err := s.save(ctx, *current); err != nil {
			s.logger.Printf("⚠️  Failed to renew session: %v", err)
		}
		return current.ID
	}

	fresh := record{ID: uuid.NewString(), Last: now}
	if err := s.save(ctx, fresh); err != nil {
		s.logger.Printf("⚠️  Failed to persist new session: %v", err)
		s.fallback = fresh.ID
	}
	return fresh.ID
}

// load returns nil, nil when there is no usable session.
func (s *Store) load(ctx context.Context) (*record, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r record
	if err := json.Unmarshal(raw, &r); err != nil || r.ID == "" {
		s.logger.Printf("⚠️  Discarding malformed session payload %q", raw)
		return nil, nil
	}
	return &r, nil
}

func (s *Store) save(ctx context.Context, r record) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, raw)
}

// isNil catches interfaces holding a nil pointer, which == nil misses
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
