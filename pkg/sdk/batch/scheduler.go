package batch

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/nicktill/tinytrack/pkg/clock"
	"github.com/nicktill/tinytrack/pkg/config"
	"github.com/nicktill/tinytrack/pkg/sdk/events"
	"github.com/nicktill/tinytrack/pkg/sdk/transport"
)

// State of the deferred flush timer
type State int

const (
	// Idle means no deferred flush is armed
	Idle State = iota
	// Pending means exactly one deferred flush is armed
	Pending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Config holds configuration for the scheduler
type Config struct {
	FlushInterval time.Duration // default config.FlushInterval
	Clock         clock.Clock
	Logger        *log.Logger
}

// Scheduler decides when the queue is handed to the transport: now
// (queue full, page hidden, unload) or after FlushInterval (debounced).
//
// At most one deferred flush is armed at a time. Forced flushes never
// cancel it; if it later fires on an empty queue nothing is sent.
type Scheduler struct {
	queue     *Queue
	transport transport.Transport
	clock     clock.Clock
	interval  time.Duration
	logger    *log.Logger

	mu    sync.Mutex
	state State

	sends int
}

// NewScheduler creates a scheduler in the Idle state
func NewScheduler(queue *Queue, trans transport.Transport, cfg Config) *Scheduler {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = config.FlushInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	return &Scheduler{
		queue:     queue,
		transport: trans,
		clock:     cfg.Clock,
		interval:  cfg.FlushInterval,
		logger:    cfg.Logger,
		state:     Idle,
	}
}

// EnsureScheduled arms the deferred flush unless one is already pending.
func (s *Scheduler) EnsureScheduled() {
	s.mu.Lock()
	if s.state == Pending {
		s.mu.Unlock()
		return
	}
	s.state = Pending
	s.mu.Unlock()

	s.clock.AfterFunc(s.interval, s.fire)
}

// State returns whether a deferred flush is armed
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FlushNow drains the queue and hands a non-empty batch to the
// transport. It reports whether a send was attempted. It does not touch
// the timer state.
func (s *Scheduler) FlushNow() bool {
	batch := s.queue.Drain()
	if len(batch) == 0 {
		return false
	}

	payload, err := events.EncodeBatch(batch)
	if err != nil {
		s.logger.Printf("❌ Dropping %d events: %v", len(batch), err)
		return false
	}

	s.mu.Lock()
	s.sends++
	s.mu.Unlock()

	if !s.transport.Send(payload) {
		s.logger.Printf("⚠️  Transport refused batch of %d events (%d bytes)", len(batch), len(payload))
		return true
	}
	s.logger.Printf("📤 Sent batch of %d events (%d bytes)", len(batch), len(payload))
	return true
}

// Sends returns how many batches have been handed to the transport
func (s *Scheduler) Sends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends
}

// fire runs on the timer. The scheduler is Idle before the flush starts,
// so an event appended while the batch is in flight arms a fresh timer
// instead of being stranded behind a stale Pending. A panicking flush is
// swallowed so it cannot take down the timer goroutine.
func (s *Scheduler) fire() {
	s.mu.Lock()
	s.state = Idle
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("❌ Deferred flush panicked: %v", r)
		}
	}()

	s.FlushNow()
}
