package sdk

import (
	"context"
	"io"
	"log"
	"reflect"
	"sync"

	"github.com/nicktill/tinytrack/pkg/clock"
	"github.com/nicktill/tinytrack/pkg/config"
	"github.com/nicktill/tinytrack/pkg/sdk/batch"
	"github.com/nicktill/tinytrack/pkg/sdk/events"
	"github.com/nicktill/tinytrack/pkg/sdk/session"
	"github.com/nicktill/tinytrack/pkg/sdk/sources"
	"github.com/nicktill/tinytrack/pkg/sdk/transport"
	"github.com/nicktill/tinytrack/pkg/storage"
)

// Config holds everything the embedding page supplies
type Config struct {
	// ProjectID identifies the deployment. Empty disables the collector.
	ProjectID string

	// Host is the page being observed. Nil disables the collector.
	Host sources.Host

	// Transport delivers batches fire-and-forget. Nil means the host has
	// no teardown-safe delivery primitive, which disables the collector.
	Transport transport.Transport

	// Storage persists the session across page loads. Nil (or a failing
	// backend) degrades to one session per page load.
	Storage storage.KV

	// Clock defaults to clock.Real()
	Clock clock.Clock

	// Logger receives debug output. Nil discards it; the host page never
	// sees anything from the collector.
	Logger *log.Logger
}

// Collector is the one per-page-load instance that owns the queue, the
// flush timer, the session store and the host subscription.
type Collector struct {
	enabled   bool
	projectID string
	host      sources.Host
	transport transport.Transport
	clock     clock.Clock
	logger    *log.Logger

	sessions  *session.Store
	queue     *batch.Queue
	scheduler *batch.Scheduler

	mu      sync.Mutex
	started bool
	stopped bool
	unbind  func()
}

// New builds a collector. When a required capability is missing the
// returned collector is disabled: every method is a no-op and neither
// the host nor storage is ever touched.
func New(cfg Config) *Collector {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	c := &Collector{logger: cfg.Logger}

	switch {
	case cfg.ProjectID == "":
		c.logger.Println("⏸️  No project id; collector disabled")
		return c
	case isNil(cfg.Transport):
		c.logger.Println("⏸️  No beacon transport available; collector disabled")
		return c
	case isNil(cfg.Host):
		c.logger.Println("⏸️  No host page; collector disabled")
		return c
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}

	c.enabled = true
	c.projectID = cfg.ProjectID
	c.host = cfg.Host
	c.transport = cfg.Transport
	c.clock = cfg.Clock
	c.sessions = session.New(session.Config{
		Storage: cfg.Storage,
		Clock:   cfg.Clock,
		Logger:  cfg.Logger,
	})
	c.queue = batch.NewQueue(config.BatchSize)
	c.scheduler = batch.NewScheduler(c.queue, cfg.Transport, batch.Config{
		FlushInterval: config.FlushInterval,
		Clock:         cfg.Clock,
		Logger:        cfg.Logger,
	})
	return c
}

// isNil also reports interfaces wrapping a nil pointer, such as the
// *transport.Beacon that NewBeacon returns with an error.
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

// Enabled reports whether the collector is capturing events
func (c *Collector) Enabled() bool {
	return c.enabled
}

// Start subscribes to the host and records the initial pageview. Calling
// it again, or after Stop, does nothing.
func (c *Collector) Start() {
	if !c.enabled {
		return
	}
	defer c.swallow("start")

	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	unbind := sources.Bind(c.host, c)

	c.mu.Lock()
	c.unbind = unbind
	c.mu.Unlock()

	c.logger.Printf("🚀 Collector started for project %s on %s", c.projectID, c.host.Path())
	c.Track(events.PageView, nil)
}

// Track records one event of the given type. The session id, page,
// referrer and timestamp are attached here.
func (c *Collector) Track(eventType events.Type, extras events.Extras) {
	if !c.enabled {
		return
	}
	defer c.swallow("track")

	record := events.New(events.Context{
		ProjectID: c.projectID,
		SessionID: c.sessions.ID(),
		Page:      c.host.Path(),
		Referrer:  c.host.Referrer(),
		Time:      c.clock.Now(),
	}, eventType, extras)

	if c.queue.Append(record) {
		c.scheduler.FlushNow()
	}
	c.scheduler.EnsureScheduled()
}

// Flush sends everything queued right now, bypassing the timer.
func (c *Collector) Flush() {
	if !c.enabled {
		return
	}
	defer c.swallow("flush")

	c.scheduler.FlushNow()
}

// SessionID returns the current session id (renewing it, like any
// event would). Disabled collectors return "".
func (c *Collector) SessionID() (id string) {
	if !c.enabled {
		return ""
	}
	defer c.swallow("session")

	return c.sessions.ID()
}

// Pending returns the number of queued, unsent events
func (c *Collector) Pending() int {
	if !c.enabled {
		return 0
	}
	return c.queue.Len()
}

// Stop unsubscribes from the host, flushes what is queued and, when the
// transport holds in-flight deliveries, waits for them until ctx is done.
func (c *Collector) Stop(ctx context.Context) (err error) {
	if !c.enabled {
		return nil
	}
	defer c.swallow("stop")

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	unbind := c.unbind
	c.unbind = nil
	c.mu.Unlock()

	if unbind != nil {
		unbind()
	}
	c.scheduler.FlushNow()

	if closer, ok := c.transport.(transport.Closer); ok {
		if err := closer.Close(ctx); err != nil {
			c.logger.Printf("⚠️  Transport did not drain: %v", err)
			return err
		}
	}
	c.logger.Println("👋 Collector stopped")
	return nil
}

// swallow is deferred by every entry point so that nothing the collector
// does can fail the host page.
func (c *Collector) swallow(op string) {
	if r := recover(); r != nil {
		c.logger.Printf("❌ Recovered panic in %s: %v", op, r)
	}
}
