package sources

import (
	"github.com/nicktill/tinytrack/pkg/sdk/events"
)

// Visibility mirrors document.visibilityState
type Visibility string

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "hidden"
)

// Target is the element a click landed on
type Target struct {
	Tag   string
	ID    string
	Class string
}

// Viewport is the scroll geometry at the time of a scroll signal
type Viewport struct {
	ScrollY      float64
	InnerHeight  float64
	ScrollHeight float64
}

// Listener receives page signals from a Host. Callbacks must be cheap:
// hosts call them from their event loop.
type Listener interface {
	// OnNavigate fires for programmatic route changes and back/forward
	// navigation, after the host's Path has changed.
	OnNavigate()
	OnClick(Target)
	OnScroll(Viewport)
	OnVisibilityChange(Visibility)
	OnPageHide()
	OnUnload()
}

// Host is the page environment the collector observes. Hosts report
// navigation through OnNavigate instead of having their history
// primitives wrapped.
type Host interface {
	// Path is the current location path
	Path() string
	// Referrer is the document referrer
	Referrer() string
	// AddListener subscribes l and returns a function that removes it
	AddListener(l Listener) (remove func())
}

// Sink is what sources feed: the collector.
type Sink interface {
	Track(eventType events.Type, extras events.Extras)
	Flush()
}

// Bind subscribes a listener on host that turns page signals into sink
// calls. It returns the unsubscribe function.
func Bind(host Host, sink Sink) (remove func()) {
	return host.AddListener(&binding{sink: sink, scroll: NewScrollTracker()})
}

type binding struct {
	sink   Sink
	scroll *ScrollTracker
}

func (b *binding) OnNavigate() {
	b.sink.Track(events.PageView, nil)
}

func (b *binding) OnClick(t Target) {
	b.sink.Track(events.Click, events.ClickExtras(t.Tag, t.ID, t.Class))
}

func (b *binding) OnScroll(v Viewport) {
	for _, percent := range b.scroll.Observe(v) {
		b.sink.Track(events.Scroll, events.ScrollExtras(percent))
	}
}

func (b *binding) OnVisibilityChange(v Visibility) {
	if v == Hidden {
		b.sink.Flush()
	}
}

func (b *binding) OnPageHide() { b.sink.Flush() }

func (b *binding) OnUnload() { b.sink.Flush() }
