package sources

import "sync"

// SimHost is an in-process Host driven by method calls instead of a
// browser. It backs tests and headless replays of a visit.
type SimHost struct {
	mu        sync.Mutex
	path      string
	referrer  string
	history   []string
	listeners map[int]Listener
	nextID    int
}

// NewSimHost creates a host that has just loaded path from referrer
func NewSimHost(path, referrer string) *SimHost {
	return &SimHost{
		path:      path,
		referrer:  referrer,
		history:   []string{path},
		listeners: make(map[int]Listener),
	}
}

// Path implements Host
func (h *SimHost) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path
}

// Referrer implements Host
func (h *SimHost) Referrer() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.referrer
}

// AddListener implements Host
func (h *SimHost) AddListener(l Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// ListenerCount returns the number of subscribed listeners
func (h *SimHost) ListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// PushState performs a client-side route change to path
func (h *SimHost) PushState(path string) {
	h.mu.Lock()
	h.path = path
	h.history = append(h.history, path)
	h.mu.Unlock()

	h.each(func(l Listener) { l.OnNavigate() })
}

// Back navigates to the previous history entry, if any
func (h *SimHost) Back() {
	h.mu.Lock()
	if len(h.history) < 2 {
		h.mu.Unlock()
		return
	}
	h.history = h.history[:len(h.history)-1]
	h.path = h.history[len(h.history)-1]
	h.mu.Unlock()

	h.each(func(l Listener) { l.OnNavigate() })
}

// Click dispatches a click on t
func (h *SimHost) Click(t Target) {
	h.each(func(l Listener) { l.OnClick(t) })
}

// Scroll dispatches a scroll signal with geometry v
func (h *SimHost) Scroll(v Viewport) {
	h.each(func(l Listener) { l.OnScroll(v) })
}

// SetVisibility dispatches a visibility change
func (h *SimHost) SetVisibility(v Visibility) {
	h.each(func(l Listener) { l.OnVisibilityChange(v) })
}

// PageHide dispatches pagehide
func (h *SimHost) PageHide() {
	h.each(func(l Listener) { l.OnPageHide() })
}

// Unload dispatches beforeunload
func (h *SimHost) Unload() {
	h.each(func(l Listener) { l.OnUnload() })
}

// each calls f for every listener outside the host lock, so listeners
// may call back into the host.
func (h *SimHost) each(f func(Listener)) {
	h.mu.Lock()
	snapshot := make([]Listener, 0, len(h.listeners))
	for id := 0; id < h.nextID; id++ {
		if l, ok := h.listeners[id]; ok {
			snapshot = append(snapshot, l)
		}
	}
	h.mu.Unlock()

	for _, l := range snapshot {
		f(l)
	}
}
