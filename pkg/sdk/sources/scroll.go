package sources

import (
	"math"
	"sync"

	"github.com/nicktill/tinytrack/pkg/config"
)

// ScrollTracker reports scroll depth thresholds (25, 50, 75, 100). Each
// threshold is reported at most once and never after a deeper one; only
// a new tracker (a full page reload) starts over.
type ScrollTracker struct {
	step int

	mu   sync.Mutex
	mark int
}

// NewScrollTracker creates a tracker using config.ScrollStep
func NewScrollTracker() *ScrollTracker {
	return &ScrollTracker{step: config.ScrollStep}
}

// Observe returns the thresholds newly crossed by v, shallowest first.
func (s *ScrollTracker) Observe(v Viewport) []int {
	percent, ok := Depth(v)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var crossed []int
	for next := s.mark + s.step; next <= percent; next += s.step {
		crossed = append(crossed, next)
		s.mark = next
	}
	return crossed
}

// Mark returns the deepest threshold reported so far
func (s *ScrollTracker) Mark() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mark
}

// Depth converts viewport geometry to a whole percentage of the page
// seen, capped at 100. Pages with no height have no depth.
func Depth(v Viewport) (int, bool) {
	if v.ScrollHeight <= 0 {
		return 0, false
	}
	ratio := (v.ScrollY + v.InnerHeight) / v.ScrollHeight
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio < 0 {
		return 0, false
	}
	percent := int(math.Floor(ratio * 100))
	if percent > 100 {
		percent = 100
	}
	return percent, true
}
