// Package scroll signals when the user scrolls near the end of the loaded
// list, once per threshold crossing.
package scroll

import "sync"

// DefaultThreshold is the remaining scrollable distance below which the
// near-end signal fires.
const DefaultThreshold = 200.0

// Trigger watches scroll geometry and fires its callback when the remaining
// distance drops below the threshold. It fires once per crossing: after
// firing it stays disarmed until the user scrolls back above the threshold
// or ContentGrew is called after a page append. The gate lets the owner
// suppress firing while a fetch is running or when no more pages exist.
type Trigger struct {
	mu        sync.Mutex
	threshold float64
	gate      func() bool
	onNearEnd func()
	armed     bool
}

// New creates an armed Trigger. A non-positive threshold selects
// DefaultThreshold. A nil gate always allows firing.
func New(threshold float64, gate func() bool, onNearEnd func()) *Trigger {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Trigger{
		threshold: threshold,
		gate:      gate,
		onNearEnd: onNearEnd,
		armed:     true,
	}
}

// Observe consumes one scroll sample: current offset, viewport extent, and
// total content extent. It fires the near-end callback at most once per
// threshold crossing.
func (t *Trigger) Observe(offset, viewport, content float64) {
	t.mu.Lock()

	remaining := content - viewport - offset

	if remaining > t.threshold {
		// Back above the threshold: re-arm for the next crossing.
		t.armed = true
		t.mu.Unlock()
		return
	}

	if !t.armed {
		t.mu.Unlock()
		return
	}

	if t.gate != nil && !t.gate() {
		t.mu.Unlock()
		return
	}

	t.armed = false
	fire := t.onNearEnd
	t.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// ContentGrew re-arms the trigger after a page append extended the content.
func (t *Trigger) ContentGrew() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
}
