// Package debounce coalesces a rapid stream of text-change events into a
// single trailing event after a quiet period.
package debounce

import (
	"strings"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before the coalesced event fires.
const DefaultDelay = 400 * time.Millisecond

// Coalescer records the latest text on every change and emits the trimmed
// value to its listener once no further change arrives within the delay.
// Only the last change within any delay window fires. A stopped Coalescer
// never emits.
type Coalescer struct {
	mu      sync.Mutex
	delay   time.Duration
	emit    func(text string)
	timer   *time.Timer
	pending string
	stopped bool
}

// New creates a Coalescer firing emit after delay. A non-positive delay
// selects DefaultDelay.
func New(delay time.Duration, emit func(text string)) *Coalescer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Coalescer{
		delay: delay,
		emit:  emit,
	}
}

// OnChange records text and restarts the trailing timer. Any previously
// pending emission is cancelled first.
func (c *Coalescer) OnChange(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	c.pending = text
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
}

// fire runs on the timer goroutine. The stopped check under the lock
// guarantees no emission after Stop, even when the timer already expired.
func (c *Coalescer) fire() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	text := strings.TrimSpace(c.pending)
	c.timer = nil
	c.mu.Unlock()

	c.emit(text)
}

// Stop cancels any pending timer and suppresses all further emissions.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
