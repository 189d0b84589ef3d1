package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects emitted values behind a lock.
type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) emit(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, text)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

func TestCoalescer_EmitsOnlyLastValueInWindow(t *testing.T) {
	rec := &recorder{}
	c := New(50*time.Millisecond, rec.emit)
	defer c.Stop()

	// Three rapid edits inside one window
	c.OnChange("a")
	time.Sleep(10 * time.Millisecond)
	c.OnChange("ab")
	time.Sleep(10 * time.Millisecond)
	c.OnChange("abc")

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"abc"}, rec.snapshot())

	// Nothing else fires after the window
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"abc"}, rec.snapshot())
}

func TestCoalescer_TrimsEmittedText(t *testing.T) {
	rec := &recorder{}
	c := New(20*time.Millisecond, rec.emit)
	defer c.Stop()

	c.OnChange("  apple  ")

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "apple", rec.snapshot()[0])
}

func TestCoalescer_SeparateWindowsFireSeparately(t *testing.T) {
	rec := &recorder{}
	c := New(20*time.Millisecond, rec.emit)
	defer c.Stop()

	c.OnChange("first")
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	c.OnChange("second")
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"first", "second"}, rec.snapshot())
}

func TestCoalescer_StopSuppressesPendingEmission(t *testing.T) {
	rec := &recorder{}
	c := New(30*time.Millisecond, rec.emit)

	c.OnChange("doomed")
	c.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestCoalescer_StoppedIgnoresFurtherChanges(t *testing.T) {
	rec := &recorder{}
	c := New(10*time.Millisecond, rec.emit)
	c.Stop()

	c.OnChange("ignored")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestNew_DefaultDelay(t *testing.T) {
	c := New(0, func(string) {})
	defer c.Stop()
	assert.Equal(t, DefaultDelay, c.delay)
}
