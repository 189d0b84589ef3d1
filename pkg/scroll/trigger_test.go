package scroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigger_FiresOncePerCrossing(t *testing.T) {
	fired := 0
	trig := New(200, nil, func() { fired++ })

	// Far from the end: nothing
	trig.Observe(0, 500, 2000)
	assert.Equal(t, 0, fired)

	// Crossing the threshold fires once
	trig.Observe(1350, 500, 2000) // remaining = 150
	assert.Equal(t, 1, fired)

	// Further samples inside the threshold do not re-fire
	trig.Observe(1400, 500, 2000)
	trig.Observe(1500, 500, 2000)
	assert.Equal(t, 1, fired)
}

func TestTrigger_RearmsWhenScrolledBackUp(t *testing.T) {
	fired := 0
	trig := New(200, nil, func() { fired++ })

	trig.Observe(1350, 500, 2000)
	assert.Equal(t, 1, fired)

	// Scroll back above the threshold, then down again
	trig.Observe(100, 500, 2000)
	trig.Observe(1350, 500, 2000)
	assert.Equal(t, 2, fired)
}

func TestTrigger_RearmsAfterContentGrew(t *testing.T) {
	fired := 0
	trig := New(200, nil, func() { fired++ })

	trig.Observe(1350, 500, 2000)
	assert.Equal(t, 1, fired)

	// A new page was appended; same position is near the end of the old
	// content but the trigger is re-armed for the new extent.
	trig.ContentGrew()
	trig.Observe(2350, 500, 3000)
	assert.Equal(t, 2, fired)
}

func TestTrigger_GateSuppressesWithoutDisarming(t *testing.T) {
	fired := 0
	allow := false
	trig := New(200, func() bool { return allow }, func() { fired++ })

	// Gate closed: no fire, but the crossing is not consumed
	trig.Observe(1350, 500, 2000)
	assert.Equal(t, 0, fired)

	// Gate opens: the same proximity now fires
	allow = true
	trig.Observe(1360, 500, 2000)
	assert.Equal(t, 1, fired)
}

func TestTrigger_DefaultThreshold(t *testing.T) {
	trig := New(0, nil, func() {})
	assert.Equal(t, DefaultThreshold, trig.threshold)
}

func TestTrigger_NilCallbackIsSafe(t *testing.T) {
	trig := New(200, nil, nil)
	assert.NotPanics(t, func() {
		trig.Observe(1350, 500, 2000)
	})
}
