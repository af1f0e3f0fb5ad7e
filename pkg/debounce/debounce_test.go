package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBurstCoalescesToOneFire(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	d := New(func() { fired++ }, WithClock(clock), WithWindow(300*time.Millisecond))

	for i := 0; i < 10; i++ {
		d.Trigger()
		clock.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, 0, fired)

	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestQuietWindowBetweenBurstsFiresTwice(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	d := New(func() { fired++ }, WithClock(clock), WithWindow(300*time.Millisecond))

	d.Trigger()
	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, 1, fired)

	d.Trigger()
	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, 2, fired)
}

func TestTriggerRestartsWindow(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	d := New(func() { fired++ }, WithClock(clock), WithWindow(300*time.Millisecond))

	d.Trigger()
	clock.Advance(299 * time.Millisecond)
	d.Trigger()
	clock.Advance(299 * time.Millisecond)
	assert.Equal(t, 0, fired)

	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestStopCancelsPendingFire(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	d := New(func() { fired++ }, WithClock(clock))

	d.Trigger()
	assert.True(t, d.Pending())
	d.Stop()
	clock.Advance(time.Hour)
	assert.Equal(t, 0, fired)
}

func TestTriggerAfterStopIsIgnored(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	d := New(func() { fired++ }, WithClock(clock))

	d.Stop()
	d.Trigger()
	clock.Advance(time.Hour)
	assert.Equal(t, 0, fired)
	assert.False(t, d.Pending())
}

func TestFlushRunsPendingFireImmediately(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	d := New(func() { fired++ }, WithClock(clock), WithWindow(300*time.Millisecond))

	d.Trigger()
	d.Flush()
	assert.Equal(t, 1, fired)
	assert.False(t, d.Pending())

	// The flushed fire consumed the pending timer; the window elapsing
	// afterwards must not fire again.
	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestFlushWithNothingPendingIsNoop(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	d := New(func() { fired++ }, WithClock(clock))

	d.Flush()
	assert.Equal(t, 0, fired)

	d.Trigger()
	clock.Advance(DefaultWindow)
	assert.Equal(t, 1, fired)
	d.Flush()
	assert.Equal(t, 1, fired)
}

func TestFlushAfterStopIsIgnored(t *testing.T) {
	clock := NewManualClock()
	fired := 0
	d := New(func() { fired++ }, WithClock(clock))

	d.Trigger()
	d.Stop()
	d.Flush()
	clock.Advance(time.Hour)
	assert.Equal(t, 0, fired)
}

func TestPending(t *testing.T) {
	clock := NewManualClock()
	d := New(func() {}, WithClock(clock), WithWindow(300*time.Millisecond))

	assert.False(t, d.Pending())
	d.Trigger()
	assert.True(t, d.Pending())
	clock.Advance(300 * time.Millisecond)
	assert.False(t, d.Pending())
}

func TestRealClockFires(t *testing.T) {
	done := make(chan struct{})
	d := New(func() { close(done) }, WithWindow(5*time.Millisecond))
	d.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounce never fired on the real clock")
	}
}
