// Package debounce coalesces bursts of events into a single action: each
// trigger (re)arms a timer, and the action runs only once a full quiet
// window has passed with no further triggers.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the quiet period the table view waits for before
// issuing a fetch.
const DefaultWindow = 300 * time.Millisecond

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the callback was still
	// pending; a false return means it already fired or was stopped.
	Stop() bool
}

// Clock schedules callbacks. The real clock delegates to time.AfterFunc;
// tests inject a manual clock so no wall time passes.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Debouncer runs fn once per settled burst of Trigger calls.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	clock   Clock
	fn      func()
	timer   Timer
	gen     uint64
	stopped bool
}

// Option customizes a Debouncer.
type Option func(*Debouncer)

// WithWindow overrides the quiet window.
func WithWindow(d time.Duration) Option {
	return func(db *Debouncer) { db.window = d }
}

// WithClock injects a clock, used by tests.
func WithClock(c Clock) Option {
	return func(db *Debouncer) { db.clock = c }
}

// New returns a Debouncer invoking fn after each settled burst.
func New(fn func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		window: DefaultWindow,
		clock:  realClock{},
		fn:     fn,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger records an event. Any pending timer is cancelled and a fresh
// window starts; fn runs only if no further Trigger arrives within it.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

// fire runs fn unless the timer that scheduled it was superseded or the
// debouncer was stopped in the meantime.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Flush short-circuits the quiet window: a pending fire runs right away
// on the caller's goroutine instead of waiting out the timer. With
// nothing pending, or after Stop, it does nothing.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.stopped || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.timer = nil
	// Invalidate a timer callback that already won the race to fire.
	d.gen++
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending timer and prevents every future fire. It is
// safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a fire is currently scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
