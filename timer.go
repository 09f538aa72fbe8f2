package cfdp

import "time"

// Timer is a single countdown, armed for a duration and polled by the
// handler's state_machine call rather than delivering an asynchronous
// callback. Handlers never read the wall clock directly; every expiry
// decision goes through a Timer so tests can drive it with a virtual
// clock.
type Timer interface {
	// Reset arms the timer to expire after d, measured from the Factory's
	// current notion of now. Resetting an already-armed timer replaces its
	// deadline.
	Reset(d time.Duration)

	// Stop disarms the timer. Expired reports false after Stop until the
	// next Reset.
	Stop()

	// Expired reports whether the timer is armed and its deadline has
	// passed, as of the Factory's current notion of now.
	Expired() bool
}

// TimerFactory constructs Timers sharing one notion of "now". A real-clock
// factory is used in production; cfdptest provides a virtual-clock factory
// for deterministic tests of Class 2 timeout behavior.
type TimerFactory interface {
	NewTimer() Timer
}

// realTimerFactory is the TimerFactory used when a caller does not supply
// one: each Timer tracks its own deadline against time.Now.
type realTimerFactory struct{}

// NewRealTimerFactory returns a TimerFactory backed by the system clock.
func NewRealTimerFactory() TimerFactory {
	return realTimerFactory{}
}

func (realTimerFactory) NewTimer() Timer {
	return &realTimer{}
}

type realTimer struct {
	armed    bool
	deadline time.Time
}

func (t *realTimer) Reset(d time.Duration) {
	t.armed = true
	t.deadline = time.Now().Add(d)
}

func (t *realTimer) Stop() {
	t.armed = false
}

func (t *realTimer) Expired() bool {
	return t.armed && !time.Now().Before(t.deadline)
}
