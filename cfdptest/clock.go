// Package cfdptest provides test fixtures for packages that drive
// cfdp.SourceHandler and cfdp.DestinationHandler: a virtual clock timer
// factory for deterministic Class 2 timeout tests, and an Indications
// recorder for asserting on the callback sequence a transaction produced.
package cfdptest

import (
	"sync"
	"time"

	"github.com/marmos91/cfdpgo"
)

// VirtualClock is a cfdp.TimerFactory whose notion of "now" only advances
// when the test calls Advance. Every Timer it creates shares the clock.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtualClock returns a VirtualClock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// Advance moves the clock forward by d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTimer implements cfdp.TimerFactory.
func (c *VirtualClock) NewTimer() cfdp.Timer {
	return &virtualTimer{clock: c}
}

type virtualTimer struct {
	clock    *VirtualClock
	armed    bool
	deadline time.Time
}

func (t *virtualTimer) Reset(d time.Duration) {
	t.armed = true
	t.deadline = t.clock.Now().Add(d)
}

func (t *virtualTimer) Stop() {
	t.armed = false
}

func (t *virtualTimer) Expired() bool {
	return t.armed && !t.clock.Now().Before(t.deadline)
}

var _ cfdp.TimerFactory = (*VirtualClock)(nil)
