// Package simulation runs DEVS model trees built with the modeling package.
package simulation

import (
	"math"
	"sync"
)

// Clock is the simulation time shared by every processor of one run.
//
// Only the goroutine that drives the run writes the clock. The lock lets
// observers, such as the monitor, read it while the run is in progress.
type Clock struct {
	lock          sync.RWMutex
	time          float64
	lastEventTime float64
	nextEventTime float64
}

// NewClock creates a clock that starts at the given time with nothing
// scheduled.
func NewClock(initialTime float64) *Clock {
	return &Clock{
		time:          initialTime,
		lastEventTime: initialTime,
		nextEventTime: math.Inf(1),
	}
}

// Time returns the current simulation time.
func (c *Clock) Time() float64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.time
}

// SetTime moves the current simulation time.
func (c *Clock) SetTime(t float64) {
	c.lock.Lock()
	c.time = t
	c.lock.Unlock()
}

// LastEventTime returns the time of the last transition of the root model.
func (c *Clock) LastEventTime() float64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.lastEventTime
}

// NextEventTime returns the earliest scheduled time of the root model.
func (c *Clock) NextEventTime() float64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.nextEventTime
}

func (c *Clock) setEventTimes(tL, tN float64) {
	c.lock.Lock()
	c.lastEventTime = tL
	c.nextEventTime = tN
	c.lock.Unlock()
}
