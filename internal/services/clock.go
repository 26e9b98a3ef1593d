package services

import (
	"sync/atomic"
	"time"
)

// TickClock is the wall clock shown on the dashboard. It only moves when
// Tick is called, which the scheduler does once a second.
type TickClock struct {
	now atomic.Int64
}

func NewTickClock() *TickClock {
	c := &TickClock{}
	c.Tick()
	return c
}

func (c *TickClock) Tick() {
	c.now.Store(time.Now().UnixNano())
}

func (c *TickClock) Now() time.Time {
	return time.Unix(0, c.now.Load())
}
