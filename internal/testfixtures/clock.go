package testfixtures

import (
	"sync"
	"time"

	"github.com/example/mowing-roster/internal/calendar"
)

// Clock is a manually driven time source. The zero start means ReferenceTime.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// NowFunc is handed to services as their now func. A nil clock falls back to
// the wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Today is the UTC date of Now.
func (c *Clock) Today() calendar.Date {
	return calendar.FromTime(c.Now(), time.UTC)
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// MoveTo jumps to hour:00 UTC on day. Jumping backwards is allowed.
func (c *Clock) MoveTo(day calendar.Date, hour int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = day.Time().Add(time.Duration(hour) * time.Hour)
}
