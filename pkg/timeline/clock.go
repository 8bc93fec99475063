// ABOUTME: Transport clock
// ABOUTME: Fixed-interval playhead advance driven by a single ticker
package timeline

import (
	"context"
	"time"
)

// DefaultTickInterval matches the 20ms playhead refresh of the editor
const DefaultTickInterval = 20 * time.Millisecond

// Clock holds the shared playhead and the tick loop. Position and play state
// are only changed by Session, under its lock.
type Clock struct {
	interval time.Duration
	position float64
	playing  bool

	// gen identifies the current play period; ticks from older periods are
	// ignored so at most one loop ever drives the playhead.
	gen    uint64
	cancel context.CancelFunc
}

// NewClock creates a stopped clock at position 0
func NewClock(interval time.Duration) *Clock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Clock{interval: interval}
}

// Interval returns the tick interval
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// Position returns the playhead in seconds
func (c *Clock) Position() float64 {
	return c.position
}

// Playing reports whether the clock is running
func (c *Clock) Playing() bool {
	return c.playing
}

func (c *Clock) setPosition(p float64) {
	c.position = p
}

// advance moves the playhead by one tick and returns the new position
func (c *Clock) advance() float64 {
	c.position += c.interval.Seconds()
	return c.position
}

// start marks the clock playing. When fire is non-nil a ticker goroutine
// calls fire(gen) every interval until the clock is halted.
func (c *Clock) start(fire func(gen uint64)) {
	if c.playing {
		return
	}
	c.playing = true
	c.gen++

	if fire == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx, c.gen, fire)
}

// halt stops the clock. It does not wait for the loop to exit; a tick that
// is already waiting carries a stale gen and is dropped by the session.
func (c *Clock) halt() {
	c.playing = false
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// current reports whether gen belongs to the running play period
func (c *Clock) current(gen uint64) bool {
	return c.playing && gen == c.gen
}

func (c *Clock) run(ctx context.Context, gen uint64, fire func(gen uint64)) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fire(gen)
		}
	}
}
