// ABOUTME: Tests for the transport clock
// ABOUTME: Tests tick advance and play period generations
package timeline

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestClockAdvance(t *testing.T) {
	c := NewClock(0)
	if c.Interval() != DefaultTickInterval {
		t.Errorf("expected default interval, got %v", c.Interval())
	}

	c.advance()
	c.advance()
	if !almostEqual(c.Position(), 0.04) {
		t.Errorf("expected 0.04, got %v", c.Position())
	}
}

func TestClockGenerations(t *testing.T) {
	c := NewClock(time.Millisecond)

	c.start(nil)
	first := c.gen
	if !c.current(first) {
		t.Error("expected first generation current")
	}
	c.start(nil)
	if c.gen != first {
		t.Error("expected start while playing to be a no-op")
	}

	c.halt()
	if c.current(first) {
		t.Error("expected halted generation stale")
	}
	c.start(nil)
	if c.current(first) || !c.current(c.gen) {
		t.Error("expected only the new generation current")
	}
}

func TestClockLoopStopsOnHalt(t *testing.T) {
	c := NewClock(time.Millisecond)
	var fired atomic.Int64

	c.start(func(uint64) { fired.Add(1) })
	time.Sleep(20 * time.Millisecond)
	c.halt()
	time.Sleep(5 * time.Millisecond)

	n := fired.Load()
	if n == 0 {
		t.Fatal("expected ticks while running")
	}
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != n {
		t.Errorf("expected no ticks after halt, got %d more", fired.Load()-n)
	}
}
