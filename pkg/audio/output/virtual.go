// ABOUTME: Silent clip handle driven by wall-clock time
// ABOUTME: Used for MIDI placeholders and headless sessions
package output

import (
	"sync"
	"time"
)

// VirtualHandle behaves like a player of a fixed length but produces no
// sound. Its position follows the wall clock while playing.
type VirtualHandle struct {
	mu sync.Mutex

	duration  float64
	offset    float64
	startedAt time.Time
	playing   bool
	closed    bool

	now func() time.Time
}

// NewVirtual creates a paused virtual handle of the given length in seconds
func NewVirtual(duration float64) *VirtualHandle {
	return &VirtualHandle{duration: duration, now: time.Now}
}

// Play starts the virtual clock
func (v *VirtualHandle) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if v.playing {
		return nil
	}
	v.playing = true
	v.startedAt = v.now()
	return nil
}

// Pause freezes the position
func (v *VirtualHandle) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	v.offset = v.positionLocked()
	v.playing = false
	return nil
}

// Seek sets the position, clamped to the handle length
func (v *VirtualHandle) Seek(seconds float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	v.offset = max(0, min(seconds, v.duration))
	v.startedAt = v.now()
	return nil
}

// Paused reports whether the handle is stopped or has run to its end
func (v *VirtualHandle) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.playing || v.positionLocked() >= v.duration
}

// Position returns the current position in seconds
func (v *VirtualHandle) Position() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.positionLocked()
}

func (v *VirtualHandle) positionLocked() float64 {
	if !v.playing {
		return v.offset
	}
	p := v.offset + v.now().Sub(v.startedAt).Seconds()
	return min(p, v.duration)
}

// OnDuration calls fn right away with the fixed length
func (v *VirtualHandle) OnDuration(fn func(seconds float64)) {
	fn(v.duration)
}

// OnError is a no-op; a virtual handle cannot fail
func (v *VirtualHandle) OnError(func(err error)) {}

// Close stops the handle
func (v *VirtualHandle) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
	v.closed = true
	return nil
}
