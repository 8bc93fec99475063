// ABOUTME: Notifier that forwards session notices to the control server
// ABOUTME: Buffers notices so the session never blocks on slow clients
package server

import (
	"github.com/harperreed/lanes/pkg/protocol"
	"github.com/harperreed/lanes/pkg/timeline"
)

// Relay is a timeline.Notifier whose notices the server broadcasts as
// session/notice. Notices arriving while the buffer is full are dropped.
type Relay struct {
	ch chan protocol.Notice
}

// NewRelay creates a relay holding up to size undelivered notices
func NewRelay(size int) *Relay {
	if size <= 0 {
		size = 64
	}
	return &Relay{ch: make(chan protocol.Notice, size)}
}

// Notify implements timeline.Notifier
func (r *Relay) Notify(level timeline.Level, message string) {
	select {
	case r.ch <- protocol.Notice{Level: string(level), Message: message}:
	default:
	}
}

// C returns the notice stream
func (r *Relay) C() <-chan protocol.Notice {
	return r.ch
}
