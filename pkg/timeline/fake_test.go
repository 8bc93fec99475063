// ABOUTME: In-memory MediaHandle for timeline tests
// ABOUTME: Records transport calls and advances a virtual position on demand
package timeline

import (
	"errors"
	"sync"
)

var errFakePlay = errors.New("fake play failure")

type fakeHandle struct {
	mu sync.Mutex

	paused   bool
	position float64
	duration float64

	// pending makes Play a request that is confirmed later by confirm()
	pending   bool
	requested bool
	playFails int

	plays  int
	pauses int
	seeks  []float64
	closed bool

	onDuration func(float64)
	onError    func(error)
}

func newFakeHandle(duration float64) *fakeHandle {
	return &fakeHandle{paused: true, duration: duration}
}

func (f *fakeHandle) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.plays++
	if f.playFails > 0 {
		f.playFails--
		return errFakePlay
	}
	if f.pending {
		f.requested = true
		return nil
	}
	f.paused = false
	return nil
}

func (f *fakeHandle) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pauses++
	f.paused = true
	f.requested = false
	return nil
}

func (f *fakeHandle) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seeks = append(f.seeks, seconds)
	f.position = seconds
	return nil
}

func (f *fakeHandle) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeHandle) OnDuration(fn func(float64)) {
	f.mu.Lock()
	f.onDuration = fn
	d := f.duration
	f.mu.Unlock()

	if d > 0 {
		fn(d)
	}
}

func (f *fakeHandle) OnError(fn func(error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onError = fn
}

func (f *fakeHandle) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.paused = true
	return nil
}

// advance moves the virtual position when playing
func (f *fakeHandle) advance(dt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.paused {
		f.position += dt
	}
}

// confirm completes a pending Play request
func (f *fakeHandle) confirm() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requested {
		f.paused = false
		f.requested = false
	}
}

// fail reports an asynchronous playback error
func (f *fakeHandle) fail(err error) {
	f.mu.Lock()
	f.paused = true
	f.requested = false
	fn := f.onError
	f.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}

// resolve reports the duration becoming known
func (f *fakeHandle) resolve(d float64) {
	f.mu.Lock()
	f.duration = d
	fn := f.onDuration
	f.mu.Unlock()

	if fn != nil {
		fn(d)
	}
}

func (f *fakeHandle) state() (paused bool, position float64, plays int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused, f.position, f.plays
}

func (f *fakeHandle) lastSeek() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seeks) == 0 {
		return -1
	}
	return f.seeks[len(f.seeks)-1]
}

func (f *fakeHandle) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	levels   []Level
}

func (r *recordingNotifier) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, level)
	r.messages = append(r.messages, message)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
