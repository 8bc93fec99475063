// ABOUTME: Tests for clip handles
// ABOUTME: Tests the virtual handle clock, byte offsets and sample packing
package output

import (
	"errors"
	"testing"
	"time"

	"github.com/harperreed/lanes/pkg/timeline"
)

var (
	_ timeline.MediaHandle = (*OtoHandle)(nil)
	_ timeline.MediaHandle = (*VirtualHandle)(nil)
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) add(d time.Duration) { c.t = c.t.Add(d) }

func newTestVirtual(duration float64) (*VirtualHandle, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	v := NewVirtual(duration)
	v.now = clock.now
	return v, clock
}

func TestVirtualHandlePlayPause(t *testing.T) {
	v, clock := newTestVirtual(30)

	if !v.Paused() {
		t.Error("expected new handle paused")
	}

	v.Play()
	clock.add(1500 * time.Millisecond)
	if v.Paused() {
		t.Error("expected playing")
	}
	if v.Position() != 1.5 {
		t.Errorf("expected 1.5, got %v", v.Position())
	}

	v.Pause()
	clock.add(time.Second)
	if v.Position() != 1.5 {
		t.Errorf("expected position frozen at 1.5, got %v", v.Position())
	}
}

func TestVirtualHandleSeekWhilePlaying(t *testing.T) {
	v, clock := newTestVirtual(30)

	v.Play()
	clock.add(time.Second)
	v.Seek(10)
	clock.add(500 * time.Millisecond)

	if v.Position() != 10.5 {
		t.Errorf("expected 10.5, got %v", v.Position())
	}
	if err := v.Seek(100); err != nil {
		t.Fatal(err)
	}
	if v.Position() != 30 {
		t.Errorf("expected clamp to 30, got %v", v.Position())
	}
}

func TestVirtualHandleRunsOut(t *testing.T) {
	v, clock := newTestVirtual(2)

	v.Play()
	clock.add(3 * time.Second)
	if !v.Paused() {
		t.Error("expected handle silent after its end")
	}
	if v.Position() != 2 {
		t.Errorf("expected position capped at 2, got %v", v.Position())
	}
}

func TestVirtualHandleDurationAndClose(t *testing.T) {
	v, _ := newTestVirtual(30)

	var got float64
	v.OnDuration(func(d float64) { got = d })
	if got != 30 {
		t.Errorf("expected duration 30, got %v", got)
	}

	v.Close()
	if err := v.Play(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestByteOffset(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected int64
	}{
		{"start", 0, 0},
		{"negative", -1, 0},
		{"one second", 1, 44100 * 4},
		{"frame aligned", 0.00001, 0},
		{"past end", 100, 44100 * 4 * 10},
	}

	size := int64(44100 * 4 * 10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := byteOffset(tt.seconds, 44100, 4, size)
			if got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestToInt16LE(t *testing.T) {
	got := toInt16LE([]int32{0x123400, -256})
	expected := []byte{0x34, 0x12, 0xff, 0xff}
	if len(got) != len(expected) {
		t.Fatalf("expected %d bytes, got %d", len(expected), len(got))
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("byte %d: expected %#x, got %#x", i, expected[i], got[i])
		}
	}
}
