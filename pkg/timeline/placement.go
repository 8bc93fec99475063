// ABOUTME: Placement editor
// ABOUTME: Maps drag/drop pixel offsets to snapped clip start times
package timeline

import (
	"fmt"
	"math"
)

const (
	// DefaultPixelsPerSecond is the horizontal timeline scale
	DefaultPixelsPerSecond = 100.0
	// DefaultSnapSeconds is the drop grid
	DefaultSnapSeconds = 0.5
)

// DragState is the per-clip drag lifecycle
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (d DragState) String() string {
	switch d {
	case DragDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// DragInfo describes the drag in progress, if any
type DragInfo struct {
	State  string `json:"state"`
	ClipID string `json:"clip_id,omitempty"`
}

// Drop is the result of a completed drag
type Drop struct {
	ClipID  string
	TrackID string
	Start   float64
}

// Placement converts gestures into clip moves. It owns only the drag state;
// Session validates and applies the resulting Drop.
type Placement struct {
	pixelsPerSecond float64
	snapSeconds     float64 // 0 disables snapping

	state  DragState
	clipID string
}

// NewPlacement creates a placement editor. snapSeconds <= 0 disables snapping.
func NewPlacement(pixelsPerSecond, snapSeconds float64) *Placement {
	if pixelsPerSecond <= 0 {
		pixelsPerSecond = DefaultPixelsPerSecond
	}
	if snapSeconds < 0 {
		snapSeconds = 0
	}
	return &Placement{
		pixelsPerSecond: pixelsPerSecond,
		snapSeconds:     snapSeconds,
	}
}

// PixelsPerSecond returns the timeline scale
func (p *Placement) PixelsPerSecond() float64 {
	return p.pixelsPerSecond
}

// SnapSeconds returns the grid size, 0 when snapping is off
func (p *Placement) SnapSeconds() float64 {
	return p.snapSeconds
}

// State returns the current drag state
func (p *Placement) State() DragState {
	return p.state
}

// Info returns the drag state for snapshots
func (p *Placement) Info() DragInfo {
	return DragInfo{State: p.state.String(), ClipID: p.clipID}
}

// Begin starts dragging a clip
func (p *Placement) Begin(clipID string) error {
	if p.state == DragDragging {
		return fmt.Errorf("%w: %s", ErrDragInProgress, p.clipID)
	}
	p.state = DragDragging
	p.clipID = clipID
	return nil
}

// Cancel abandons the drag in progress
func (p *Placement) Cancel() {
	p.state = DragIdle
	p.clipID = ""
}

// Drop ends the drag at pixelX over trackID and returns the computed move.
// The editor returns to idle either way.
func (p *Placement) Drop(pixelX float64, trackID string) (Drop, error) {
	if p.state != DragDragging {
		return Drop{}, ErrNotDragging
	}
	d := Drop{
		ClipID:  p.clipID,
		TrackID: trackID,
		Start:   p.StartAt(pixelX),
	}
	p.Cancel()
	return d, nil
}

// StartAt converts a pixel offset into a snapped, non-negative start time
func (p *Placement) StartAt(pixelX float64) float64 {
	seconds := pixelX / p.pixelsPerSecond
	if p.snapSeconds > 0 {
		factor := 1 / p.snapSeconds
		seconds = math.Round(seconds*factor) / factor
	}
	return math.Max(0, seconds)
}

// SecondsAt converts a pixel offset into an unsnapped time, as used by the
// ruler for click-to-seek
func (p *Placement) SecondsAt(pixelX float64) float64 {
	return math.Max(0, pixelX/p.pixelsPerSecond)
}

// PixelsFor converts a time into a pixel offset
func (p *Placement) PixelsFor(seconds float64) float64 {
	return seconds * p.pixelsPerSecond
}
