// ABOUTME: Timeline data model
// ABOUTME: Tracks, clips, transport state and package errors
package timeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTrackNotFound    = errors.New("track not found")
	ErrClipNotFound     = errors.New("clip not found")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrInvalidTrackType = errors.New("invalid track type")
	ErrNegativeOffset   = errors.New("negative start offset")
	ErrDragInProgress   = errors.New("drag already in progress")
	ErrNotDragging      = errors.New("no drag in progress")
)

// TrackType classifies a track
type TrackType string

const (
	TrackAudio TrackType = "Audio"
	TrackVocal TrackType = "Vocal"
	TrackMIDI  TrackType = "MIDI"
)

// TrackTypes lists the valid track types in display order
var TrackTypes = []TrackType{TrackAudio, TrackVocal, TrackMIDI}

// Valid reports whether t is one of the known track types
func (t TrackType) Valid() bool {
	for _, known := range TrackTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Next returns the type following t in TrackTypes, wrapping around
func (t TrackType) Next() TrackType {
	for i, known := range TrackTypes {
		if t == known {
			return TrackTypes[(i+1)%len(TrackTypes)]
		}
	}
	return TrackAudio
}

// ParseTrackType parses a track type name, ignoring case
func ParseTrackType(s string) (TrackType, error) {
	for _, known := range TrackTypes {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTrackType, s)
}

// ClipKind says what kind of media a clip refers to
type ClipKind string

const (
	KindAudio ClipKind = "audio"
	KindMIDI  ClipKind = "midi"
)

// Track is a named lane that owns clips
type Track struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type TrackType `json:"type"`
}

// Clip is a placed reference to a playable resource
type Clip struct {
	ID       string   `json:"id"`
	TrackID  string   `json:"track_id"`
	Name     string   `json:"name"`
	Start    float64  `json:"start"`    // seconds from timeline origin
	Duration float64  `json:"duration"` // seconds, 0 until resolved
	Kind     ClipKind `json:"kind"`
	Path     string   `json:"path,omitempty"`

	Handle MediaHandle `json:"-"`
}

// End returns the timeline time at which the clip stops
func (c Clip) End() float64 {
	return c.Start + c.Duration
}

// Resolved reports whether the clip's duration is known
func (c Clip) Resolved() bool {
	return c.Duration > 0
}

// Relative converts a timeline position to a clip-local position
func (c Clip) Relative(position float64) float64 {
	return position - c.Start
}

// InWindow reports whether position falls inside [Start, Start+Duration).
// Clips with unresolved duration are never in window.
func (c Clip) InWindow(position float64) bool {
	if !c.Resolved() {
		return false
	}
	rel := c.Relative(position)
	return rel >= 0 && rel < c.Duration
}

// TransportState is a point-in-time view of the transport
type TransportState struct {
	Position float64 `json:"position"`
	Playing  bool    `json:"playing"`
	Duration float64 `json:"duration"`
}

// Snapshot is a consistent copy of the whole session
type Snapshot struct {
	TransportState
	Tracks  []Track  `json:"tracks"`
	Clips   []Clip   `json:"clips"`
	Audible []string `json:"audible"`
	Drag    DragInfo `json:"drag"`
}
