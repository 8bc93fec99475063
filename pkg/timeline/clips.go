// ABOUTME: Clip registry
// ABOUTME: Insertion-ordered clip collection with track cascade removal
package timeline

import (
	"fmt"

	"github.com/samber/lo"
)

// Clips holds placed clips in insertion order. It is not safe for concurrent
// use; Session serializes access.
type Clips struct {
	items []*Clip
}

// NewClips creates an empty clip registry
func NewClips() *Clips {
	return &Clips{}
}

// Add stores a clip. The id must be unique.
func (r *Clips) Add(c *Clip) error {
	if _, ok := r.Get(c.ID); ok {
		return fmt.Errorf("%w: clip %s", ErrDuplicateID, c.ID)
	}
	if c.Start < 0 {
		return fmt.Errorf("%w: %.3f", ErrNegativeOffset, c.Start)
	}
	r.items = append(r.items, c)
	return nil
}

// Get returns the clip with the given id
func (r *Clips) Get(id string) (*Clip, bool) {
	return lo.Find(r.items, func(c *Clip) bool { return c.ID == id })
}

// List returns all clips
func (r *Clips) List() []*Clip {
	out := make([]*Clip, len(r.items))
	copy(out, r.items)
	return out
}

// ByTrack returns the clips owned by a track
func (r *Clips) ByTrack(trackID string) []*Clip {
	return lo.Filter(r.items, func(c *Clip, _ int) bool { return c.TrackID == trackID })
}

// Len returns the number of clips
func (r *Clips) Len() int {
	return len(r.items)
}

// Remove deletes a clip and returns it
func (r *Clips) Remove(id string) (*Clip, error) {
	c, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	r.items = lo.Reject(r.items, func(item *Clip, _ int) bool { return item.ID == id })
	return c, nil
}

// RemoveTrack deletes every clip owned by trackID and returns them
func (r *Clips) RemoveTrack(trackID string) []*Clip {
	removed, kept := lo.FilterReject(r.items, func(c *Clip, _ int) bool { return c.TrackID == trackID })
	r.items = kept
	return removed
}

// Move reassigns a clip's track and start offset in one write
func (r *Clips) Move(id, trackID string, start float64) error {
	if start < 0 {
		return fmt.Errorf("%w: %.3f", ErrNegativeOffset, start)
	}
	c, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	c.TrackID = trackID
	c.Start = start
	return nil
}

// Rename changes a clip's display name
func (r *Clips) Rename(id, name string) error {
	c, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	c.Name = name
	return nil
}

// SetDuration records a clip's resolved duration
func (r *Clips) SetDuration(id string, seconds float64) error {
	c, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	if seconds < 0 {
		seconds = 0
	}
	c.Duration = seconds
	return nil
}

// MaxEnd returns the latest clip end time, or 0 when empty
func (r *Clips) MaxEnd() float64 {
	return lo.Reduce(r.items, func(acc float64, c *Clip, _ int) float64 {
		return max(acc, c.End())
	}, 0)
}
