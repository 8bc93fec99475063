// ABOUTME: Track registry
// ABOUTME: Insertion-ordered track collection keyed by id
package timeline

import (
	"fmt"

	"github.com/samber/lo"
)

// Tracks holds track metadata in insertion order. It is not safe for
// concurrent use; Session serializes access.
type Tracks struct {
	items []Track
}

// NewTracks creates an empty track registry
func NewTracks() *Tracks {
	return &Tracks{}
}

// Add appends a track. The id must be unique.
func (r *Tracks) Add(t Track) error {
	if _, ok := r.Get(t.ID); ok {
		return fmt.Errorf("%w: track %s", ErrDuplicateID, t.ID)
	}
	r.items = append(r.items, t)
	return nil
}

// Get returns the track with the given id
func (r *Tracks) Get(id string) (Track, bool) {
	return lo.Find(r.items, func(t Track) bool { return t.ID == id })
}

// Has reports whether a track with the given id exists
func (r *Tracks) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns a copy of all tracks
func (r *Tracks) List() []Track {
	out := make([]Track, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of tracks
func (r *Tracks) Len() int {
	return len(r.items)
}

// Rename changes a track's display name
func (r *Tracks) Rename(id, name string) error {
	return r.update(id, func(t *Track) { t.Name = name })
}

// SetType changes a track's type
func (r *Tracks) SetType(id string, typ TrackType) error {
	if !typ.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTrackType, typ)
	}
	return r.update(id, func(t *Track) { t.Type = typ })
}

// Remove deletes a track. Clips are not touched here; see Session.DeleteTrack.
func (r *Tracks) Remove(id string) error {
	if !r.Has(id) {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	r.items = lo.Reject(r.items, func(t Track, _ int) bool { return t.ID == id })
	return nil
}

func (r *Tracks) update(id string, fn func(*Track)) error {
	_, idx, ok := lo.FindIndexOf(r.items, func(t Track) bool { return t.ID == id })
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	fn(&r.items[idx])
	return nil
}
