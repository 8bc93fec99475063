// ABOUTME: Playback synchronizer
// ABOUTME: Reconciles clip media handles against the shared playhead
package timeline

import (
	"sort"

	"go.uber.org/zap"
)

// Synchronizer is the only component that calls transport operations on
// media handles while a session is live. It remembers which clips it asked
// to start so a start that is still in flight is cancelled when the clip
// leaves its window.
type Synchronizer struct {
	log       *zap.Logger
	requested map[string]bool
	// clips whose last start failed; retries stay quiet until one succeeds
	failing map[string]bool
}

// NewSynchronizer creates a synchronizer
func NewSynchronizer(log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		log:       log,
		requested: make(map[string]bool),
		failing:   make(map[string]bool),
	}
}

// Reconcile runs one pass while playing: clips in window are started from
// their relative position if paused, clips out of window are paused and
// rewound.
func (s *Synchronizer) Reconcile(position float64, clips []*Clip) {
	for _, c := range clips {
		h := c.Handle
		if h == nil {
			continue
		}

		if !c.InWindow(position) {
			if s.requested[c.ID] || !h.Paused() {
				s.halt(c)
			}
			continue
		}

		if !h.Paused() {
			s.requested[c.ID] = true
			continue
		}
		if s.requested[c.ID] {
			// Start requested but not confirmed yet; OnError clears the
			// request if it fails.
			continue
		}
		s.start(c, c.Relative(position))
	}
}

// Reposition re-evaluates every clip after a seek. Clips in window are moved
// to their relative position (and started when playing); clips out of window
// are paused and rewound.
func (s *Synchronizer) Reposition(position float64, playing bool, clips []*Clip) {
	for _, c := range clips {
		h := c.Handle
		if h == nil {
			continue
		}

		if !c.InWindow(position) {
			s.halt(c)
			continue
		}

		rel := c.Relative(position)
		if !playing {
			if err := h.Seek(rel); err != nil {
				s.log.Warn("clip seek failed", zap.String("clip", c.ID), zap.Error(err))
			}
			continue
		}

		if h.Paused() {
			delete(s.requested, c.ID)
			s.start(c, rel)
			continue
		}
		if err := h.Seek(rel); err != nil {
			s.log.Warn("clip seek failed", zap.String("clip", c.ID), zap.Error(err))
		}
		s.requested[c.ID] = true
	}
}

// PauseAll pauses every handle. When rewind is true handles are also moved
// back to their start.
func (s *Synchronizer) PauseAll(clips []*Clip, rewind bool) {
	for _, c := range clips {
		if c.Handle == nil {
			continue
		}
		if rewind {
			s.halt(c)
			continue
		}
		if s.requested[c.ID] || !c.Handle.Paused() {
			if err := c.Handle.Pause(); err != nil {
				s.log.Warn("clip pause failed", zap.String("clip", c.ID), zap.Error(err))
			}
		}
		delete(s.requested, c.ID)
	}
}

// Release force-pauses a clip that is leaving the session and forgets it
func (s *Synchronizer) Release(c *Clip) {
	if c.Handle != nil {
		s.halt(c)
	}
	delete(s.requested, c.ID)
	delete(s.failing, c.ID)
}

// Failed clears the start request for a clip whose handle reported an
// error, so the next pass retries it.
func (s *Synchronizer) Failed(clipID string) {
	delete(s.requested, clipID)
}

// Audible returns the ids of clips currently driven as playing, sorted
func (s *Synchronizer) Audible() []string {
	ids := make([]string, 0, len(s.requested))
	for id, on := range s.requested {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Synchronizer) start(c *Clip, rel float64) {
	h := c.Handle
	if err := h.Seek(rel); err != nil {
		s.log.Warn("clip seek failed", zap.String("clip", c.ID), zap.Float64("offset", rel), zap.Error(err))
		return
	}
	if err := h.Play(); err != nil {
		delete(s.requested, c.ID)
		if s.failing[c.ID] {
			s.log.Debug("clip start still failing", zap.String("clip", c.ID), zap.Error(err))
			return
		}
		s.failing[c.ID] = true
		s.log.Warn("clip start failed, retrying each tick",
			zap.String("clip", c.ID), zap.Float64("offset", rel), zap.Error(err))
		return
	}
	delete(s.failing, c.ID)
	s.requested[c.ID] = true
	s.log.Debug("clip started", zap.String("clip", c.ID), zap.Float64("offset", rel))
}

func (s *Synchronizer) halt(c *Clip) {
	h := c.Handle
	if err := h.Pause(); err != nil {
		s.log.Warn("clip pause failed", zap.String("clip", c.ID), zap.Error(err))
	}
	if err := h.Seek(0); err != nil {
		s.log.Warn("clip rewind failed", zap.String("clip", c.ID), zap.Error(err))
	}
	if s.requested[c.ID] {
		s.log.Debug("clip stopped", zap.String("clip", c.ID))
	}
	delete(s.requested, c.ID)
}
