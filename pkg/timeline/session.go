// ABOUTME: Session state object for the timeline engine
// ABOUTME: Serializes transport, registry and placement operations on one lock
package timeline

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMinLength is the shortest session length in seconds
const DefaultMinLength = 60.0

// EndBehavior selects what happens when the playhead reaches the end
type EndBehavior int

const (
	// EndReset stops playback and rewinds to 0
	EndReset EndBehavior = iota
	// EndClamp stops playback and leaves the playhead at the end
	EndClamp
)

// PauseBehavior selects what pausing does to clip handles
type PauseBehavior int

const (
	// PausePreserve pauses handles in place
	PausePreserve PauseBehavior = iota
	// PauseReset pauses handles and rewinds each to its own start
	PauseReset
)

// Options configures a Session. Zero values select the defaults.
type Options struct {
	TickInterval    time.Duration
	MinLength       float64 // seconds
	PixelsPerSecond float64
	SnapSeconds     float64
	NoSnap          bool
	AtEnd           EndBehavior
	OnPause         PauseBehavior

	// Manual disables the background ticker; the host drives the clock by
	// calling Tick.
	Manual bool

	Logger   *zap.Logger
	Notifier Notifier
}

type notice struct {
	level Level
	msg   string
}

// Session owns one timeline: tracks, clips, the transport clock, the
// playback synchronizer and the placement editor.
type Session struct {
	mu sync.Mutex

	opts   Options
	log    *zap.Logger
	notify Notifier

	tracks *Tracks
	clips  *Clips
	clock  *Clock
	sync   *Synchronizer
	place  *Placement

	pending []notice
	closed  bool
}

// NewSession creates an empty, stopped session
func NewSession(opts Options) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.PixelsPerSecond <= 0 {
		opts.PixelsPerSecond = DefaultPixelsPerSecond
	}
	if opts.SnapSeconds <= 0 {
		opts.SnapSeconds = DefaultSnapSeconds
	}
	if opts.NoSnap {
		opts.SnapSeconds = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	return &Session{
		opts:   opts,
		log:    opts.Logger,
		notify: opts.Notifier,
		tracks: NewTracks(),
		clips:  NewClips(),
		clock:  NewClock(opts.TickInterval),
		sync:   NewSynchronizer(opts.Logger),
		place:  NewPlacement(opts.PixelsPerSecond, opts.SnapSeconds),
	}
}

// Options returns the effective options
func (s *Session) Options() Options {
	return s.opts
}

func (s *Session) lock() {
	s.mu.Lock()
}

// unlock releases the lock and then delivers queued notifications, so a
// Notifier never runs while the session is locked.
func (s *Session) unlock() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, n := range pending {
		s.notify.Notify(n.level, n.msg)
	}
}

func (s *Session) queue(level Level, format string, args ...interface{}) {
	s.pending = append(s.pending, notice{level: level, msg: fmt.Sprintf(format, args...)})
}

// ========== Transport ==========

// Play starts the transport from the current position. No-op if playing.
func (s *Session) Play() {
	s.lock()
	defer s.unlock()

	if s.closed || s.clock.Playing() {
		return
	}
	if s.clock.Position() >= s.durationLocked() {
		s.clock.setPosition(0)
	}

	var fire func(uint64)
	if !s.opts.Manual {
		fire = s.tickFrom
	}
	s.clock.start(fire)
	s.sync.Reconcile(s.clock.Position(), s.clips.List())

	s.log.Info("transport play", zap.Float64("position", s.clock.Position()))
}

// Pause stops the transport, keeping the position
func (s *Session) Pause() {
	s.lock()
	defer s.unlock()

	if !s.clock.Playing() {
		return
	}
	s.clock.halt()
	s.sync.PauseAll(s.clips.List(), s.opts.OnPause == PauseReset)

	s.log.Info("transport pause", zap.Float64("position", s.clock.Position()))
}

// Stop stops the transport and rewinds the playhead and every clip to 0
func (s *Session) Stop() {
	s.lock()
	defer s.unlock()

	s.stopLocked()
	s.log.Info("transport stop")
}

func (s *Session) stopLocked() {
	s.clock.halt()
	s.clock.setPosition(0)
	s.sync.PauseAll(s.clips.List(), true)
}

// Seek moves the playhead to t, clamped to [0, duration], and returns the
// new position. Clip handles are re-evaluated immediately.
func (s *Session) Seek(t float64) float64 {
	s.lock()
	defer s.unlock()

	p := clamp(t, 0, s.durationLocked())
	s.clock.setPosition(p)
	s.sync.Reposition(p, s.clock.Playing(), s.clips.List())

	s.log.Debug("transport seek", zap.Float64("requested", t), zap.Float64("position", p))
	return p
}

// Tick advances the clock by one interval if playing. Hosts using
// Options.Manual call it on their own schedule.
func (s *Session) Tick() {
	s.lock()
	defer s.unlock()

	if !s.clock.Playing() {
		return
	}
	s.step()
}

// tickFrom is the ticker callback; ticks from a finished play period are
// dropped.
func (s *Session) tickFrom(gen uint64) {
	s.lock()
	defer s.unlock()

	if !s.clock.current(gen) {
		return
	}
	s.step()
}

func (s *Session) step() {
	pos := s.clock.advance()
	total := s.durationLocked()
	if pos >= total {
		s.finishLocked(total)
		return
	}
	s.sync.Reconcile(pos, s.clips.List())
}

func (s *Session) finishLocked(total float64) {
	switch s.opts.AtEnd {
	case EndClamp:
		s.clock.halt()
		s.clock.setPosition(total)
		s.sync.PauseAll(s.clips.List(), false)
	default:
		s.stopLocked()
	}
	s.log.Info("transport reached end", zap.Float64("duration", total))
	s.queue(LevelInfo, "Playback finished")
}

// Position returns the playhead in seconds
func (s *Session) Position() float64 {
	s.lock()
	defer s.unlock()
	return s.clock.Position()
}

// Playing reports whether the transport is running
func (s *Session) Playing() bool {
	s.lock()
	defer s.unlock()
	return s.clock.Playing()
}

// Duration returns the session length: the latest clip end, floored at the
// minimum session length
func (s *Session) Duration() float64 {
	s.lock()
	defer s.unlock()
	return s.durationLocked()
}

func (s *Session) durationLocked() float64 {
	return math.Max(s.opts.MinLength, s.clips.MaxEnd())
}

// State returns the transport state
func (s *Session) State() TransportState {
	s.lock()
	defer s.unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() TransportState {
	return TransportState{
		Position: s.clock.Position(),
		Playing:  s.clock.Playing(),
		Duration: s.durationLocked(),
	}
}

// Audible returns the ids of clips currently playing, sorted
func (s *Session) Audible() []string {
	s.lock()
	defer s.unlock()
	return s.sync.Audible()
}

// keepInRange pulls a stopped playhead back inside the session after the
// session got shorter. A playing clock finishes on its next tick instead.
func (s *Session) keepInRange() {
	if s.clock.Playing() {
		return
	}
	if total := s.durationLocked(); s.clock.Position() > total {
		s.clock.setPosition(total)
	}
}

// ========== Tracks ==========

// AddTrack creates a track. Empty fields get defaults: a new uuid, the name
// "Track N" and type Audio.
func (s *Session) AddTrack(t Track) (Track, error) {
	s.lock()
	defer s.unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Name == "" {
		t.Name = fmt.Sprintf("Track %d", s.tracks.Len()+1)
	}
	if t.Type == "" {
		t.Type = TrackAudio
	}
	if !t.Type.Valid() {
		return Track{}, fmt.Errorf("%w: %q", ErrInvalidTrackType, t.Type)
	}
	if err := s.tracks.Add(t); err != nil {
		return Track{}, err
	}

	s.log.Info("track added", zap.String("track", t.ID), zap.String("name", t.Name))
	return t, nil
}

// Track returns a track by id
func (s *Session) Track(id string) (Track, bool) {
	s.lock()
	defer s.unlock()
	return s.tracks.Get(id)
}

// Tracks returns all tracks in creation order
func (s *Session) Tracks() []Track {
	s.lock()
	defer s.unlock()
	return s.tracks.List()
}

// RenameTrack changes a track's display name
func (s *Session) RenameTrack(id, name string) error {
	s.lock()
	defer s.unlock()
	return s.tracks.Rename(id, name)
}

// SetTrackType changes a track's type
func (s *Session) SetTrackType(id string, typ TrackType) error {
	s.lock()
	defer s.unlock()
	return s.tracks.SetType(id, typ)
}

// DeleteTrack removes a track and all of its clips. Handles of removed clips
// are paused before they are released.
func (s *Session) DeleteTrack(id string) error {
	s.lock()
	defer s.unlock()

	if err := s.tracks.Remove(id); err != nil {
		return err
	}
	removed := s.clips.RemoveTrack(id)
	for _, c := range removed {
		s.dropClipLocked(c)
	}
	s.keepInRange()

	s.log.Info("track deleted", zap.String("track", id), zap.Int("clips", len(removed)))
	return nil
}

// ========== Clips ==========

// AddClip places a clip on an existing track. An empty ID gets a new uuid and
// an empty Kind becomes KindAudio. The handle may be nil and attached later.
func (s *Session) AddClip(c Clip) (Clip, error) {
	s.lock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Kind == "" {
		c.Kind = KindAudio
	}
	if c.Duration < 0 {
		c.Duration = 0
	}
	if !s.tracks.Has(c.TrackID) {
		s.unlock()
		return Clip{}, fmt.Errorf("%w: %s", ErrTrackNotFound, c.TrackID)
	}

	stored := c
	if err := s.clips.Add(&stored); err != nil {
		s.unlock()
		return Clip{}, err
	}
	s.log.Info("clip added",
		zap.String("clip", c.ID),
		zap.String("track", c.TrackID),
		zap.String("name", c.Name),
		zap.Float64("start", c.Start))
	s.unlock()

	if c.Handle != nil {
		s.watch(c.ID, c.Handle)
	}
	return c, nil
}

// AttachHandle gives a clip its media handle, replacing (and closing) any
// previous one
func (s *Session) AttachHandle(clipID string, h MediaHandle) error {
	s.lock()

	c, ok := s.clips.Get(clipID)
	if !ok {
		s.unlock()
		return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	if c.Handle != nil && c.Handle != h {
		s.sync.Release(c)
		s.closeHandle(c)
	}
	c.Handle = h
	if s.clock.Playing() {
		s.sync.Reconcile(s.clock.Position(), []*Clip{c})
	}
	s.unlock()

	if h != nil {
		s.watch(clipID, h)
	}
	return nil
}

// watch subscribes the session to a handle's notifications. It runs without
// the lock because a handle may call back immediately.
func (s *Session) watch(clipID string, h MediaHandle) {
	h.OnDuration(func(seconds float64) {
		if err := s.ResolveDuration(clipID, seconds); err != nil && !errors.Is(err, ErrClipNotFound) {
			s.log.Warn("duration update failed", zap.String("clip", clipID), zap.Error(err))
		}
	})
	h.OnError(func(err error) {
		s.handleError(clipID, h, err)
	})
}

func (s *Session) handleError(clipID string, h MediaHandle, err error) {
	s.lock()
	defer s.unlock()

	c, ok := s.clips.Get(clipID)
	if !ok || c.Handle != h {
		return
	}
	s.sync.Failed(clipID)
	s.log.Warn("clip playback error", zap.String("clip", clipID), zap.Error(err))
	s.queue(LevelWarn, "Playback error on %s: %v", c.Name, err)
}

// ResolveDuration records a clip's duration once its media knows it
func (s *Session) ResolveDuration(clipID string, seconds float64) error {
	s.lock()
	defer s.unlock()

	if err := s.clips.SetDuration(clipID, seconds); err != nil {
		return err
	}
	s.keepInRange()
	s.log.Debug("clip duration resolved", zap.String("clip", clipID), zap.Float64("duration", seconds))
	return nil
}

// Clip returns a copy of a clip
func (s *Session) Clip(id string) (Clip, bool) {
	s.lock()
	defer s.unlock()

	c, ok := s.clips.Get(id)
	if !ok {
		return Clip{}, false
	}
	return *c, true
}

// Clips returns copies of all clips in creation order
func (s *Session) Clips() []Clip {
	s.lock()
	defer s.unlock()
	return copyClips(s.clips.List())
}

// ClipsOnTrack returns copies of a track's clips
func (s *Session) ClipsOnTrack(trackID string) []Clip {
	s.lock()
	defer s.unlock()
	return copyClips(s.clips.ByTrack(trackID))
}

// RenameClip changes a clip's display name
func (s *Session) RenameClip(id, name string) error {
	s.lock()
	defer s.unlock()
	return s.clips.Rename(id, name)
}

// MoveClip moves a clip to a track and start time in one write
func (s *Session) MoveClip(id, trackID string, start float64) error {
	s.lock()
	defer s.unlock()
	return s.moveLocked(id, trackID, start)
}

func (s *Session) moveLocked(id, trackID string, start float64) error {
	if !s.tracks.Has(trackID) {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	c, ok := s.clips.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	if c.TrackID == trackID && c.Start == start {
		return nil
	}
	if err := s.clips.Move(id, trackID, start); err != nil {
		return err
	}
	s.sync.Reposition(s.clock.Position(), s.clock.Playing(), []*Clip{c})
	s.keepInRange()

	s.log.Info("clip moved", zap.String("clip", id), zap.String("track", trackID), zap.Float64("start", start))
	return nil
}

// RemoveClip deletes a clip, pausing and closing its handle
func (s *Session) RemoveClip(id string) error {
	s.lock()
	defer s.unlock()

	c, err := s.clips.Remove(id)
	if err != nil {
		return err
	}
	s.dropClipLocked(c)
	s.keepInRange()

	s.log.Info("clip removed", zap.String("clip", id))
	return nil
}

func (s *Session) dropClipLocked(c *Clip) {
	s.sync.Release(c)
	s.closeHandle(c)
	if s.place.State() == DragDragging && s.place.Info().ClipID == c.ID {
		s.place.Cancel()
	}
}

func (s *Session) closeHandle(c *Clip) {
	if c.Handle == nil {
		return
	}
	if err := c.Handle.Close(); err != nil {
		s.log.Warn("clip handle close failed", zap.String("clip", c.ID), zap.Error(err))
	}
}

func copyClips(in []*Clip) []Clip {
	out := make([]Clip, len(in))
	for i, c := range in {
		out[i] = *c
	}
	return out
}

// ========== Placement ==========

// BeginDrag starts dragging a clip
func (s *Session) BeginDrag(clipID string) error {
	s.lock()
	defer s.unlock()

	if _, ok := s.clips.Get(clipID); !ok {
		return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	return s.place.Begin(clipID)
}

// CancelDrag abandons the drag in progress
func (s *Session) CancelDrag() {
	s.lock()
	defer s.unlock()
	s.place.Cancel()
}

// DropClip ends the drag at pixelX over trackID. It reports false, leaving
// the clip untouched, when nothing is being dragged or the target track or
// clip no longer exists.
func (s *Session) DropClip(pixelX float64, trackID string) (Clip, bool) {
	s.lock()
	defer s.unlock()

	d, err := s.place.Drop(pixelX, trackID)
	if err != nil {
		s.log.Debug("drop ignored", zap.Error(err))
		return Clip{}, false
	}
	if err := s.moveLocked(d.ClipID, d.TrackID, d.Start); err != nil {
		s.log.Debug("drop ignored", zap.String("clip", d.ClipID), zap.Error(err))
		return Clip{}, false
	}
	c, _ := s.clips.Get(d.ClipID)
	return *c, true
}

// Drag returns the drag state
func (s *Session) Drag() DragInfo {
	s.lock()
	defer s.unlock()
	return s.place.Info()
}

// PixelsFor converts seconds into timeline pixels
func (s *Session) PixelsFor(seconds float64) float64 {
	return s.place.PixelsFor(seconds)
}

// SecondsAt converts a ruler pixel offset into an unsnapped time
func (s *Session) SecondsAt(pixelX float64) float64 {
	return s.place.SecondsAt(pixelX)
}

// StartAt converts a drop pixel offset into a snapped start time
func (s *Session) StartAt(pixelX float64) float64 {
	return s.place.StartAt(pixelX)
}

// SeekPixels moves the playhead to a ruler click at pixelX
func (s *Session) SeekPixels(pixelX float64) float64 {
	return s.Seek(s.place.SecondsAt(pixelX))
}

// ========== Lifecycle ==========

// Snapshot returns a consistent copy of the whole session
func (s *Session) Snapshot() Snapshot {
	s.lock()
	defer s.unlock()

	return Snapshot{
		TransportState: s.stateLocked(),
		Tracks:         s.tracks.List(),
		Clips:          copyClips(s.clips.List()),
		Audible:        s.sync.Audible(),
		Drag:           s.place.Info(),
	}
}

// Close stops the transport and closes every clip handle
func (s *Session) Close() error {
	s.lock()
	defer s.unlock()

	if s.closed {
		return nil
	}
	s.stopLocked()
	for _, c := range s.clips.List() {
		s.closeHandle(c)
	}
	s.closed = true
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
