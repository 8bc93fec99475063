// ABOUTME: Tests for the timeline session
// ABOUTME: Covers transport, cascade deletion, drops and handle callbacks
package timeline

import (
	"errors"
	"testing"
	"time"
)

func newManualSession(t *testing.T, opts Options) *Session {
	t.Helper()
	opts.Manual = true
	s := NewSession(opts)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustTrack(t *testing.T, s *Session, name string) Track {
	t.Helper()
	tr, err := s.AddTrack(Track{Name: name})
	if err != nil {
		t.Fatalf("add track: %v", err)
	}
	return tr
}

func mustClip(t *testing.T, s *Session, c Clip) Clip {
	t.Helper()
	out, err := s.AddClip(c)
	if err != nil {
		t.Fatalf("add clip: %v", err)
	}
	return out
}

// tick advances the session and every handle by one interval
func tick(s *Session, n int, handles ...*fakeHandle) {
	dt := s.Options().TickInterval.Seconds()
	for i := 0; i < n; i++ {
		s.Tick()
		for _, h := range handles {
			h.advance(dt)
		}
	}
}

func TestPlayPauseSingleClip(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "Drums")
	h := newFakeHandle(5)
	mustClip(t, s, Clip{TrackID: tr.ID, Name: "beat", Start: 0, Handle: h})

	s.Play()
	if paused, _, plays := h.state(); paused || plays != 1 {
		t.Fatalf("expected clip playing after Play, paused=%v plays=%d", paused, plays)
	}

	tick(s, 3, h)
	if !almostEqual(s.Position(), 0.06) {
		t.Errorf("expected position 0.06, got %v", s.Position())
	}
	if _, pos, plays := h.state(); plays != 1 || !almostEqual(pos, 0.06) {
		t.Errorf("expected one play and handle at 0.06, got plays=%d pos=%v", plays, pos)
	}

	s.Pause()
	if paused, _, _ := h.state(); !paused {
		t.Error("expected handle paused after Pause")
	}
	if s.Playing() {
		t.Error("expected transport stopped after Pause")
	}
	if !almostEqual(s.Position(), 0.06) {
		t.Errorf("expected position kept at 0.06, got %v", s.Position())
	}
}

func TestSeekIntoClipThenPlayPastEnd(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")
	h := newFakeHandle(1)
	mustClip(t, s, Clip{TrackID: tr.ID, Start: 2, Handle: h})

	s.Seek(2.5)
	if got := h.lastSeek(); !almostEqual(got, 0.5) {
		t.Errorf("expected handle seeked to 0.5, got %v", got)
	}
	if paused, _, _ := h.state(); !paused {
		t.Error("expected handle to stay paused after seek while stopped")
	}

	s.Play()
	if paused, _, _ := h.state(); paused {
		t.Fatal("expected handle playing after Play inside window")
	}

	tick(s, 30, h)
	paused, pos, _ := h.state()
	if !paused {
		t.Error("expected handle paused after leaving window")
	}
	if pos != 0 {
		t.Errorf("expected handle rewound to 0, got %v", pos)
	}
	if len(s.Audible()) != 0 {
		t.Errorf("expected no audible clips, got %v", s.Audible())
	}
}

func TestClipWindowBoundary(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")
	h := newFakeHandle(5)
	c := mustClip(t, s, Clip{TrackID: tr.ID, Handle: h})

	tests := []struct {
		position float64
		audible  bool
	}{
		{0, true},
		{4.999, true},
		{5.0, false},
	}
	for _, tt := range tests {
		s.Pause()
		s.Seek(tt.position)
		s.Play()
		got := len(s.Audible()) == 1
		if got != tt.audible {
			t.Errorf("position %v: expected audible=%v, got %v", tt.position, tt.audible, got)
		}
		if got && s.Audible()[0] != c.ID {
			t.Errorf("expected %s audible, got %v", c.ID, s.Audible())
		}
	}
}

func TestDeleteTrackCascades(t *testing.T) {
	s := newManualSession(t, Options{})
	keep := mustTrack(t, s, "Keep")
	gone := mustTrack(t, s, "Gone")

	hKeep := newFakeHandle(10)
	hGone1 := newFakeHandle(10)
	hGone2 := newFakeHandle(10)
	mustClip(t, s, Clip{TrackID: keep.ID, Handle: hKeep})
	mustClip(t, s, Clip{TrackID: gone.ID, Handle: hGone1})
	mustClip(t, s, Clip{TrackID: gone.ID, Start: 1, Handle: hGone2})

	s.Play()
	if err := s.DeleteTrack(gone.ID); err != nil {
		t.Fatalf("delete track: %v", err)
	}

	if len(s.Tracks()) != 1 {
		t.Errorf("expected 1 track, got %d", len(s.Tracks()))
	}
	clips := s.Clips()
	if len(clips) != 1 || clips[0].TrackID != keep.ID {
		t.Errorf("expected only the kept clip, got %+v", clips)
	}
	for _, h := range []*fakeHandle{hGone1, hGone2} {
		if paused, _, _ := h.state(); !paused {
			t.Error("expected removed clip handle paused")
		}
		if !h.isClosed() {
			t.Error("expected removed clip handle closed")
		}
	}
	if paused, _, _ := hKeep.state(); paused {
		t.Error("expected remaining clip to keep playing")
	}

	if err := s.DeleteTrack(gone.ID); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestDropClip(t *testing.T) {
	s := newManualSession(t, Options{})
	a := mustTrack(t, s, "A")
	b := mustTrack(t, s, "B")
	c := mustClip(t, s, Clip{TrackID: a.ID, Start: 1, Duration: 3})

	if err := s.BeginDrag(c.ID); err != nil {
		t.Fatalf("begin drag: %v", err)
	}
	if s.Drag().State != "dragging" {
		t.Errorf("expected dragging, got %s", s.Drag().State)
	}
	moved, ok := s.DropClip(237, b.ID)
	if !ok {
		t.Fatal("expected drop to succeed")
	}
	if moved.TrackID != b.ID || moved.Start != 2.5 {
		t.Errorf("expected clip on B at 2.5, got %s at %v", moved.TrackID, moved.Start)
	}

	s.BeginDrag(c.ID)
	moved, _ = s.DropClip(-50, b.ID)
	if moved.Start != 0 {
		t.Errorf("expected negative drop clamped to 0, got %v", moved.Start)
	}

	s.BeginDrag(c.ID)
	if _, ok := s.DropClip(400, "missing"); ok {
		t.Error("expected drop onto missing track to be ignored")
	}
	got, _ := s.Clip(c.ID)
	if got.TrackID != b.ID || got.Start != 0 {
		t.Errorf("expected clip unchanged, got %s at %v", got.TrackID, got.Start)
	}
	if s.Drag().State != "idle" {
		t.Errorf("expected idle after drop, got %s", s.Drag().State)
	}

	if _, ok := s.DropClip(100, b.ID); ok {
		t.Error("expected drop without drag to be ignored")
	}
}

func TestDeletingDraggedClipCancelsDrag(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")
	c := mustClip(t, s, Clip{TrackID: tr.ID, Duration: 1})

	s.BeginDrag(c.ID)
	if err := s.RemoveClip(c.ID); err != nil {
		t.Fatalf("remove clip: %v", err)
	}
	if s.Drag().State != "idle" {
		t.Errorf("expected drag cancelled, got %s", s.Drag().State)
	}
}

func TestSeekClampsAndIsIdempotent(t *testing.T) {
	s := newManualSession(t, Options{})

	if got := s.Seek(-5); got != 0 {
		t.Errorf("expected clamp to 0, got %v", got)
	}
	if got := s.Seek(1000); got != DefaultMinLength {
		t.Errorf("expected clamp to %v, got %v", DefaultMinLength, got)
	}

	tr := mustTrack(t, s, "")
	h := newFakeHandle(4)
	mustClip(t, s, Clip{TrackID: tr.ID, Start: 1, Handle: h})

	s.Seek(3)
	first := s.Snapshot()
	firstHandle := h.lastSeek()
	s.Seek(3)
	second := s.Snapshot()

	if first.Position != second.Position || first.Playing != second.Playing {
		t.Errorf("expected identical state, got %+v and %+v", first.TransportState, second.TransportState)
	}
	if h.lastSeek() != firstHandle {
		t.Errorf("expected handle at %v, got %v", firstHandle, h.lastSeek())
	}
}

func TestDurationFollowsLatestClip(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")

	if s.Duration() != 60 {
		t.Errorf("expected minimum 60, got %v", s.Duration())
	}
	c := mustClip(t, s, Clip{TrackID: tr.ID, Start: 50, Duration: 20})
	if s.Duration() != 70 {
		t.Errorf("expected 70, got %v", s.Duration())
	}

	s.Seek(65)
	s.RemoveClip(c.ID)
	if s.Duration() != 60 {
		t.Errorf("expected 60 after removal, got %v", s.Duration())
	}
	if s.Position() != 60 {
		t.Errorf("expected position pulled back to 60, got %v", s.Position())
	}
}

func TestEndOfSession(t *testing.T) {
	tests := []struct {
		name     string
		atEnd    EndBehavior
		position float64
	}{
		{"reset", EndReset, 0},
		{"clamp", EndClamp, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &recordingNotifier{}
			s := newManualSession(t, Options{MinLength: 0.1, AtEnd: tt.atEnd, Notifier: n})

			s.Play()
			tick(s, 10)

			if s.Playing() {
				t.Error("expected transport stopped at end")
			}
			if !almostEqual(s.Position(), tt.position) {
				t.Errorf("expected position %v, got %v", tt.position, s.Position())
			}
			if n.count() != 1 {
				t.Errorf("expected one notification, got %d", n.count())
			}
		})
	}
}

func TestPauseBehavior(t *testing.T) {
	tests := []struct {
		name    string
		onPause PauseBehavior
		want    float64
	}{
		{"preserve", PausePreserve, 0.1},
		{"reset", PauseReset, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newManualSession(t, Options{OnPause: tt.onPause})
			tr := mustTrack(t, s, "")
			h := newFakeHandle(5)
			mustClip(t, s, Clip{TrackID: tr.ID, Handle: h})

			s.Play()
			tick(s, 5, h)
			s.Pause()

			_, pos, _ := h.state()
			if !almostEqual(pos, tt.want) {
				t.Errorf("expected handle at %v, got %v", tt.want, pos)
			}
		})
	}
}

func TestStartFailureRetries(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")
	h := newFakeHandle(5)
	h.playFails = 1
	mustClip(t, s, Clip{TrackID: tr.ID, Handle: h})

	s.Play()
	if paused, _, _ := h.state(); !paused {
		t.Fatal("expected first start to fail")
	}
	if !s.Playing() {
		t.Error("expected transport to keep playing after a clip failure")
	}

	tick(s, 1, h)
	paused, _, plays := h.state()
	if paused || plays != 2 {
		t.Errorf("expected retry on next tick, paused=%v plays=%d", paused, plays)
	}
}

func TestAsyncErrorNotifiesAndRetries(t *testing.T) {
	n := &recordingNotifier{}
	s := newManualSession(t, Options{Notifier: n})
	tr := mustTrack(t, s, "")
	h := newFakeHandle(5)
	mustClip(t, s, Clip{TrackID: tr.ID, Name: "vox", Handle: h})

	s.Play()
	h.fail(errors.New("device lost"))

	if n.count() != 1 || n.levels[0] != LevelWarn {
		t.Fatalf("expected one warning, got %v", n.messages)
	}

	tick(s, 1, h)
	if paused, _, plays := h.state(); paused || plays != 2 {
		t.Errorf("expected restart after error, paused=%v plays=%d", paused, plays)
	}
}

func TestDurationResolvedLater(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")
	h := newFakeHandle(0)
	c := mustClip(t, s, Clip{TrackID: tr.ID, Start: 58, Handle: h})

	s.Play()
	if paused, _, _ := h.state(); !paused {
		t.Error("expected unresolved clip to stay silent")
	}

	h.resolve(4)
	got, _ := s.Clip(c.ID)
	if got.Duration != 4 {
		t.Errorf("expected duration 4, got %v", got.Duration)
	}
	if s.Duration() != 62 {
		t.Errorf("expected session length 62, got %v", s.Duration())
	}
}

func TestAttachHandleWhilePlaying(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")
	c := mustClip(t, s, Clip{TrackID: tr.ID, Duration: 5})

	s.Play()
	h := newFakeHandle(5)
	if err := s.AttachHandle(c.ID, h); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if paused, _, _ := h.state(); paused {
		t.Error("expected attached handle to start in window")
	}

	replacement := newFakeHandle(5)
	s.AttachHandle(c.ID, replacement)
	if !h.isClosed() {
		t.Error("expected replaced handle closed")
	}

	if err := s.AttachHandle("missing", h); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("expected ErrClipNotFound, got %v", err)
	}
}

func TestMoveClipWhilePlayingRestartsAtNewOffset(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")
	h := newFakeHandle(10)
	c := mustClip(t, s, Clip{TrackID: tr.ID, Handle: h})

	s.Seek(4)
	s.Play()
	if err := s.MoveClip(c.ID, tr.ID, 3); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := h.lastSeek(); !almostEqual(got, 1) {
		t.Errorf("expected handle seeked to 1, got %v", got)
	}

	if err := s.MoveClip(c.ID, "missing", 0); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestAddTrackDefaults(t *testing.T) {
	s := newManualSession(t, Options{})

	first := mustTrack(t, s, "")
	second := mustTrack(t, s, "")
	if first.Name != "Track 1" || second.Name != "Track 2" {
		t.Errorf("expected Track 1 and Track 2, got %q and %q", first.Name, second.Name)
	}
	if first.Type != TrackAudio {
		t.Errorf("expected Audio, got %s", first.Type)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Error("expected distinct generated ids")
	}

	if _, err := s.AddTrack(Track{Type: "Banjo"}); !errors.Is(err, ErrInvalidTrackType) {
		t.Errorf("expected ErrInvalidTrackType, got %v", err)
	}
	if _, err := s.AddTrack(Track{ID: first.ID}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestAddClipRequiresTrack(t *testing.T) {
	s := newManualSession(t, Options{})

	if _, err := s.AddClip(Clip{TrackID: "nope"}); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
	if len(s.Clips()) != 0 {
		t.Error("expected no clip stored")
	}
}

func TestStopRewindsEverything(t *testing.T) {
	s := newManualSession(t, Options{})
	tr := mustTrack(t, s, "")
	h := newFakeHandle(5)
	mustClip(t, s, Clip{TrackID: tr.ID, Handle: h})

	s.Play()
	tick(s, 10, h)
	s.Stop()

	if s.Position() != 0 || s.Playing() {
		t.Errorf("expected stopped at 0, got %+v", s.State())
	}
	if paused, pos, _ := h.state(); !paused || pos != 0 {
		t.Errorf("expected handle paused at 0, paused=%v pos=%v", paused, pos)
	}
}

func TestBackgroundTicker(t *testing.T) {
	s := NewSession(Options{TickInterval: 2 * time.Millisecond})
	defer s.Close()

	s.Play()
	time.Sleep(30 * time.Millisecond)
	s.Pause()

	pos := s.Position()
	if pos <= 0 {
		t.Fatalf("expected playhead to advance, got %v", pos)
	}

	time.Sleep(10 * time.Millisecond)
	if s.Position() != pos {
		t.Errorf("expected playhead frozen after pause, got %v then %v", pos, s.Position())
	}
}

func TestCloseClosesHandles(t *testing.T) {
	s := NewSession(Options{Manual: true})
	tr, _ := s.AddTrack(Track{})
	h := newFakeHandle(5)
	s.AddClip(Clip{TrackID: tr.ID, Handle: h})

	s.Play()
	s.Close()

	if !h.isClosed() {
		t.Error("expected handle closed")
	}
	s.Play()
	if s.Playing() {
		t.Error("expected closed session to ignore Play")
	}
}
