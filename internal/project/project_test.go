// ABOUTME: Tests for project files
// ABOUTME: Tests save/load through a session and validation errors
package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/lanes/pkg/timeline"
)

func TestSaveAndApply(t *testing.T) {
	dir := t.TempDir()
	src := timeline.NewSession(timeline.Options{Manual: true})
	defer src.Close()

	drums, _ := src.AddTrack(timeline.Track{Name: "Drums"})
	keys, _ := src.AddTrack(timeline.Track{Name: "Keys", Type: timeline.TrackMIDI})
	src.AddClip(timeline.Clip{TrackID: drums.ID, Name: "beat.wav", Path: filepath.Join(dir, "audio", "beat.wav"), Start: 2.5, Duration: 8})
	src.AddClip(timeline.Clip{TrackID: keys.ID, Name: "chords.mid", Path: "/elsewhere/chords.mid", Start: 0, Duration: 30, Kind: timeline.KindMIDI})

	path := filepath.Join(dir, "song.lanes.yaml")
	f := FromSession("Song", dir, src)
	if f.Clips[0].Path != filepath.Join("audio", "beat.wav") {
		t.Errorf("expected relative path, got %s", f.Clips[0].Path)
	}
	if err := Save(path, f); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	dst := timeline.NewSession(timeline.Options{Manual: true})
	defer dst.Close()

	placed, err := loaded.Apply(dst, dir)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if loaded.Name != "Song" || len(placed) != 2 {
		t.Fatalf("expected 2 clips in Song, got %d in %q", len(placed), loaded.Name)
	}

	tracks := dst.Tracks()
	if len(tracks) != 2 || tracks[0].ID != drums.ID || tracks[1].Type != timeline.TrackMIDI {
		t.Errorf("unexpected tracks %+v", tracks)
	}
	if placed[0].Path != filepath.Join(dir, "audio", "beat.wav") || placed[0].Start != 2.5 {
		t.Errorf("unexpected first clip %+v", placed[0])
	}
	if placed[1].Path != "/elsewhere/chords.mid" || placed[1].Kind != timeline.KindMIDI {
		t.Errorf("unexpected second clip %+v", placed[1])
	}
	if dst.Duration() != 60 {
		t.Errorf("expected 60s session, got %v", dst.Duration())
	}
}

func TestApplyRejectsDanglingClip(t *testing.T) {
	f := &File{
		Tracks: []Track{{ID: "t1", Name: "One"}},
		Clips:  []Clip{{ID: "c1", Track: "t2", Name: "lost"}},
	}
	s := timeline.NewSession(timeline.Options{Manual: true})
	defer s.Close()

	_, err := f.Apply(s, "")
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestApplyRejectsBadTrackType(t *testing.T) {
	f := &File{Tracks: []Track{{ID: "t1", Type: "Theremin"}}}
	s := timeline.NewSession(timeline.Options{Manual: true})
	defer s.Close()

	if _, err := f.Apply(s, ""); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("tracks: [unclosed"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestRelativeProjectPathRoundTrips(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)

	if err := os.MkdirAll("proj", 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join("proj", "p.yaml")
	initial := &File{
		Name:   "p",
		Tracks: []Track{{ID: "t1", Name: "One"}},
		Clips:  []Clip{{ID: "c1", Track: "t1", Name: "song.mp3", Path: "song.mp3", Duration: 4}},
	}
	if err := Save(path, initial); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(root, "proj", "song.mp3")
	for round := 1; round <= 3; round++ {
		f, err := Load(path)
		if err != nil {
			t.Fatalf("round %d: load: %v", round, err)
		}
		s := timeline.NewSession(timeline.Options{Manual: true})
		placed, err := f.Apply(s, filepath.Dir(path))
		if err != nil {
			s.Close()
			t.Fatalf("round %d: apply: %v", round, err)
		}
		if placed[0].Path != want {
			t.Errorf("round %d: expected clip path %s, got %s", round, want, placed[0].Path)
		}

		saved := FromSession(f.Name, filepath.Dir(path), s)
		s.Close()
		if saved.Clips[0].Path != "song.mp3" {
			t.Errorf("round %d: expected stored path song.mp3, got %s", round, saved.Clips[0].Path)
		}
		if err := Save(path, saved); err != nil {
			t.Fatalf("round %d: save: %v", round, err)
		}
	}
}

func TestFromSessionRelativeClipPath(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)

	s := timeline.NewSession(timeline.Options{Manual: true})
	defer s.Close()
	tr, _ := s.AddTrack(timeline.Track{Name: "One"})
	s.AddClip(timeline.Clip{TrackID: tr.ID, Name: "take.wav", Path: filepath.Join("proj", "audio", "take.wav"), Duration: 1})

	f := FromSession("p", "proj", s)
	if f.Clips[0].Path != filepath.Join("audio", "take.wav") {
		t.Errorf("expected audio/take.wav, got %s", f.Clips[0].Path)
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
