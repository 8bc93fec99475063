// ABOUTME: Timeline playback engine package
// ABOUTME: Shared playhead, track/clip registries, clip sync and placement
// Package timeline keeps a shared playhead across audio clips placed on
// tracks and drives every clip's media handle so that it plays exactly while
// the playhead is inside the clip.
//
// A Session owns the whole state: the track and clip registries, the
// transport clock, the playback synchronizer and the placement editor. All
// Session methods are safe for concurrent use; the clock's tick goroutine and
// host commands are serialized on one lock.
//
// Example:
//
//	s := timeline.NewSession(timeline.Options{})
//	track, _ := s.AddTrack(timeline.Track{Name: "Drums"})
//	clip, _ := s.AddClip(timeline.Clip{TrackID: track.ID, Name: "loop", Handle: h})
//	s.Play()
//	defer s.Close()
package timeline
