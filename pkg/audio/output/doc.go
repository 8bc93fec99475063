// ABOUTME: Audio output package for clip playback
// ABOUTME: Provides the oto device, oto-backed and virtual clip handles
// Package output plays clips.
//
// A Device wraps the single oto context a process may own. Each clip gets
// its own OtoHandle, a seekable player over the decoded samples; oto mixes
// all players. VirtualHandle has the same controls without producing sound.
//
// Example:
//
//	dev, err := output.Open(output.Config{SampleRate: 44100, Channels: 2})
//	pcm, err := decode.File("bass.mp3")
//	h := dev.NewHandle(pcm)
//	h.Seek(1.5)
//	h.Play()
package output
