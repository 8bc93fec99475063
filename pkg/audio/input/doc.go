// ABOUTME: Audio input package for recording takes
// ABOUTME: Provides microphone capture through malgo
// Package input records audio from the default capture device.
//
// Example:
//
//	mic, err := input.Start(input.Config{SampleRate: 44100, Channels: 1})
//	time.Sleep(5 * time.Second)
//	pcm, err := mic.Stop()
package input
