// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded clips to the device sample rate and layout
// Package resample provides sample rate and channel count conversion for
// whole decoded clips.
//
// Example:
//
//	pcm = resample.Convert(pcm, 44100, 2)
package resample
