// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, PCM and sample conversion functions
// Package audio provides the PCM types shared by the decoders, the resampler
// and the output device.
//
// Decoded clips are held in memory as interleaved int32 samples in the 24-bit
// range, whatever the source bit depth:
//
//	pcm, err := decode.File("drums.flac")
//	fmt.Printf("%d Hz, %d ch, %.2fs\n",
//	    pcm.Format.SampleRate, pcm.Format.Channels, pcm.Seconds())
//
//	// Convert for a 16-bit device
//	s16 := audio.SampleToInt16(pcm.Samples[0])
package audio
