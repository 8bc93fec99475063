// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats, decoded clips and sample conversions
package audio

import "time"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a PCM stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// PCM is a fully decoded clip. Samples are interleaved and scaled to the
// 24-bit range regardless of the source bit depth.
type PCM struct {
	Format  Format
	Samples []int32
}

// Frames returns the number of sample frames
func (p *PCM) Frames() int {
	if p.Format.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Format.Channels
}

// Seconds returns the clip length in seconds
func (p *PCM) Seconds() float64 {
	if p.Format.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.Format.SampleRate)
}

// Duration returns the clip length
func (p *PCM) Duration() time.Duration {
	return time.Duration(p.Seconds() * float64(time.Second))
}

// SampleToInt16 converts a 24-bit sample to int16 for 16-bit playback
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 to the 24-bit range
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// ScaleTo24 moves a sample of the given bit depth into the 24-bit range
func ScaleTo24(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}

// SampleFromFloat converts a [-1, 1] float sample to the 24-bit range,
// clipping out-of-range input
func SampleFromFloat(v float64) int32 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int32(v * Max24Bit)
}

// SampleToFloat converts a 24-bit sample to [-1, 1]
func SampleToFloat(sample int32) float64 {
	return float64(sample) / Max24Bit
}
