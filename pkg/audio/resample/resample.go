// ABOUTME: Linear resampler and channel mixer for decoded clips
// ABOUTME: Converts whole PCM buffers to the output device format
package resample

import "github.com/harperreed/lanes/pkg/audio"

// Convert returns pcm at the given sample rate and channel count. The input
// is returned as is when it already matches.
func Convert(pcm *audio.PCM, rate, channels int) *audio.PCM {
	if pcm.Format.SampleRate == rate && pcm.Format.Channels == channels {
		return pcm
	}

	samples := Remix(pcm.Samples, pcm.Format.Channels, channels)
	samples = Linear(samples, channels, pcm.Format.SampleRate, rate)

	format := pcm.Format
	format.SampleRate = rate
	format.Channels = channels
	return &audio.PCM{Format: format, Samples: samples}
}

// Remix converts interleaved samples between channel counts. Mono is copied
// to every output channel, anything wider is folded down by averaging.
func Remix(samples []int32, from, to int) []int32 {
	if from == to || from <= 0 || to <= 0 {
		return samples
	}

	frames := len(samples) / from
	out := make([]int32, frames*to)

	for f := 0; f < frames; f++ {
		in := samples[f*from : (f+1)*from]
		for ch := 0; ch < to; ch++ {
			switch {
			case from == 1:
				out[f*to+ch] = in[0]
			case to == 1:
				var sum int64
				for _, s := range in {
					sum += int64(s)
				}
				out[f*to] = int32(sum / int64(from))
			case ch < from:
				out[f*to+ch] = in[ch]
			default:
				out[f*to+ch] = in[from-1]
			}
		}
	}
	return out
}

// Linear resamples interleaved samples using linear interpolation
func Linear(samples []int32, channels, fromRate, toRate int) []int32 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || channels <= 0 {
		return samples
	}

	inFrames := len(samples) / channels
	if inFrames == 0 {
		return nil
	}
	ratio := float64(fromRate) / float64(toRate)
	outFrames := int(int64(inFrames) * int64(toRate) / int64(fromRate))
	out := make([]int32, outFrames*channels)

	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		next := idx + 1
		if next >= inFrames {
			next = inFrames - 1
		}

		for ch := 0; ch < channels; ch++ {
			a := float64(samples[idx*channels+ch])
			b := float64(samples[next*channels+ch])
			out[i*channels+ch] = int32(a*(1.0-frac) + b*frac)
		}
	}
	return out
}
