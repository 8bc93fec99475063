// ABOUTME: WAV and Ogg Vorbis codecs through beep
// ABOUTME: Drains beep streamers into int32 samples and writes PCM back as WAV
package decode

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/harperreed/lanes/pkg/audio"
)

// WAV decodes a RIFF WAVE stream
func WAV(r io.Reader) (*audio.PCM, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav decoder: %w", err)
	}
	defer streamer.Close()
	return drain("wav", streamer, format)
}

// Vorbis decodes an Ogg Vorbis stream
func Vorbis(r io.Reader) (*audio.PCM, error) {
	streamer, format, err := vorbis.Decode(io.NopCloser(r))
	if err != nil {
		return nil, fmt.Errorf("failed to create vorbis decoder: %w", err)
	}
	defer streamer.Close()
	return drain("vorbis", streamer, format)
}

// drain reads a streamer to the end. beep streams are always stereo floats.
func drain(codec string, s beep.StreamSeekCloser, f beep.Format) (*audio.PCM, error) {
	samples := make([]int32, 0, s.Len()*2)
	buf := make([][2]float64, 4096)

	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			samples = append(samples, audio.SampleFromFloat(frame[0]), audio.SampleFromFloat(frame[1]))
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%s decode error: %w", codec, err)
	}

	return &audio.PCM{
		Format: audio.Format{
			Codec:      codec,
			SampleRate: int(f.SampleRate),
			Channels:   2,
			BitDepth:   f.Precision * 8,
		},
		Samples: samples,
	}, nil
}

// WriteWAV encodes pcm as 16-bit stereo WAV. Mono input is duplicated to
// both channels.
func WriteWAV(w io.WriteSeeker, pcm *audio.PCM) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(pcm.Format.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(w, &pcmStreamer{pcm: pcm}, format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return nil
}

// pcmStreamer plays a PCM buffer as a beep.Streamer
type pcmStreamer struct {
	pcm *audio.PCM
	pos int
}

func (s *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	ch := s.pcm.Format.Channels
	frames := s.pcm.Frames()
	if s.pos >= frames {
		return 0, false
	}

	n := 0
	for n < len(samples) && s.pos < frames {
		i := s.pos * ch
		left := audio.SampleToFloat(s.pcm.Samples[i])
		right := left
		if ch > 1 {
			right = audio.SampleToFloat(s.pcm.Samples[i+1])
		}
		samples[n] = [2]float64{left, right}
		n++
		s.pos++
	}
	return n, true
}

func (s *pcmStreamer) Err() error {
	return nil
}
