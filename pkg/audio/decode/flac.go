// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC frames to interleaved int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/harperreed/lanes/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLAC decodes a FLAC stream frame by frame
func FLAC(r io.Reader) (*audio.PCM, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create flac decoder: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bits := int(stream.Info.BitsPerSample)
	samples := make([]int32, 0, int(stream.Info.NSamples)*channels)

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode error: %w", err)
		}

		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.ScaleTo24(frame.Subframes[ch].Samples[i], bits))
			}
		}
	}

	return &audio.PCM{
		Format: audio.Format{
			Codec:      "flac",
			SampleRate: int(stream.Info.SampleRate),
			Channels:   channels,
			BitDepth:   bits,
		},
		Samples: samples,
	}, nil
}
