// ABOUTME: Oto-based audio output device
// ABOUTME: Owns the process-wide oto context and creates clip handles
package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/harperreed/lanes/pkg/audio"
	"github.com/harperreed/lanes/pkg/audio/resample"
	"go.uber.org/zap"
)

var (
	// ErrFormatMismatch is returned when the device is reopened with another format
	ErrFormatMismatch = errors.New("audio device already open with a different format")
	// ErrClosed is returned by operations on a closed handle
	ErrClosed = errors.New("handle closed")
)

// oto allows one context per process
var (
	sharedMu sync.Mutex
	shared   *Device
)

// Config describes the output format
type Config struct {
	SampleRate int
	Channels   int
	BufferSize time.Duration
	Logger     *zap.Logger
}

// Device is the audio output. Every clip handle plays through its own oto
// player mixed by the shared context.
type Device struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
	log        *zap.Logger
}

// Open initializes the output device, reusing (and resuming) the existing
// context when the format matches
func Open(cfg Config) (*Device, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		if shared.sampleRate != cfg.SampleRate || shared.channels != cfg.Channels {
			return nil, fmt.Errorf("%w: %dHz %dch", ErrFormatMismatch, shared.sampleRate, shared.channels)
		}
		if err := shared.Resume(); err != nil {
			return nil, err
		}
		return shared, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   cfg.BufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	shared = &Device{
		ctx:        ctx,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		log:        cfg.Logger,
	}
	cfg.Logger.Info("audio output initialized",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels))
	return shared, nil
}

// SampleRate returns the device sample rate
func (d *Device) SampleRate() int {
	return d.sampleRate
}

// Channels returns the device channel count
func (d *Device) Channels() int {
	return d.channels
}

// NewHandle converts pcm to the device format and wraps it in a paused
// handle positioned at 0
func (d *Device) NewHandle(pcm *audio.PCM) *OtoHandle {
	converted := resample.Convert(pcm, d.sampleRate, d.channels)
	return newOtoHandle(d.ctx, converted, d.log)
}

// Suspend pauses all output at the device level
func (d *Device) Suspend() error {
	if err := d.ctx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend output: %w", err)
	}
	return nil
}

// Resume resumes device output after Suspend. Open calls it when handing out
// the shared device again.
func (d *Device) Resume() error {
	if err := d.ctx.Resume(); err != nil {
		return fmt.Errorf("failed to resume output: %w", err)
	}
	return nil
}

// toInt16LE packs 24-bit samples as 16-bit little-endian bytes
func toInt16LE(samples []int32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return out
}
