// ABOUTME: Malgo-based microphone capture
// ABOUTME: Buffers 16-bit input frames from miniaudio until the take is stopped
package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/harperreed/lanes/pkg/audio"
	"go.uber.org/zap"
)

// ErrStopped is returned by Stop on a take that already ended
var ErrStopped = errors.New("capture already stopped")

// Config describes the capture format
type Config struct {
	SampleRate int
	Channels   int
	Logger     *zap.Logger
}

// Mic is one running capture from the default input device
type Mic struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
	data     []byte
	stopped  bool
	log      *zap.Logger
}

// Start opens the default capture device and begins buffering input
func Start(cfg Config) (*Mic, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	m := &Mic{
		malgoCtx: mctx,
		format: audio.Format{
			Codec:      "pcm",
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			BitDepth:   16,
		},
		log: cfg.Logger,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			m.capture(pInputSamples)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		m.freeContext()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		m.freeContext()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}
	m.device = device

	m.log.Info("capture started",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels))
	return m, nil
}

func (m *Mic) capture(in []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.data = append(m.data, in...)
	}
}

// Stop ends the take, releases the device and returns what was recorded
func (m *Mic) Stop() (*audio.PCM, error) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, ErrStopped
	}
	m.stopped = true
	m.mu.Unlock()

	// the data callback takes m.mu, so the device stops without it held
	if err := m.device.Stop(); err != nil {
		m.log.Warn("capture device stop error", zap.Error(err))
	}
	m.device.Uninit()
	m.freeContext()

	m.mu.Lock()
	data := m.data
	m.data = nil
	m.mu.Unlock()

	pcm := fromS16LE(data, m.format)
	m.log.Info("capture stopped", zap.Float64("seconds", pcm.Seconds()))
	return pcm, nil
}

func (m *Mic) freeContext() {
	if err := m.malgoCtx.Uninit(); err != nil {
		m.log.Warn("malgo context uninit error", zap.Error(err))
	}
	m.malgoCtx.Free()
}

// fromS16LE unpacks interleaved 16-bit little-endian frames. A trailing
// partial frame is dropped.
func fromS16LE(data []byte, format audio.Format) *audio.PCM {
	frameBytes := 2 * format.Channels
	samples := make([]int32, len(data)/frameBytes*format.Channels)
	for i := range samples {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return &audio.PCM{Format: format, Samples: samples}
}
