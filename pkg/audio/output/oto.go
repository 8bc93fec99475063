// ABOUTME: Clip handle backed by an oto player
// ABOUTME: Seekable in-memory playback with asynchronous error reporting
package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/harperreed/lanes/pkg/audio"
	"go.uber.org/zap"
)

const errorPollInterval = 250 * time.Millisecond

// OtoHandle plays one decoded clip
type OtoHandle struct {
	mu sync.Mutex

	player     *oto.Player
	frameBytes int64
	rate       int64
	size       int64
	duration   float64
	log        *zap.Logger

	onError  func(error)
	reported bool
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
}

func newOtoHandle(octx *oto.Context, pcm *audio.PCM, log *zap.Logger) *OtoHandle {
	data := toInt16LE(pcm.Samples)
	ctx, cancel := context.WithCancel(context.Background())

	h := &OtoHandle{
		player:     octx.NewPlayer(bytes.NewReader(data)),
		frameBytes: int64(pcm.Format.Channels * 2),
		rate:       int64(pcm.Format.SampleRate),
		size:       int64(len(data)),
		duration:   pcm.Seconds(),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}
	go h.watchErrors()
	return h
}

// Play starts playback from the current position
func (h *OtoHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if err := h.player.Err(); err != nil {
		return fmt.Errorf("player failed: %w", err)
	}
	h.player.Play()
	return nil
}

// Pause stops playback, keeping the position
func (h *OtoHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	h.player.Pause()
	return nil
}

// Seek moves to a clip-local position in seconds
func (h *OtoHandle) Seek(seconds float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	offset := byteOffset(seconds, h.rate, h.frameBytes, h.size)
	if _, err := h.player.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %.3fs failed: %w", seconds, err)
	}
	return nil
}

// Paused reports whether the player is silent, including after the clip ran
// out of samples
func (h *OtoHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return true
	}
	return !h.player.IsPlaying()
}

// Duration returns the clip length in seconds
func (h *OtoHandle) Duration() float64 {
	return h.duration
}

// OnDuration calls fn right away; the clip is fully decoded
func (h *OtoHandle) OnDuration(fn func(seconds float64)) {
	fn(h.duration)
}

// OnError registers fn for player failures
func (h *OtoHandle) OnError(fn func(err error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = fn
}

// Close stops the player and releases it
func (h *OtoHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.cancel()
	h.player.Pause()
	if err := h.player.Close(); err != nil {
		return fmt.Errorf("failed to close player: %w", err)
	}
	return nil
}

// watchErrors reports the first player error through OnError
func (h *OtoHandle) watchErrors() {
	ticker := time.NewTicker(errorPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.mu.Lock()
			err := h.player.Err()
			fn := h.onError
			report := err != nil && !h.reported
			if report {
				h.reported = true
			}
			h.mu.Unlock()

			if report {
				h.log.Warn("oto player error", zap.Error(err))
				if fn != nil {
					fn(err)
				}
			}
		}
	}
}

// byteOffset converts seconds to a frame-aligned byte offset within size
func byteOffset(seconds float64, rate, frameBytes, size int64) int64 {
	if seconds <= 0 {
		return 0
	}
	offset := int64(seconds*float64(rate)) * frameBytes
	if offset > size {
		offset = size
	}
	return offset
}
