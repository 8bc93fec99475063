// ABOUTME: Recorded takes
// ABOUTME: Captures input audio, writes it as WAV and places it as a clip
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harperreed/lanes/pkg/audio"
	"github.com/harperreed/lanes/pkg/audio/decode"
	"github.com/harperreed/lanes/pkg/timeline"
	"go.uber.org/zap"
)

// DefaultRecordDir is where takes are written when Config.RecordDir is empty
const DefaultRecordDir = "recordings"

var (
	// ErrNoCapture is returned when no input device was configured
	ErrNoCapture = errors.New("recording not available")
	// ErrRecording is returned when a take is already running
	ErrRecording = errors.New("already recording")
	// ErrNotRecording is returned by StopRecording without a running take
	ErrNotRecording = errors.New("not recording")
	// ErrEmptyTake is returned when the input delivered no audio
	ErrEmptyTake = errors.New("nothing was recorded")
)

// Capture is a running input device
type Capture interface {
	Stop() (*audio.PCM, error)
}

// CaptureFunc opens the input device and starts a take
type CaptureFunc func() (Capture, error)

type take struct {
	trackID string
	start   float64
	began   time.Time
	capture Capture
}

// StartRecording begins a take that will land on trackID at start seconds
func (in *Ingestor) StartRecording(trackID string, start float64) error {
	if in.capture == nil {
		return ErrNoCapture
	}
	if _, ok := in.session.Track(trackID); !ok {
		return fmt.Errorf("%w: %s", timeline.ErrTrackNotFound, trackID)
	}

	in.recMu.Lock()
	defer in.recMu.Unlock()

	if in.take != nil {
		return ErrRecording
	}
	c, err := in.capture()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	in.take = &take{trackID: trackID, start: start, began: time.Now(), capture: c}
	in.log.Info("recording started", zap.String("track", trackID), zap.Float64("start", start))
	return nil
}

// StopRecording ends the take, saves it under the record directory and
// places it as a loaded clip
func (in *Ingestor) StopRecording() (timeline.Clip, error) {
	in.recMu.Lock()
	t := in.take
	in.take = nil
	in.recMu.Unlock()

	if t == nil {
		return timeline.Clip{}, ErrNotRecording
	}

	pcm, err := t.capture.Stop()
	if err != nil {
		return timeline.Clip{}, fmt.Errorf("failed to stop input: %w", err)
	}
	if pcm.Frames() == 0 {
		return timeline.Clip{}, ErrEmptyTake
	}

	path := filepath.Join(in.recordDir, fmt.Sprintf("take-%s.wav", t.began.Format("20060102-150405.000")))
	if err := writeTake(path, pcm); err != nil {
		return timeline.Clip{}, err
	}

	clip, err := in.place(t.trackID, path, t.start)
	if err != nil {
		return timeline.Clip{}, err
	}
	h := in.newHandle(pcm)
	if err := in.session.AttachHandle(clip.ID, h); err != nil {
		h.Close()
		return timeline.Clip{}, err
	}

	loaded, _ := in.session.Clip(clip.ID)
	in.log.Info("take recorded",
		zap.String("clip", clip.ID),
		zap.String("path", path),
		zap.Float64("duration", pcm.Seconds()))
	return loaded, nil
}

// Recording reports whether a take is running
func (in *Ingestor) Recording() bool {
	in.recMu.Lock()
	defer in.recMu.Unlock()
	return in.take != nil
}

// abandonTake stops a running take without keeping it
func (in *Ingestor) abandonTake() {
	in.recMu.Lock()
	t := in.take
	in.take = nil
	in.recMu.Unlock()

	if t == nil {
		return
	}
	if _, err := t.capture.Stop(); err != nil {
		in.log.Warn("failed to stop input", zap.Error(err))
	}
	in.log.Info("recording abandoned", zap.String("track", t.trackID))
}

func writeTake(path string, pcm *audio.PCM) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create take: %w", err)
	}
	if err := decode.WriteWAV(f, pcm); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write take: %w", err)
	}
	return nil
}
