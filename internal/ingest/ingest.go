// ABOUTME: Clip ingestion from files
// ABOUTME: Places clips immediately and decodes audio in the background
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/harperreed/lanes/pkg/audio"
	"github.com/harperreed/lanes/pkg/audio/decode"
	"github.com/harperreed/lanes/pkg/audio/output"
	"github.com/harperreed/lanes/pkg/timeline"
	"go.uber.org/zap"
)

// DefaultMIDIDuration is used when a MIDI file's length cannot be read
const DefaultMIDIDuration = 30.0

var (
	// ErrRejected is returned for files outside the accepted extensions
	ErrRejected = errors.New("file type not accepted")
	// ErrLoadFailed is returned by AddFileNow when the clip could not be decoded
	ErrLoadFailed = errors.New("clip failed to load")
)

var accepted = regexp.MustCompile(`(?i)\.(wav|mp3|flac|ogg|aac|m4a|mid|midi)$`)

var midiExt = regexp.MustCompile(`(?i)\.(mid|midi)$`)

// Accepts reports whether a dropped file is taken onto the timeline
func Accepts(path string) bool {
	return accepted.MatchString(path)
}

// IsMIDI reports whether path names a MIDI file
func IsMIDI(path string) bool {
	return midiExt.MatchString(path)
}

// HandleFunc wraps decoded audio in a playable handle
type HandleFunc func(pcm *audio.PCM) timeline.MediaHandle

// VirtualHandles is a HandleFunc producing silent handles of the decoded
// length, for hosts without an audio device
func VirtualHandles(pcm *audio.PCM) timeline.MediaHandle {
	return output.NewVirtual(pcm.Seconds())
}

// Config configures an Ingestor
type Config struct {
	Session *timeline.Session

	// NewHandle defaults to VirtualHandles
	NewHandle HandleFunc
	// Decode defaults to decode.File
	Decode func(path string) (*audio.PCM, error)

	// Capture enables recording; nil means no input device
	Capture CaptureFunc
	// RecordDir defaults to DefaultRecordDir
	RecordDir string

	Logger   *zap.Logger
	Notifier timeline.Notifier
}

// Ingestor turns files into clips
type Ingestor struct {
	session   *timeline.Session
	newHandle HandleFunc
	decode    func(string) (*audio.PCM, error)
	log       *zap.Logger
	notify    timeline.Notifier

	capture   CaptureFunc
	recordDir string
	recMu     sync.Mutex
	take      *take

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an ingestor for a session
func New(cfg Config) *Ingestor {
	if cfg.NewHandle == nil {
		cfg.NewHandle = VirtualHandles
	}
	if cfg.Decode == nil {
		cfg.Decode = decode.File
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = timeline.NotifierFunc(func(timeline.Level, string) {})
	}
	if cfg.RecordDir == "" {
		cfg.RecordDir = DefaultRecordDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Ingestor{
		session:   cfg.Session,
		newHandle: cfg.NewHandle,
		decode:    cfg.Decode,
		log:       cfg.Logger,
		notify:    cfg.Notifier,
		capture:   cfg.Capture,
		recordDir: cfg.RecordDir,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// AddFile places the file at path on a track at start seconds. The clip is
// returned straight away; audio files get their handle and duration once
// decoding finishes, and are removed again if it fails.
func (in *Ingestor) AddFile(trackID, path string, start float64) (timeline.Clip, error) {
	added, err := in.place(trackID, path, start)
	if err != nil {
		return timeline.Clip{}, err
	}
	in.Load(added)
	return added, nil
}

// AddFileNow is AddFile but decodes before returning, so the clip comes back
// with its duration set
func (in *Ingestor) AddFileNow(trackID, path string, start float64) (timeline.Clip, error) {
	added, err := in.place(trackID, path, start)
	if err != nil {
		return timeline.Clip{}, err
	}

	if added.Kind == timeline.KindMIDI {
		in.loadMIDI(added)
	} else {
		in.loadAudio(added)
	}

	loaded, ok := in.session.Clip(added.ID)
	if !ok {
		return timeline.Clip{}, fmt.Errorf("%w: %s", ErrLoadFailed, added.Name)
	}
	return loaded, nil
}

func (in *Ingestor) place(trackID, path string, start float64) (timeline.Clip, error) {
	if !Accepts(path) {
		return timeline.Clip{}, fmt.Errorf("%w: %s", ErrRejected, filepath.Base(path))
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	clip := timeline.Clip{
		TrackID: trackID,
		Name:    filepath.Base(path),
		Path:    path,
		Start:   start,
		Kind:    timeline.KindAudio,
	}
	if IsMIDI(path) {
		clip.Kind = timeline.KindMIDI
	}
	return in.session.AddClip(clip)
}

// Load attaches a handle to a clip that is already on the timeline, for
// example one restored from a project file
func (in *Ingestor) Load(clip timeline.Clip) {
	if clip.Kind == timeline.KindMIDI || IsMIDI(clip.Path) {
		in.loadMIDI(clip)
		return
	}

	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		in.loadAudio(clip)
	}()
}

func (in *Ingestor) loadMIDI(clip timeline.Clip) {
	length := clip.Duration
	if length <= 0 {
		var err error
		length, err = MIDILength(clip.Path)
		if err != nil {
			in.log.Debug("midi length unavailable, using default",
				zap.String("path", clip.Path), zap.Error(err))
			length = DefaultMIDIDuration
		}
	}

	h := output.NewVirtual(length)
	if err := in.session.AttachHandle(clip.ID, h); err != nil {
		h.Close()
	}
}

func (in *Ingestor) loadAudio(clip timeline.Clip) {
	pcm, err := in.decode(clip.Path)
	if in.ctx.Err() != nil {
		return
	}
	if err != nil {
		in.log.Warn("clip decode failed", zap.String("path", clip.Path), zap.Error(err))
		if rmErr := in.session.RemoveClip(clip.ID); rmErr != nil && !errors.Is(rmErr, timeline.ErrClipNotFound) {
			in.log.Warn("failed to remove clip", zap.String("clip", clip.ID), zap.Error(rmErr))
		}
		in.notify.Notify(timeline.LevelError, fmt.Sprintf("Could not load %s: %s", clip.Name, reason(err)))
		return
	}

	h := in.newHandle(pcm)
	if err := in.session.AttachHandle(clip.ID, h); err != nil {
		// the clip was removed while decoding
		h.Close()
		return
	}
	in.log.Info("clip loaded",
		zap.String("clip", clip.ID),
		zap.String("codec", pcm.Format.Codec),
		zap.Float64("duration", pcm.Seconds()))
}

// Wait blocks until every pending decode has finished
func (in *Ingestor) Wait() {
	in.wg.Wait()
}

// Close abandons pending decodes and any running take, and waits for the
// decodes to return
func (in *Ingestor) Close() {
	in.abandonTake()
	in.cancel()
	in.wg.Wait()
}

func reason(err error) string {
	if errors.Is(err, decode.ErrUnsupported) {
		return "unsupported format"
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
