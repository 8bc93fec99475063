// ABOUTME: Shared setup for commands that open a session
// ABOUTME: Wires config, logging, audio devices, ingestion and project files
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/lanes/internal/ingest"
	"github.com/harperreed/lanes/internal/logger"
	"github.com/harperreed/lanes/internal/project"
	"github.com/harperreed/lanes/pkg/audio"
	"github.com/harperreed/lanes/pkg/audio/input"
	"github.com/harperreed/lanes/pkg/audio/output"
	"github.com/harperreed/lanes/pkg/timeline"
	"go.uber.org/zap"
)

// studio is an open session with its collaborators
type studio struct {
	name     string
	path     string // project file, empty for unsaved sessions
	session  *timeline.Session
	ingestor *ingest.Ingestor
	device   *output.Device
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// notifyAll fans a notice out to several notifiers
type notifyAll []timeline.Notifier

func (n notifyAll) Notify(level timeline.Level, message string) {
	for _, to := range n {
		to.Notify(level, message)
	}
}

// logNotices records user-facing notices in the log
var logNotices = timeline.NotifierFunc(func(level timeline.Level, message string) {
	switch level {
	case timeline.LevelError:
		logger.Error(message)
	case timeline.LevelWarn:
		logger.Warn(message)
	default:
		logger.Info(message)
	}
})

// openStudio creates a session and loads path into it when the file exists.
// Extra notifiers receive user-facing notices.
func openStudio(path string, notifiers ...timeline.Notifier) (*studio, error) {
	notify := append(notifyAll{logNotices}, notifiers...)

	st := &studio{path: path, name: "untitled"}
	if path != "" {
		st.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	st.session = timeline.NewSession(timeline.Options{
		TickInterval:    cfg.TickInterval,
		MinLength:       cfg.MinSession,
		PixelsPerSecond: cfg.PixelsPerSecond,
		SnapSeconds:     cfg.SnapSeconds,
		NoSnap:          cfg.SnapSeconds == 0,
		Logger:          logger.Named("timeline"),
		Notifier:        notify,
	})

	newHandle := ingest.VirtualHandles
	var capture ingest.CaptureFunc
	if !headless {
		capture = openMic
		device, err := output.Open(output.Config{
			SampleRate: cfg.SampleRate,
			Channels:   2,
			Logger:     logger.Named("output"),
		})
		if err != nil {
			logger.Warn("audio device unavailable, playing silently", zap.Error(err))
		} else {
			st.device = device
			newHandle = func(pcm *audio.PCM) timeline.MediaHandle {
				return device.NewHandle(pcm)
			}
		}
	}

	recordDir := cfg.RecordDir
	if path != "" && !filepath.IsAbs(recordDir) {
		recordDir = filepath.Join(filepath.Dir(path), recordDir)
	}

	st.ingestor = ingest.New(ingest.Config{
		Session:   st.session,
		NewHandle: newHandle,
		Capture:   capture,
		RecordDir: recordDir,
		Logger:    logger.Named("ingest"),
		Notifier:  notify,
	})

	if path == "" {
		return st, nil
	}

	f, err := project.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("starting new project", zap.String("path", path))
		return st, nil
	}
	if err != nil {
		st.close()
		return nil, err
	}
	if f.Name != "" {
		st.name = f.Name
	}

	clips, err := f.Apply(st.session, filepath.Dir(path))
	if err != nil {
		st.close()
		return nil, err
	}
	for _, c := range clips {
		st.ingestor.Load(c)
	}
	logger.Info("project loaded",
		zap.String("name", st.name),
		zap.Int("tracks", len(f.Tracks)),
		zap.Int("clips", len(clips)))

	return st, nil
}

// openMic starts a take on the default input device
func openMic() (ingest.Capture, error) {
	mic, err := input.Start(input.Config{
		SampleRate: cfg.SampleRate,
		Channels:   1,
		Logger:     logger.Named("input"),
	})
	if err != nil {
		return nil, err
	}
	return mic, nil
}

// watch starts the drop-folder watcher when one is configured. Files land on
// the first track, which is created if the session has none.
func (st *studio) watch(ctx context.Context) error {
	if cfg.IngestDir == "" {
		return nil
	}

	var trackID string
	if tracks := st.session.Tracks(); len(tracks) > 0 {
		trackID = tracks[0].ID
	} else {
		tr, err := st.session.AddTrack(timeline.Track{Name: "Drop Folder"})
		if err != nil {
			return err
		}
		trackID = tr.ID
	}

	w, err := ingest.NewWatcher(st.ingestor, ingest.WatchConfig{
		Dir:      cfg.IngestDir,
		TrackID:  trackID,
		Existing: true,
	})
	if err != nil {
		return err
	}

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("watcher stopped", zap.Error(err))
		}
	}()
	logger.Info("watching drop folder", zap.String("dir", cfg.IngestDir))
	return nil
}

// save writes the session back to its project file
func (st *studio) save() error {
	if st.path == "" {
		return nil
	}
	f := project.FromSession(st.name, filepath.Dir(st.path), st.session)
	if err := project.Save(st.path, f); err != nil {
		return fmt.Errorf("failed to save %s: %w", st.path, err)
	}
	logger.Info("project saved", zap.String("path", st.path))
	return nil
}

func (st *studio) close() {
	st.ingestor.Close()
	st.session.Close()
	if st.device != nil {
		st.device.Suspend()
	}
}
