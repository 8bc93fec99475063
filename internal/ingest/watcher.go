// ABOUTME: Drop folder watcher
// ABOUTME: Appends files that appear in a directory to the end of a track
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a file must stay unchanged before it is ingested
const DefaultSettle = 500 * time.Millisecond

// WatchConfig configures a Watcher
type WatchConfig struct {
	Dir     string
	TrackID string
	Settle  time.Duration
	// Existing ingests files already in Dir when the watcher starts
	Existing bool
}

// Watcher feeds new files in a directory to an Ingestor. Each file is decoded
// before the next is placed, so it lands after the last clip on the target
// track.
type Watcher struct {
	in      *Ingestor
	cfg     WatchConfig
	watcher *fsnotify.Watcher
	log     *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	seen   map[string]bool

	// held while a file is placed and decoded
	placing sync.Mutex
}

// NewWatcher starts watching cfg.Dir. Call Run to process events.
func NewWatcher(in *Ingestor, cfg WatchConfig) (*Watcher, error) {
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(cfg.Dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.Dir, err)
	}

	return &Watcher{
		in:      in,
		cfg:     cfg,
		watcher: fw,
		log:     in.log.Named("watch"),
		timers:  make(map[string]*time.Timer),
		seen:    make(map[string]bool),
	}, nil
}

// Run processes events until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimers()

	if w.cfg.Existing {
		w.ingestExisting()
	}
	w.log.Info("watching drop folder", zap.String("dir", w.cfg.Dir), zap.String("track", w.cfg.TrackID))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.schedule(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) ingestExisting() {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.log.Warn("failed to list drop folder", zap.Error(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.ingest(filepath.Join(w.cfg.Dir, name))
	}
}

// schedule (re)starts the settle timer for path
func (w *Watcher) schedule(path string) {
	if !Accepts(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.cfg.Settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.cfg.Settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingest(path)
	})
}

func (w *Watcher) ingest(path string) {
	if !Accepts(path) {
		return
	}

	w.mu.Lock()
	if w.seen[path] {
		w.mu.Unlock()
		return
	}
	w.seen[path] = true
	w.mu.Unlock()

	w.placing.Lock()
	defer w.placing.Unlock()

	start := 0.0
	for _, c := range w.in.session.ClipsOnTrack(w.cfg.TrackID) {
		start = max(start, c.End())
	}

	clip, err := w.in.AddFileNow(w.cfg.TrackID, path, start)
	if err != nil {
		w.log.Warn("failed to add dropped file", zap.String("path", path), zap.Error(err))
		return
	}
	w.log.Info("dropped file added",
		zap.String("clip", clip.ID),
		zap.Float64("start", start),
		zap.Float64("duration", clip.Duration))
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
