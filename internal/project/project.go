// ABOUTME: Project files
// ABOUTME: Saves and restores a session's tracks and clips as YAML
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harperreed/lanes/pkg/timeline"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for project files that reference unknown tracks or
// types
var ErrInvalid = errors.New("invalid project")

// File is the on-disk project layout
type File struct {
	Name   string  `yaml:"name"`
	Tracks []Track `yaml:"tracks"`
	Clips  []Clip  `yaml:"clips"`
}

// Track is a saved track
type Track struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Clip is a saved clip. Path is relative to the project file when possible.
type Clip struct {
	ID       string  `yaml:"id"`
	Track    string  `yaml:"track"`
	Name     string  `yaml:"name"`
	Path     string  `yaml:"path,omitempty"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration,omitempty"`
	Kind     string  `yaml:"kind,omitempty"`
}

// Load reads a project file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", filepath.Base(path), err)
	}
	return &f, nil
}

// Save writes f to path
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// FromSession captures a session. Clip paths are stored relative to dir.
func FromSession(name, dir string, s *timeline.Session) *File {
	dir = absDir(dir)
	f := &File{Name: name}
	for _, t := range s.Tracks() {
		f.Tracks = append(f.Tracks, Track{ID: t.ID, Name: t.Name, Type: string(t.Type)})
	}
	for _, c := range s.Clips() {
		f.Clips = append(f.Clips, Clip{
			ID:       c.ID,
			Track:    c.TrackID,
			Name:     c.Name,
			Path:     relativeTo(dir, c.Path),
			Start:    c.Start,
			Duration: c.Duration,
			Kind:     string(c.Kind),
		})
	}
	return f
}

// Apply adds the project's tracks and clips to s and returns the clips as
// placed, without handles. Relative clip paths are resolved against dir and
// come back absolute.
func (f *File) Apply(s *timeline.Session, dir string) ([]timeline.Clip, error) {
	dir = absDir(dir)
	for _, t := range f.Tracks {
		typ := timeline.TrackAudio
		if t.Type != "" {
			parsed, err := timeline.ParseTrackType(t.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: track %s: %v", ErrInvalid, t.ID, err)
			}
			typ = parsed
		}
		if _, err := s.AddTrack(timeline.Track{ID: t.ID, Name: t.Name, Type: typ}); err != nil {
			return nil, fmt.Errorf("%w: track %s: %v", ErrInvalid, t.ID, err)
		}
	}

	var placed []timeline.Clip
	for _, c := range f.Clips {
		clip, err := s.AddClip(timeline.Clip{
			ID:       c.ID,
			TrackID:  c.Track,
			Name:     c.Name,
			Path:     resolve(dir, c.Path),
			Start:    c.Start,
			Duration: c.Duration,
			Kind:     timeline.ClipKind(c.Kind),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: clip %s: %v", ErrInvalid, c.ID, err)
		}
		placed = append(placed, clip)
	}
	return placed, nil
}

// absDir makes dir absolute against the working directory. An empty dir
// stays empty.
func absDir(dir string) string {
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

func relativeTo(dir, path string) string {
	if path == "" || dir == "" {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return path
	}
	return rel
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
