// ABOUTME: Decoder registry
// ABOUTME: Picks a whole-file decoder by file extension
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/lanes/pkg/audio"
)

// ErrUnsupported is returned for files no decoder can read
var ErrUnsupported = errors.New("unsupported audio format")

// Func decodes a complete encoded stream into memory
type Func func(r io.Reader) (*audio.PCM, error)

var byExt = map[string]Func{
	".mp3":  MP3,
	".flac": FLAC,
	".wav":  WAV,
	".ogg":  Vorbis,
}

// ForExt returns the decoder for a file extension such as ".mp3"
func ForExt(ext string) (Func, error) {
	fn, ok := byExt[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	return fn, nil
}

// File decodes the audio file at path
func File(path string) (*audio.PCM, error) {
	fn, err := ForExt(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	pcm, err := fn(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return pcm, nil
}
