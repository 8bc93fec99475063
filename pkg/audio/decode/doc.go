// ABOUTME: Audio decoder package for clip files
// ABOUTME: Provides whole-file decoders for MP3, FLAC, WAV and Ogg Vorbis
// Package decode turns clip files into in-memory PCM.
//
// Supports: MP3 (go-mp3), FLAC (mewkiz/flac), WAV and Ogg Vorbis (beep).
//
// All decoders output interleaved int32 samples in 24-bit range.
//
// Example:
//
//	pcm, err := decode.File("vocals.wav")
//	if errors.Is(err, decode.ErrUnsupported) {
//	    // e.g. .aac or .m4a
//	}
package decode
