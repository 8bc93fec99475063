// ABOUTME: Clip ingestion package
// ABOUTME: Turns dropped, watched or recorded audio into timeline clips
// Package ingest adds files to a timeline session.
//
// Files are filtered by extension (wav, mp3, flac, ogg, aac, m4a, mid, midi). An
// accepted file becomes a clip at once; audio is decoded in the background
// and the clip's handle and duration are attached when ready. MIDI files
// become silent placeholders lasting as long as the file plays, or 30 s when
// that cannot be determined.
//
// With a Capture configured, StartRecording and StopRecording record a take
// from the input device, save it as WAV and place it like a loaded file.
//
// Example:
//
//	in := ingest.New(ingest.Config{Session: s, NewHandle: func(p *audio.PCM) timeline.MediaHandle {
//	    return dev.NewHandle(p)
//	}})
//	clip, err := in.AddFile(trackID, "take3.flac", 4.5)
package ingest
